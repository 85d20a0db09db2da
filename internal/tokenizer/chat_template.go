package tokenizer

import (
	"fmt"
	"strings"
)

// Hastings control-token literals, in reserved-id order of the default recipe.
const (
	TokenPad         = "<|pad|>"
	TokenEndOfText   = "<|endoftext|>"
	TokenAssistant   = "<|assistant|>"
	TokenUser        = "<|user|>"
	TokenStartOfText = "<|startoftext|>"
)

// DefaultControlTokens lists the Hastings control tokens; the last one gets id V-1.
var DefaultControlTokens = []string{TokenPad, TokenEndOfText, TokenAssistant, TokenUser, TokenStartOfText}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role specifies the message role ("system", "user", "assistant").
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatTemplate formats messages for conversational models.
type ChatTemplate interface {
	// Apply formats a sequence of messages into a prompt string.
	Apply(messages []ChatMessage) (string, error)

	// Encode formats and tokenizes messages. Role markers become control-token
	// ids; message content is always encoded as plain text.
	Encode(tok Tokenizer, messages []ChatMessage) ([]int, error)

	// Name returns the template name.
	Name() string
}

// HastingsTemplate implements the Hastings conversation format.
//
// Format: <|startoftext|>system<|user|>question<|assistant|>answer<|endoftext|>.
// A conversation that does not end with an assistant turn ends with <|assistant|>
// so the model continues as the assistant.
type HastingsTemplate struct {
	start     string
	end       string
	user      string
	assistant string
}

// NewHastingsTemplate creates a new Hastings chat template.
func NewHastingsTemplate() *HastingsTemplate {
	return &HastingsTemplate{
		start:     TokenStartOfText,
		end:       TokenEndOfText,
		user:      TokenUser,
		assistant: TokenAssistant,
	}
}

// Name returns the template name.
func (t *HastingsTemplate) Name() string {
	return "Hastings"
}

// segment is either a control-token literal or plain content.
type segment struct {
	text    string
	control bool
}

func (t *HastingsTemplate) segments(messages []ChatMessage) ([]segment, error) {
	out := []segment{{text: t.start, control: true}}

	last := ""
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			if last != "" && last != "system" {
				return nil, fmt.Errorf("message %d: system message after conversation turns", i)
			}
		case "user":
			out = append(out, segment{text: t.user, control: true})
		case "assistant":
			out = append(out, segment{text: t.assistant, control: true})
		default:
			return nil, fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
		if msg.Content != "" {
			out = append(out, segment{text: msg.Content})
		}
		last = msg.Role
	}

	if last == "assistant" {
		out = append(out, segment{text: t.end, control: true})
	} else {
		out = append(out, segment{text: t.assistant, control: true})
	}
	return out, nil
}

// Apply formats messages in Hastings format.
func (t *HastingsTemplate) Apply(messages []ChatMessage) (string, error) {
	segs, err := t.segments(messages)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.text)
	}
	return sb.String(), nil
}

// Encode formats and tokenizes messages.
func (t *HastingsTemplate) Encode(tok Tokenizer, messages []ChatMessage) ([]int, error) {
	segs, err := t.segments(messages)
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, s := range segs {
		if s.control {
			id, ok := tok.ControlTokenID(s.text)
			if !ok {
				return nil, fmt.Errorf("vocabulary has no control token %q", s.text)
			}
			ids = append(ids, id)
			continue
		}
		content, err := tok.Encode(s.text, AllowSetAndRaw())
		if err != nil {
			return nil, err
		}
		ids = append(ids, content...)
	}
	return ids, nil
}

// GetChatTemplate returns a chat template by name.
func GetChatTemplate(name string) (ChatTemplate, error) {
	switch strings.ToLower(name) {
	case "", "hastings":
		return NewHastingsTemplate(), nil
	default:
		return nil, fmt.Errorf("unknown chat template: %s", name)
	}
}
