package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/born-ml/hastings/internal/tokenizer"
)

// EncodeRequest is the body of POST /v1/encode.
type EncodeRequest struct {
	Text           string   `json:"text"`
	AllowedSpecial []string `json:"allowed_special,omitempty"` // ["all"] or control-token names
	RawSpecial     bool     `json:"raw_special,omitempty"`     // treat other control tokens as text
}

// EncodeResponse is returned by POST /v1/encode.
type EncodeResponse struct {
	IDs   []int `json:"ids"`
	Count int   `json:"count"`
}

// BatchEncodeRequest is the body of POST /v1/encode/batch.
type BatchEncodeRequest struct {
	Texts          []string `json:"texts"`
	AllowedSpecial []string `json:"allowed_special,omitempty"`
	RawSpecial     bool     `json:"raw_special,omitempty"`
}

// BatchEncodeResponse is returned by POST /v1/encode/batch.
type BatchEncodeResponse struct {
	IDs [][]int `json:"ids"`
}

// DecodeRequest is the body of POST /v1/decode.
type DecodeRequest struct {
	IDs    []int  `json:"ids"`
	Errors string `json:"errors,omitempty"` // "strict" (default) or "replace"
}

// DecodeResponse is returned by POST /v1/decode.
type DecodeResponse struct {
	Text string `json:"text"`
}

// ChatEncodeRequest is the body of POST /v1/chat/encode.
type ChatEncodeRequest struct {
	Template string                  `json:"template,omitempty"`
	Messages []tokenizer.ChatMessage `json:"messages"`
}

// ChatEncodeResponse is returned by POST /v1/chat/encode.
type ChatEncodeResponse struct {
	Prompt string `json:"prompt"`
	IDs    []int  `json:"ids"`
}

// ControlTokenInfo describes one reserved id.
type ControlTokenInfo struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// VocabularyResponse is returned by GET /v1/vocabulary.
type VocabularyResponse struct {
	Name          string             `json:"name"`
	VocabSize     int                `json:"vocab_size"`
	RankCount     int                `json:"rank_count"`
	Pattern       string             `json:"pattern"`
	ControlTokens []ControlTokenInfo `json:"control_tokens"`
	Fingerprint   string             `json:"fingerprint"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Token  string `json:"token,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	ID     *int   `json:"id,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleVocabulary(c *gin.Context) {
	v := s.codec.Vocabulary()
	controls := v.ControlTokens()
	infos := make([]ControlTokenInfo, len(controls))
	for i, name := range controls {
		infos[i] = ControlTokenInfo{Name: name, ID: v.RankLimit() + i}
	}

	c.JSON(http.StatusOK, VocabularyResponse{
		Name:          v.Name(),
		VocabSize:     v.Size(),
		RankCount:     v.RankLimit(),
		Pattern:       v.Pattern(),
		ControlTokens: infos,
		Fingerprint:   v.Fingerprint(),
	})
}

func (s *Server) handleEncode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ids, err := s.codec.Encode(req.Text, tokenizer.ParsePolicy(req.AllowedSpecial, req.RawSpecial))
	if err != nil {
		s.fail(c, err)
		return
	}

	s.countTokens("encode", len(ids))
	c.JSON(http.StatusOK, EncodeResponse{IDs: ids, Count: len(ids)})
}

func (s *Server) handleEncodeBatch(c *gin.Context) {
	var req BatchEncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty batch"})
		return
	}
	if s.opts.MaxBatch > 0 && len(req.Texts) > s.opts.MaxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("batch of %d exceeds limit %d", len(req.Texts), s.opts.MaxBatch),
		})
		return
	}

	policy := tokenizer.ParsePolicy(req.AllowedSpecial, req.RawSpecial)
	ids, err := s.codec.EncodeBatch(c.Request.Context(), req.Texts, policy)
	if err != nil {
		s.fail(c, err)
		return
	}

	total := 0
	for _, row := range ids {
		total += len(row)
	}
	s.countTokens("encode", total)
	c.JSON(http.StatusOK, BatchEncodeResponse{IDs: ids})
}

func (s *Server) handleDecode(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	mode, err := tokenizer.ParseDecodeMode(req.Errors)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	text, err := s.codec.Decode(req.IDs, mode)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.countTokens("decode", len(req.IDs))
	c.JSON(http.StatusOK, DecodeResponse{Text: text})
}

func (s *Server) handleChatEncode(c *gin.Context) {
	var req ChatEncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	tmpl, err := tokenizer.GetChatTemplate(req.Template)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	prompt, err := tmpl.Apply(req.Messages)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	ids, err := tmpl.Encode(s.codec, req.Messages)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.countTokens("encode", len(ids))
	c.JSON(http.StatusOK, ChatEncodeResponse{Prompt: prompt, IDs: ids})
}

func (s *Server) countTokens(op string, n int) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.AddTokens(op, n)
	}
}

// fail maps tokenizer errors onto status codes: input the policy or the
// vocabulary cannot accept is 422, unknown ids are 400.
// StatusClientClosedRequest reports a request the client abandoned before the
// reply was ready. Not part of net/http; nginx uses the same code.
const StatusClientClosedRequest = 499

func (s *Server) fail(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var disallowed *tokenizer.DisallowedControlTokenError
	var invalid *tokenizer.InvalidUTF8Error
	var unknown *tokenizer.UnknownIDError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &disallowed):
		status = http.StatusUnprocessableEntity
		resp.Token = disallowed.Token
		resp.Offset = &disallowed.Offset
	case errors.As(err, &invalid):
		status = http.StatusUnprocessableEntity
		resp.Offset = &invalid.Offset
	case errors.Is(err, tokenizer.ErrUnencodable):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &unknown):
		status = http.StatusBadRequest
		resp.ID = &unknown.ID
	case errors.Is(err, context.Canceled):
		status = StatusClientClosedRequest
		s.log.Debug("request abandoned", "path", c.Request.URL.Path, "error", err)
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
		s.log.Debug("request timed out", "path", c.Request.URL.Path, "error", err)
	default:
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, resp)
}
