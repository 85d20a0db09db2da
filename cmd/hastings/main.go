// Package main provides the hastings CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/born-ml/hastings/internal/tokenizer"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Command completed
	ExitRejected = 1 // Input rejected or verification failed
	ExitError    = 2 // Configuration or runtime error
)

// VerifyFailureError indicates that verification ran to completion but found
// at least one mismatch.
type VerifyFailureError struct {
	Failures int
}

func (e *VerifyFailureError) Error() string {
	return fmt.Sprintf("verification failed: %d mismatch(es)", e.Failures)
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var verifyErr *VerifyFailureError
	if errors.As(err, &verifyErr) ||
		errors.Is(err, tokenizer.ErrDisallowedControlToken) ||
		errors.Is(err, tokenizer.ErrInvalidUTF8) ||
		errors.Is(err, tokenizer.ErrUnknownID) {
		return ExitRejected
	}
	return ExitError
}
