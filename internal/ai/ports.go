package ai

import (
	"context"
	"errors"
)

// ErrUpstream marks a completion service that could not be reached or answered non-2xx.
var ErrUpstream = errors.New("completion service error")

// Completer is the generative fallback. It knows nothing about LINE, intents or products.
//
// An empty or malformed answer is not an error: implementations return their configured
// fallback text instead. Only transport failures are returned as errors.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
