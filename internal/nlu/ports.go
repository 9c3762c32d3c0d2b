package nlu

import (
	"context"
	"errors"
)

// ErrResolve marks an intent detection call that failed at the transport or service level.
var ErrResolve = errors.New("intent resolution failed")

// Result is what the relay needs from one intent detection call.
// Absent fields come back empty, never nil.
type Result struct {
	Intent          string
	FulfillmentText string
	Parameters      map[string]any
	Confidence      float32
	QueryText       string
	LanguageCode    string
}

type Resolver interface {
	Resolve(ctx context.Context, userID, text string) (Result, error)
}
