package relay

import (
	"context"
)

// Outcome is the terminal state of one webhook event.
type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeSent       Outcome = "sent"
	OutcomeFailed     Outcome = "failed"
)

// ReplySource names where the reply text came from.
type ReplySource string

const (
	SourceSuppressed    ReplySource = "suppressed"
	SourceFulfillment   ReplySource = "fulfillment"
	SourceKnowledge     ReplySource = "knowledge"
	SourceGenerative    ReplySource = "generative"
	SourceHandoff       ReplySource = "handoff"
	SourceNotUnderstood ReplySource = "not_understood"
)

// ReplyDecision is the outcome of the reply policy for one message.
type ReplyDecision struct {
	Text        string
	Reply       bool // false means send nothing
	NewlyPaused bool
	Source      ReplySource
}

// PauseRegistry holds users that asked for a human. Entries are never removed.
type PauseRegistry interface {
	IsPaused(ctx context.Context, userID string) (bool, error)
	// Pause reports whether userID was not paused before the call.
	Pause(ctx context.Context, userID string) (bool, error)
}

// KnowledgeStore is the static product answer table.
type KnowledgeStore interface {
	Lookup(product, field string) (string, bool)
	// Serialize returns the whole store as text suitable for a prompt.
	Serialize() string
}

type Outbound interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Service is the dispatcher: it takes webhook events to their terminal outcome.
type Service interface {
	HandleBatch(ctx context.Context, events []Event) []Outcome
	HandleEvent(ctx context.Context, ev Event) Outcome
}
