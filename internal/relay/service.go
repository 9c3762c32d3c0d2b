package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/Vovarama1992/line-intent-relay/internal/metrics"
	"github.com/Vovarama1992/line-intent-relay/internal/nlu"
)

type ServiceConfig struct {
	// UpstreamTimeout bounds each NLU and completion call.
	UpstreamTimeout time.Duration
	// DedupSize is how many webhook event ids are remembered; 0 disables dedup.
	DedupSize int
}

type service struct {
	pauses   PauseRegistry
	resolver nlu.Resolver
	policy   *Policy
	outbound Outbound
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	timeout  time.Duration

	seenMu sync.Mutex
	seen   *lru.Cache[string, struct{}]
}

func NewService(
	pauses PauseRegistry,
	resolver nlu.Resolver,
	policy *Policy,
	outbound Outbound,
	m *metrics.Metrics,
	cfg ServiceConfig,
	log logrus.FieldLogger,
) (Service, error) {
	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s := &service{
		pauses:   pauses,
		resolver: resolver,
		policy:   policy,
		outbound: outbound,
		metrics:  m,
		log:      log.WithField("component", "dispatcher"),
		timeout:  timeout,
	}

	if cfg.DedupSize > 0 {
		seen, err := lru.New[string, struct{}](cfg.DedupSize)
		if err != nil {
			return nil, err
		}
		s.seen = seen
	}

	return s, nil
}

// HandleBatch handles events in payload order. One failed event never stops the rest.
func (s *service) HandleBatch(ctx context.Context, events []Event) []Outcome {
	s.metrics.RecordBatch()

	out := make([]Outcome, 0, len(events))
	for _, ev := range events {
		out = append(out, s.HandleEvent(ctx, ev))
	}
	return out
}

func (s *service) HandleEvent(ctx context.Context, ev Event) Outcome {
	start := time.Now()
	log := s.log.WithFields(logrus.Fields{
		"event_type": ev.Type,
		"user_id":    ev.Source.UserID,
	})
	if ev.WebhookEventID != "" {
		log = log.WithField("webhook_event_id", ev.WebhookEventID)
	}

	outcome, source, err := s.handle(ctx, ev, log)

	log = log.WithFields(logrus.Fields{
		"outcome":     outcome,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if source != "" {
		log = log.WithField("reply_source", source)
	}

	switch outcome {
	case OutcomeFailed:
		log.WithError(err).Error("event failed")
	case OutcomeIgnored:
		log.Debug("event ignored")
	default:
		log.Info("event processed")
	}

	s.metrics.RecordEvent(string(outcome), time.Since(start))
	if source != "" {
		s.metrics.RecordReply(string(source))
	}
	return outcome
}

func (s *service) handle(ctx context.Context, ev Event, log logrus.FieldLogger) (Outcome, ReplySource, error) {
	// RECEIVED
	if !ev.IsText() {
		return OutcomeIgnored, "", nil
	}
	userID := ev.Source.UserID
	if userID == "" {
		log.Warn("text message without user id")
		return OutcomeIgnored, "", nil
	}
	if s.duplicate(ev.WebhookEventID) {
		log.Info("duplicate delivery")
		return OutcomeIgnored, "", nil
	}

	// CHECK_PAUSE
	paused, err := s.pauses.IsPaused(ctx, userID)
	if err != nil {
		return OutcomeFailed, "", err
	}
	if paused {
		return OutcomeSuppressed, SourceSuppressed, nil
	}

	// RESOLVE_INTENT
	text := ev.Message.Text
	resolveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	res, err := s.resolver.Resolve(resolveCtx, userID, text)
	cancel()
	if err != nil {
		return OutcomeFailed, "", err
	}
	log.WithFields(logrus.Fields{
		"intent":     res.Intent,
		"confidence": res.Confidence,
	}).Debug("intent resolved")

	// APPLY_POLICY
	policyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	// pause state was read in CHECK_PAUSE
	decision, err := s.policy.route(policyCtx, userID, text, res)
	cancel()
	if err != nil {
		return OutcomeFailed, "", err
	}
	if decision.NewlyPaused {
		log.Info("user paused, handing off to a human")
	}
	if !decision.Reply {
		return OutcomeSuppressed, decision.Source, nil
	}
	if decision.Text == "" {
		return OutcomeFailed, decision.Source, errors.New("empty reply text")
	}

	// SEND_REPLY
	if err := s.outbound.Reply(ctx, ev.ReplyToken, decision.Text); err != nil {
		return OutcomeFailed, decision.Source, err
	}
	return OutcomeSent, decision.Source, nil
}

// duplicate remembers id and reports whether it had been seen already.
func (s *service) duplicate(id string) bool {
	if s.seen == nil || id == "" {
		return false
	}
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	if s.seen.Contains(id) {
		return true
	}
	s.seen.Add(id, struct{}{})
	return false
}
