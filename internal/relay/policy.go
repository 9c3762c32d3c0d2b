package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Vovarama1992/line-intent-relay/internal/ai"
	"github.com/Vovarama1992/line-intent-relay/internal/nlu"
)

// PolicyKind selects the rule set used to turn an intent into a reply.
type PolicyKind string

const (
	// PolicyMenu: numbered menu intents plus the product question intent.
	PolicyMenu PolicyKind = "menu"
	// PolicyFallbackKeyword: fulfillment text, with the fallback intent and
	// health-related intents answered by the generative model.
	PolicyFallbackKeyword PolicyKind = "fallback-keyword"
)

const (
	IntentSelects1        = "user_selects_1"
	IntentSelects2        = "user_selects_2"
	IntentSelects3        = "user_selects_3"
	IntentProductQuestion = "user_smart_product_question"
	IntentDefaultFallback = "Default Fallback Intent"

	healthKeyword = "health"

	paramProduct    = "product"
	paramDetailType = "detail_type"
)

func ParsePolicyKind(s string) (PolicyKind, error) {
	switch k := PolicyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PolicyMenu, PolicyFallbackKeyword:
		return k, nil
	default:
		return "", fmt.Errorf("unknown reply policy %q", s)
	}
}

// Replies are the fixed texts the policy can answer with.
type Replies struct {
	Handoff       string
	NotUnderstood string
}

type Policy struct {
	kind      PolicyKind
	pauses    PauseRegistry
	products  KnowledgeStore
	completer ai.Completer
	replies   Replies
	log       logrus.FieldLogger
}

func NewPolicy(
	kind PolicyKind,
	pauses PauseRegistry,
	products KnowledgeStore,
	completer ai.Completer,
	replies Replies,
	log logrus.FieldLogger,
) *Policy {
	return &Policy{
		kind:      kind,
		pauses:    pauses,
		products:  products,
		completer: completer,
		replies:   replies,
		log:       log.WithField("component", "policy"),
	}
}

func (p *Policy) Kind() PolicyKind {
	return p.kind
}

// Decide picks the reply for one message. Rules are ordered; the first match wins.
// Errors come only from the pause registry or the generative fallback.
func (p *Policy) Decide(ctx context.Context, userID, text string, res nlu.Result) (ReplyDecision, error) {
	paused, err := p.pauses.IsPaused(ctx, userID)
	if err != nil {
		return ReplyDecision{}, err
	}
	if paused {
		return ReplyDecision{Source: SourceSuppressed}, nil
	}
	return p.route(ctx, userID, text, res)
}

// route applies the rules for a user already known not to be paused.
func (p *Policy) route(ctx context.Context, userID, text string, res nlu.Result) (ReplyDecision, error) {
	if p.kind == PolicyFallbackKeyword {
		return p.decideFallbackKeyword(ctx, text, res)
	}
	return p.decideMenu(ctx, userID, text, res)
}

func (p *Policy) decideMenu(ctx context.Context, userID, text string, res nlu.Result) (ReplyDecision, error) {
	switch res.Intent {
	case IntentSelects1:
		return reply(res.FulfillmentText, SourceFulfillment), nil

	case IntentProductQuestion:
		product := stringParam(res.Parameters, paramProduct)
		detail := stringParam(res.Parameters, paramDetailType)
		if answer, ok := p.products.Lookup(product, detail); ok {
			return reply(answer, SourceKnowledge), nil
		}
		p.log.WithFields(logrus.Fields{
			"product":     product,
			"detail_type": detail,
		}).Info("no stored answer, asking generative model")
		return p.generate(ctx, productPrompt(p.products, text))

	case IntentSelects2:
		return p.generate(ctx, productPrompt(p.products, text))

	case IntentSelects3:
		newly, err := p.pauses.Pause(ctx, userID)
		if err != nil {
			return ReplyDecision{}, err
		}
		d := reply(p.replies.Handoff, SourceHandoff)
		d.NewlyPaused = newly
		return d, nil
	}

	if res.FulfillmentText != "" {
		return reply(res.FulfillmentText, SourceFulfillment), nil
	}
	return reply(p.replies.NotUnderstood, SourceNotUnderstood), nil
}

func (p *Policy) decideFallbackKeyword(ctx context.Context, text string, res nlu.Result) (ReplyDecision, error) {
	if res.Intent == IntentDefaultFallback || strings.Contains(res.Intent, healthKeyword) {
		return p.generate(ctx, text)
	}
	if res.FulfillmentText != "" {
		return reply(res.FulfillmentText, SourceFulfillment), nil
	}
	// LINE rejects empty text messages, so an intent without fulfillment is answered
	// by the model instead.
	return p.generate(ctx, text)
}

func (p *Policy) generate(ctx context.Context, prompt string) (ReplyDecision, error) {
	answer, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return ReplyDecision{}, err
	}
	return reply(answer, SourceGenerative), nil
}

func reply(text string, source ReplySource) ReplyDecision {
	return ReplyDecision{Text: text, Reply: true, Source: source}
}

// stringParam reads a string parameter. List-valued parameters yield their first string.
func stringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
