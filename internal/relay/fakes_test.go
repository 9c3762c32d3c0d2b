package relay

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Vovarama1992/line-intent-relay/internal/nlu"
)

const (
	testHandoff       = "รับทราบครับ เจ้าหน้าที่จะติดต่อกลับ"
	testNotUnderstood = "ไม่เข้าใจครับ กรุณาเลือก 1-3"
)

var testReplies = Replies{Handoff: testHandoff, NotUnderstood: testNotUnderstood}

func nullLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func testCatalog() *ProductCatalog {
	return NewProductCatalog(map[string]map[string]string{
		"smartwatch-x1": {
			"price":   "3,990 บาท",
			"battery": "7 วัน",
		},
		"earbuds-pro": {
			"color": "ดำ, ขาว",
		},
	})
}

type fakeResolver struct {
	mu      sync.Mutex
	results map[string]nlu.Result // by message text
	errs    map[string]error
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, userID, text string) (nlu.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+":"+text)
	if err := f.errs[text]; err != nil {
		return nlu.Result{}, err
	}
	res := f.results[text]
	if res.Parameters == nil {
		res.Parameters = map[string]any{}
	}
	return res, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type sentReply struct {
	token string
	text  string
}

type fakeOutbound struct {
	mu   sync.Mutex
	sent []sentReply
	err  error
}

func (f *fakeOutbound) Reply(_ context.Context, token, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentReply{token: token, text: text})
	return nil
}

// failingPauses fails every call, standing in for an unreachable database.
type failingPauses struct {
	err error
}

func (f failingPauses) IsPaused(context.Context, string) (bool, error) { return false, f.err }
func (f failingPauses) Pause(context.Context, string) (bool, error)    { return false, f.err }

// countingPauses counts membership lookups on top of the in-memory registry.
type countingPauses struct {
	*MemoryPauseRegistry
	mu      sync.Mutex
	lookups int
}

func (c *countingPauses) IsPaused(ctx context.Context, userID string) (bool, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.MemoryPauseRegistry.IsPaused(ctx, userID)
}

func textEvent(userID, text, replyToken string) Event {
	return Event{
		Type:       "message",
		ReplyToken: replyToken,
		Source:     Source{Type: "user", UserID: userID},
		Message:    &EventMessage{Type: "text", Text: text},
	}
}
