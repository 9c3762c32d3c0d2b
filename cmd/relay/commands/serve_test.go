package commands

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Vovarama1992/line-intent-relay/internal/ai"
	"github.com/Vovarama1992/line-intent-relay/internal/config"
	"github.com/Vovarama1992/line-intent-relay/internal/metrics"
	"github.com/Vovarama1992/line-intent-relay/internal/relay"
)

type stubService struct {
	batches int
}

func (s *stubService) HandleBatch(_ context.Context, events []relay.Event) []relay.Outcome {
	s.batches++
	return make([]relay.Outcome, len(events))
}

func (s *stubService) HandleEvent(context.Context, relay.Event) relay.Outcome {
	return relay.OutcomeIgnored
}

func TestNewRouter(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := &stubService{}
	m := metrics.New()
	m.RecordBatch()
	r := newRouter(relay.NewHandler(svc, "", log), m)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{"ping", http.MethodGet, "/ping", "", http.StatusOK, "pong"},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "relay_webhook_batches_total 1"},
		{"webhook", http.MethodPost, "/webhook", `{"events":[]}`, http.StatusOK, ""},
		{"webhook wrong method", http.MethodGet, "/webhook", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			body, _ := io.ReadAll(rec.Body)
			if tt.wantBody != "" && !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", body, tt.wantBody)
			}
		})
	}

	if svc.batches != 1 {
		t.Errorf("service batches = %d, want 1", svc.batches)
	}
}

func TestNewCompleter(t *testing.T) {
	log, _ := test.NewNullLogger()

	c, err := newCompleter(context.Background(), &config.Config{CompletionProvider: config.ProviderGemini, GeminiAPIKey: "k", GeminiModel: "gemini-pro"}, log)
	if err != nil {
		t.Fatalf("gemini: %v", err)
	}
	if _, ok := c.(*ai.GeminiClient); !ok {
		t.Errorf("gemini provider built %T", c)
	}

	c, err = newCompleter(context.Background(), &config.Config{CompletionProvider: config.ProviderOpenAI, OpenAIAPIKey: "k"}, log)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := c.(*ai.OpenAIClient); !ok {
		t.Errorf("openai provider built %T", c)
	}

	if _, err := newCompleter(context.Background(), &config.Config{CompletionProvider: "claude"}, log); err == nil {
		t.Error("unknown provider: error = nil")
	}
}

func TestOpenPauseRegistry_MemoryWithoutDatabase(t *testing.T) {
	log, _ := test.NewNullLogger()

	reg, closeFn, err := openPauseRegistry(context.Background(), &config.Config{}, log)
	if err != nil {
		t.Fatalf("openPauseRegistry() error = %v", err)
	}
	defer closeFn()

	if _, ok := reg.(*relay.MemoryPauseRegistry); !ok {
		t.Errorf("registry = %T, want in-memory", reg)
	}
}

func TestRunServe_RefusesInvalidConfig(t *testing.T) {
	for _, key := range []string{
		"LINE_TOKEN", "LINE_CHANNEL_ACCESS_TOKEN", "DIALOGFLOW_PROJECT_ID", "DIALOGFLOW_CREDENTIALS",
	} {
		t.Setenv(key, "")
	}

	err := runServe(context.Background(), io.Discard)

	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("runServe() error = %v, want *config.Error", err)
	}
	if len(cfgErr.Problems) < 3 {
		t.Errorf("problems = %v, want at least token, project and credentials", cfgErr.Problems)
	}
}
