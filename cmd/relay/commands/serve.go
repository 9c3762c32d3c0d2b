package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/line-intent-relay/internal/ai"
	"github.com/Vovarama1992/line-intent-relay/internal/config"
	"github.com/Vovarama1992/line-intent-relay/internal/metrics"
	"github.com/Vovarama1992/line-intent-relay/internal/nlu"
	"github.com/Vovarama1992/line-intent-relay/internal/relay"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Start the HTTP server: POST /webhook for LINE, GET /ping for health checks and
GET /metrics for Prometheus. Configuration comes from the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd.ErrOrStderr())
		},
	}
}

func runServe(ctx context.Context, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Knowledge ---
	catalog, err := relay.LoadProductCatalog(cfg.ProductsFile)
	if err != nil {
		return err
	}
	log.WithField("products", catalog.Len()).Info("product catalog loaded")

	// --- Pause registry ---
	pauses, closeDB, err := openPauseRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	// --- Upstreams ---
	resolver, err := nlu.NewDialogflowResolver(ctx, nlu.DialogflowConfig{
		ProjectID:       cfg.DialogflowProjectID,
		LanguageCode:    cfg.DialogflowLanguage,
		CredentialsJSON: cfg.DialogflowCredentials,
	}, log)
	if err != nil {
		return err
	}
	defer resolver.Close()

	completer, err := newCompleter(ctx, cfg, log)
	if err != nil {
		return err
	}

	outbound, err := relay.NewLineOutbound(cfg.LineChannelToken, cfg.LineAPIEndpoint, cfg.UpstreamTimeout)
	if err != nil {
		return err
	}

	// --- Relay wiring ---
	kind, err := relay.ParsePolicyKind(cfg.ReplyPolicy)
	if err != nil {
		return err
	}
	policy := relay.NewPolicy(kind, pauses, catalog, completer, relay.Replies{
		Handoff:       cfg.HandoffText,
		NotUnderstood: cfg.NotUnderstoodText,
	}, log)

	m := metrics.New()
	svc, err := relay.NewService(pauses, resolver, policy, outbound, m, relay.ServiceConfig{
		UpstreamTimeout: cfg.UpstreamTimeout,
		DedupSize:       cfg.DedupCacheSize,
	}, log)
	if err != nil {
		return err
	}

	if cfg.LineChannelSecret == "" {
		log.Warn("LINE_CHANNEL_SECRET not set, webhook signatures are not checked")
	}
	handler := relay.NewHandler(svc, cfg.LineChannelSecret, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(handler, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"policy":   kind,
			"provider": cfg.CompletionProvider,
		}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(h *relay.Handler, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Line-Signature"},
	}))

	relay.RegisterRoutes(r, h)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}

// openPauseRegistry uses Postgres when DATABASE_URL is set, memory otherwise.
func openPauseRegistry(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (relay.PauseRegistry, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, paused users are kept in memory only")
		return relay.NewMemoryPauseRegistry(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if err := relay.EnsurePauseSchema(pingCtx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db schema: %w", err)
	}

	repo, err := relay.NewPauseRepo(db, cfg.PauseCacheSize)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

func newCompleter(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (ai.Completer, error) {
	switch cfg.CompletionProvider {
	case config.ProviderOpenAI:
		return ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
			BaseURL:  cfg.OpenAIBaseURL,
			Fallback: cfg.CannotAnswerText,
		}, log)
	case config.ProviderGemini:
		return ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			BaseURL:  cfg.GeminiBaseURL,
			Fallback: cfg.CannotAnswerText,
			Timeout:  cfg.UpstreamTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}
