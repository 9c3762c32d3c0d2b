package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	PolicyMenu            = "menu"
	PolicyFallbackKeyword = "fallback-keyword"
)

// Default user-facing texts. The bot talks Thai.
const (
	DefaultHandoffText       = "รับทราบครับ ระบบได้ส่งต่อให้เจ้าหน้าที่แล้ว เจ้าหน้าที่จะติดต่อกลับโดยเร็วที่สุดครับ"
	DefaultNotUnderstoodText = "ขออภัยครับ ไม่เข้าใจข้อความ กรุณาพิมพ์ 1-3 เพื่อเลือกเมนู\n1. ข้อมูลทั่วไป\n2. สอบถามสินค้า\n3. ติดต่อเจ้าหน้าที่"
	DefaultCannotAnswerText  = "ขอโทษครับ ไม่ทราบคำตอบตอนนี้"
)

type Config struct {
	Port string

	// LINE
	LineChannelToken  string
	LineChannelSecret string
	LineAPIEndpoint   string

	// Dialogflow
	DialogflowProjectID   string
	DialogflowCredentials []byte
	DialogflowLanguage    string

	// Generative fallback
	CompletionProvider string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string

	// Relay behaviour
	ReplyPolicy       string
	UpstreamTimeout   time.Duration
	ProductsFile      string
	HandoffText       string
	NotUnderstoodText string
	CannotAnswerText  string
	DedupCacheSize    int

	// Pause registry persistence; empty means in-memory.
	DatabaseURL    string
	PauseCacheSize int

	LogLevel  string
	LogFormat string
}

// Error lists every configuration problem found by Load. Any Error is fatal at startup.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var problems []string

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		LineChannelToken:    firstEnv("LINE_TOKEN", "LINE_CHANNEL_ACCESS_TOKEN"),
		LineChannelSecret:   os.Getenv("LINE_CHANNEL_SECRET"),
		LineAPIEndpoint:     getEnv("LINE_API_ENDPOINT", "https://api.line.me"),
		DialogflowProjectID: os.Getenv("DIALOGFLOW_PROJECT_ID"),
		DialogflowLanguage:  getEnv("DIALOGFLOW_LANGUAGE", "th"),
		CompletionProvider:  strings.ToLower(getEnv("COMPLETION_PROVIDER", ProviderGemini)),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-pro"),
		GeminiBaseURL:       os.Getenv("GEMINI_BASE_URL"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		ReplyPolicy:         strings.ToLower(getEnv("REPLY_POLICY", PolicyMenu)),
		UpstreamTimeout:     getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second, &problems),
		ProductsFile:        os.Getenv("PRODUCTS_FILE"),
		HandoffText:         getEnv("REPLY_HANDOFF_TEXT", DefaultHandoffText),
		NotUnderstoodText:   getEnv("REPLY_NOT_UNDERSTOOD_TEXT", DefaultNotUnderstoodText),
		CannotAnswerText:    getEnv("REPLY_CANNOT_ANSWER_TEXT", DefaultCannotAnswerText),
		DedupCacheSize:      getEnvInt("WEBHOOK_DEDUP_SIZE", 1024, &problems),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		PauseCacheSize:      getEnvInt("PAUSE_CACHE_SIZE", 4096, &problems),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}

	if raw := strings.TrimSpace(os.Getenv("DIALOGFLOW_CREDENTIALS")); raw != "" {
		creds, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("DIALOGFLOW_CREDENTIALS is not valid base64: %v", err))
		} else {
			cfg.DialogflowCredentials = creds
		}
	} else {
		problems = append(problems, "DIALOGFLOW_CREDENTIALS is not set")
	}

	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return nil, &Error{Problems: problems}
	}
	return cfg, nil
}

func (c *Config) validate() []string {
	var problems []string

	if c.LineChannelToken == "" {
		problems = append(problems, "LINE_TOKEN is not set")
	}
	if c.DialogflowProjectID == "" {
		problems = append(problems, "DIALOGFLOW_PROJECT_ID is not set")
	}

	switch c.CompletionProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is not set")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is not set")
		}
	default:
		problems = append(problems, fmt.Sprintf("COMPLETION_PROVIDER must be %q or %q, got %q",
			ProviderGemini, ProviderOpenAI, c.CompletionProvider))
	}

	if c.ReplyPolicy != PolicyMenu && c.ReplyPolicy != PolicyFallbackKeyword {
		problems = append(problems, fmt.Sprintf("REPLY_POLICY must be %q or %q, got %q",
			PolicyMenu, PolicyFallbackKeyword, c.ReplyPolicy))
	}
	if c.UpstreamTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("UPSTREAM_TIMEOUT must be positive, got %v", c.UpstreamTimeout))
	}
	if c.DedupCacheSize < 0 {
		problems = append(problems, fmt.Sprintf("WEBHOOK_DEDUP_SIZE must not be negative, got %d", c.DedupCacheSize))
	}
	if c.PauseCacheSize <= 0 {
		problems = append(problems, fmt.Sprintf("PAUSE_CACHE_SIZE must be positive, got %d", c.PauseCacheSize))
	}

	return problems
}

func getEnv(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// getEnvInt and getEnvDuration return defaultVal for an unset key and record a
// problem for a value that does not parse.
func getEnvInt(key string, defaultVal int, problems *[]string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be an integer, got %q", key, v))
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration, problems *[]string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be a duration such as 15s, got %q", key, v))
		return defaultVal
	}
	return d
}
