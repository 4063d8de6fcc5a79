package openai

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// Config for the OpenAI-compatible client. BaseURL may point at any server
// that speaks the chat completions API.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	MaxTokens   int           // used when a call does not set its own budget
	Temperature float64       // used when a call does not set its own
	Timeout     time.Duration // per request
	MaxRetries  int
}

// ConfigFrom maps the application LLM settings onto a client config.
func ConfigFrom(c common.LLMConfig) Config {
	return Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
		MaxRetries:  2,
	}
}

// defaultProbeRetry is how long a failed availability probe is trusted.
const defaultProbeRetry = 30 * time.Second

type Client struct {
	cfg    Config
	api    oai.Client
	logger *slog.Logger

	// A positive probe is kept for the life of the client; a negative one
	// is retried after probeRetry.
	probeMu    sync.Mutex
	available  bool
	probedAt   time.Time
	probeRetry time.Duration
	now        func() time.Time
}

// NewClient builds a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &Client{
		cfg:        cfg,
		api:        oai.NewClient(opts...),
		logger:     logger,
		probeRetry: defaultProbeRetry,
		now:        time.Now,
	}
}
