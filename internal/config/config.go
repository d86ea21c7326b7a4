package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDocs is the document list searched when none is configured.
var DefaultDocs = []string{
	"/docs/operations/creation.docx",
	"/docs/operations/income_distribution.docx",
	"/docs/reports/admin.docx",
	"/docs/settlement/eod.docx",
}

type Config struct {
	Port string

	// Document source: a local directory or a remote base URL.
	DocsRoot    string
	DocsBaseURL string
	DocsAPIKey  string

	// Documents searched on every topic load, in display order.
	Docs []string

	// Markdown menu file; empty builds the menu from document headings.
	NavFile string

	// Auth for admin endpoints
	DocviewAPIKey string

	// Fetching
	FetchConcurrency int
	FetchTimeout     time.Duration
	FetchRPS         float64
	MaxDocBytes      int64

	// Caching and session state
	CacheTTL   time.Duration
	SessionTTL time.Duration
	WatchDocs  bool

	// Async loads
	WorkerCount  int
	MaxQueueSize int

	// PDF
	PDFFallbackPdftotext bool

	// Optional TOML file applied over the environment.
	ConfigFile string
}

// fileConfig is the subset of settings a TOML file may set.
type fileConfig struct {
	Docs        []string `toml:"docs"`
	NavFile     string   `toml:"nav_file"`
	DocsRoot    string   `toml:"docs_root"`
	DocsBaseURL string   `toml:"docs_base_url"`
}

// Load reads the environment, then the TOML file named by DOCVIEW_CONFIG if
// set.
func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocsRoot:    os.Getenv("DOCS_ROOT"),
		DocsBaseURL: os.Getenv("DOCS_BASE_URL"),
		DocsAPIKey:  os.Getenv("DOCS_API_KEY"),

		Docs:    envList("DOC_FILES", DefaultDocs),
		NavFile: os.Getenv("NAV_FILE"),

		DocviewAPIKey: os.Getenv("DOCVIEW_API_KEY"),

		FetchConcurrency: envInt("FETCH_CONCURRENCY", 4),
		FetchTimeout:     envDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRPS:         envFloat("FETCH_RPS", 20),
		MaxDocBytes:      envInt64("MAX_DOC_BYTES", 52428800), // 50MB

		CacheTTL:   envDuration("CACHE_TTL", 5*time.Minute),
		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),
		WatchDocs:  envBool("WATCH_DOCS", true),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		ConfigFile: os.Getenv("DOCVIEW_CONFIG"),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if cfg.DocsRoot == "" && cfg.DocsBaseURL == "" {
		cfg.DocsRoot = "."
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.FetchRPS < 0 {
		cfg.FetchRPS = 0
	}
	if cfg.MaxDocBytes <= 0 {
		cfg.MaxDocBytes = 52428800
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if len(fc.Docs) > 0 {
		c.Docs = cleanList(fc.Docs)
	}
	if fc.NavFile != "" {
		c.NavFile = fc.NavFile
	}
	// A source named in the file replaces the one from the environment.
	if fc.DocsRoot != "" {
		c.DocsRoot, c.DocsBaseURL = fc.DocsRoot, ""
	}
	if fc.DocsBaseURL != "" {
		c.DocsBaseURL, c.DocsRoot = fc.DocsBaseURL, ""
	}
	return nil
}

func (c Config) Validate() error {
	if len(c.Docs) == 0 {
		return errors.New("at least one document is required (DOC_FILES)")
	}
	if c.DocsRoot != "" && c.DocsBaseURL != "" {
		return errors.New("set only one of DOCS_ROOT and DOCS_BASE_URL")
	}
	if c.DocsRoot == "" && c.DocsBaseURL == "" {
		return errors.New("DOCS_ROOT or DOCS_BASE_URL is required")
	}
	return nil
}

// Remote reports whether documents are fetched over HTTP.
func (c Config) Remote() bool {
	return c.DocsBaseURL != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		if list := cleanList(strings.Split(v, ",")); len(list) > 0 {
			return list
		}
	}
	return append([]string(nil), fallback...)
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
