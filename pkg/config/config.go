package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vakya-app/vakya/pkg/utils"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`               // HTTP listen address, e.g. ":8080"
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"` // CORS origins (web app + extension)
	AllowedUsers   []string `yaml:"allowed_users"`             // Email allowlist for API access

	StateDir   string `yaml:"state_dir"`   // BadgerDB directory for document/vocab metadata
	StorageURL string `yaml:"storage_url"` // afs base URL for uploaded files (file:///..., mem://, s3://...)

	MaxUploadSizeBytes int64 `yaml:"max_upload_size_bytes,omitempty"` // PDF upload cap

	Fetch FetchConfig `yaml:"fetch,omitempty"` // Article clipping settings
	Adapt AdaptConfig `yaml:"adapt,omitempty"` // Level adaptation settings

	GCInterval      time.Duration `yaml:"gc_interval,omitempty"`      // Badger value-log GC interval
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"` // Graceful HTTP shutdown budget
}

// FetchConfig holds settings for fetching articles to clip
type FetchConfig struct {
	UserAgent     string           `yaml:"user_agent,omitempty"`
	RespectRobots *bool            `yaml:"respect_robots,omitempty"` // nil = default true
	MaxBodyBytes  int64            `yaml:"max_body_bytes,omitempty"` // Response body cap
	HTTPClient    HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// AdaptConfig holds settings for proficiency-level adaptation
type AdaptConfig struct {
	Model             string `yaml:"model,omitempty"`              // Model name passed to the LLM backend
	TokenizerEncoding string `yaml:"tokenizer_encoding,omitempty"` // tiktoken encoding for token counts
	MaxChunkTokens    int    `yaml:"max_chunk_tokens,omitempty"`   // Chunk size sent per model call
	ChunkOverlap      int    `yaml:"chunk_overlap,omitempty"`      // Overlap between chunks
	MaxDocumentTokens int    `yaml:"max_document_tokens,omitempty"` // Refuse adaptation above this budget
}

// Load reads and parses a YAML config file. Validation is separate so
// callers can log warnings before deciding to proceed.
func Load(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrConfigValidation, "read config file '%s': %v", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, utils.WrapErrorf(utils.ErrConfigValidation, "parse config file '%s': %v", path, err)
	}
	return &cfg, nil
}

// RespectRobotsEnabled resolves the tri-state robots flag (default true)
func (f FetchConfig) RespectRobotsEnabled() bool {
	if f.RespectRobots != nil {
		return *f.RespectRobots
	}
	return true
}
