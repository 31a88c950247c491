package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// DBPath is the SQLite database shared with the rest of the streaming
	// server installation.
	DBPath string `env:"DB_PATH, default=/opt/streamserver/database/streaming.db"`

	// CookieSecure marks session cookies Secure; enable behind TLS.
	CookieSecure bool `env:"COOKIE_SECURE, default=false"`

	// AuditBuffer is the capacity of the async activity recorder.
	AuditBuffer int `env:"AUDIT_BUFFER, default=256"`

	// JanitorInterval is how often expired session rows are purged, and
	// SessionRetention how long past expiry they are kept for inspection.
	JanitorInterval  time.Duration `env:"JANITOR_INTERVAL,  default=1h"`
	SessionRetention time.Duration `env:"SESSION_RETENTION, default=720h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
