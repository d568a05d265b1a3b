package relay

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the relay configuration, including the optional WebSocket
// gateway settings and per-session rate limiting.
type Config struct {
	Host        string `env:"RELAY_HOST"`
	Port        int    `env:"RELAY_PORT" envDefault:"1500"`
	GatewayAddr string `env:"GATEWAY_ADDR"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:8080"`
	MaxFrameSize   int      `env:"MAX_FRAME_SIZE" envDefault:"4096"`

	// RateLimitBurst of zero disables inbound rate limiting.
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// LoadConfig builds a Config from environment variables, falling back to
// defaults for anything unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("relay: parse config: %w", err)
	}
	return cfg.sanitize(), nil
}

// sanitize clamps invalid values back to usable defaults. A Port of zero is
// kept: it asks the OS for an ephemeral port, which the tests rely on.
func (c Config) sanitize() Config {
	if c.Port < 0 {
		c.Port = 1500
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = 4096
	}
	if c.RateLimitBurst < 0 {
		c.RateLimitBurst = 0
	}
	if c.RateLimitRefill <= 0 {
		c.RateLimitRefill = time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}

func (c Config) listenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
