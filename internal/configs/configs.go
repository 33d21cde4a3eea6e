/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from LIVECHAT_* environment variables and command line flags, parsed by
ardanlabs/conf. They cover the chat server endpoint, avatar derivation, the renderer, the local
control API, send throttling and WebSocket transport limits.
*/
package configs

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ardanlabs/conf/v3"
)

// Prefix is the environment variable prefix of every setting.
const Prefix = "LIVECHAT"

// Supported renderers.
const (
	UITerminal = "tui"
	UIHeadless = "headless"
)

// ErrHelpWanted is returned by LoadConfig when --help or --version was requested.
var ErrHelpWanted = conf.ErrHelpWanted

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	conf.Version

	// Environment selects logger formatting: "development" is human readable, anything else is JSON.
	Environment string `conf:"default:development"`

	// ServerURL is the WebSocket endpoint of the chat server.
	ServerURL string `conf:"default:ws://127.0.0.1:8080/chat"`

	// AvatarBaseURL is the prefix avatars are derived from.
	AvatarBaseURL string `conf:"default:https://avatars.dicebear.com/api/adventurer-neutral"`

	// Username logs in immediately when set, skipping the entry screen.
	Username string

	// UI is the renderer: "tui" or "headless".
	UI string `conf:"default:tui"`

	// LogFile receives log output in terminal mode so the screen stays clean.
	LogFile string `conf:"default:livechat.log"`

	API struct {
		// Port of the local control API. Zero disables it.
		Port           int           `conf:"default:0"`
		AllowedOrigins []string      `conf:"default:http://localhost:3000"`
		RequestRate    float64       `conf:"default:5"`
		RequestBurst   int           `conf:"default:10"`
		ShutdownWait   time.Duration `conf:"default:5s"`
	}

	Send struct {
		// Rate is the number of submits allowed per second. Zero disables throttling.
		Rate  float64 `conf:"default:5"`
		Burst int     `conf:"default:10"`
	}

	Transport struct {
		HandshakeTimeout time.Duration `conf:"default:10s"`
		WriteWait        time.Duration `conf:"default:10s"`
		PongWait         time.Duration `conf:"default:60s"`
		MaxMessageSize   int64         `conf:"default:65536"`
		SendBuffer       int           `conf:"default:256"`
	}
}

// IsDevelopment reports whether the development logger should be used.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig parses the configuration from the environment and os.Args and validates it.
// When help was requested it returns the usage text together with ErrHelpWanted.
func LoadConfig(build string) (*AppConfig, string, error) {
	cfg := &AppConfig{
		Version: conf.Version{
			Build: build,
			Desc:  "livechat terminal client",
		},
	}

	help, err := conf.Parse(Prefix, cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil, help, err
		}
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, "", nil
}

// Validate checks the values conf cannot check by itself.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q must use the ws or wss scheme", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q has no host", c.ServerURL)
	}

	if c.API.Port != 0 && (c.API.Port < 1024 || c.API.Port > 65535) {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.API.Port, 1024, 65535)
	}

	if c.UI != UITerminal && c.UI != UIHeadless {
		return fmt.Errorf("unknown ui %q, want %q or %q", c.UI, UITerminal, UIHeadless)
	}

	if c.Transport.SendBuffer < 1 {
		return fmt.Errorf("transport send buffer must be positive, got %d", c.Transport.SendBuffer)
	}

	if c.Transport.PongWait <= 0 || c.Transport.WriteWait <= 0 {
		return errors.New("transport wait durations must be positive")
	}

	return nil
}

// String renders the effective configuration for the startup log.
func (c *AppConfig) String() string {
	out, err := conf.String(c)
	if err != nil {
		return fmt.Sprintf("config unavailable: %v", err)
	}
	return out
}
