package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/recents/internal/query"
	"github.com/starford/recents/internal/recents"
	"github.com/starford/recents/internal/shortcut"
	"github.com/starford/recents/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Source  SourceConfig      `yaml:"source"`
	Recents RecentsConfig     `yaml:"recents"`
	Query   QueryConfig       `yaml:"query"`
	Events  EventsConfig      `yaml:"events"`
	Auth    AuthConfig        `yaml:"auth"`
	Metrics MetricsConfig     `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Recents.Validate(); err != nil {
		return fmt.Errorf("recents: %w", err)
	}
	if err := c.Query.Validate(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig describes the pointer directory.
type SourceConfig struct {
	Path     string `yaml:"path"`
	Pattern  string `yaml:"pattern"`
	Resolver string `yaml:"resolver"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Pattern, validation.Required, validation.By(validPattern)),
		validation.Field(&c.Resolver, validation.In(shortcut.KindSymlink, shortcut.KindManifest)),
	)
}

func validPattern(v any) error {
	p, _ := v.(string)
	if _, err := filepath.Match(p, ""); err != nil {
		return fmt.Errorf("invalid pattern %q", p)
	}
	return nil
}

// RecentsConfig tunes the recent-items cache.
type RecentsConfig struct {
	MaxItems int           `yaml:"max_items"`
	Debounce time.Duration `yaml:"debounce"`
	// Watch disables the directory watcher when false; refreshes then only
	// happen through POST /api/refresh.
	Watch bool `yaml:"watch"`
}

// Validate validates the recents configuration.
func (c *RecentsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxItems, validation.Required, validation.Min(1), validation.Max(10000)),
		validation.Field(&c.Debounce, validation.Required, validation.Min(10*time.Millisecond), validation.Max(time.Minute)),
	)
}

// QueryConfig tunes the query engine.
type QueryConfig struct {
	PageSize int `yaml:"page_size"`
}

// Validate validates the query configuration.
func (c *QueryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(1000)),
	)
}

// EventsConfig tunes the SSE broker.
type EventsConfig struct {
	Throttle  time.Duration `yaml:"throttle"`
	Keepalive time.Duration `yaml:"keepalive"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
		validation.Field(&c.Keepalive, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			Path:     "./recent",
			Pattern:  storage.DefaultPattern,
			Resolver: shortcut.KindSymlink,
		},
		Recents: RecentsConfig{
			MaxItems: recents.DefaultMaxItems,
			Debounce: recents.DefaultDebounce,
			Watch:    true,
		},
		Query: QueryConfig{
			PageSize: query.DefaultPageSize,
		},
		Events: EventsConfig{
			Throttle:  time.Second,
			Keepalive: 30 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
