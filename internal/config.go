package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/weekboard/internal/models"
	"github.com/starford/weekboard/internal/render"
	"github.com/starford/weekboard/internal/weeks"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Store      StoreConfig       `yaml:"store"`
	Collection CollectionConfig  `yaml:"collection"`
	Nav        NavConfig         `yaml:"nav"`
	Watch      WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Collection.Validate(); err != nil {
		return err
	}
	return c.Nav.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile, when set, additionally writes logs to a rotated file.
	LogFile string     `yaml:"log_file"`
	Title   string     `yaml:"title"`
	HTTP    HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
	); err != nil {
		return err
	}
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

// StoreConfig selects where the week collection is persisted.
//
// Backend is "file" (one JSON file per key under Path, a directory) or
// "sqlite" (a key-value table in the database at Path).
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendFile, BackendSQLite)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Key, validation.Required),
	)
}

// CollectionConfig shapes a freshly created collection.
type CollectionConfig struct {
	Size        int    `yaml:"size"`
	TitlePrefix string `yaml:"title_prefix"`
	Badge       string `yaml:"badge"`
}

// Validate validates the collection configuration.
func (c *CollectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Required, validation.Min(1), validation.Max(99)),
		validation.Field(&c.TitlePrefix, validation.Required),
	)
}

// Template returns the week template described by the config.
func (c *CollectionConfig) Template() models.Template {
	return models.Template{TitlePrefix: c.TitlePrefix, Badge: c.Badge}
}

// NavConfig lists the page sections; the first one starts active.
type NavConfig struct {
	Sections []string `yaml:"sections"`
}

// Validate validates the navigation configuration.
func (c *NavConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Sections, validation.Required, validation.Each(validation.Required)),
	)
}

// WatchConfig controls reloading when the store file is edited externally.
// Only the file backend can be watched.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Title:    "Weekboard",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    "./data",
			Key:     weeks.DefaultKey,
		},
		Collection: CollectionConfig{
			Size:        models.DefaultCount,
			TitlePrefix: models.DefaultTitlePrefix,
			Badge:       models.DefaultBadge,
		},
		Nav: NavConfig{
			Sections: append([]string{}, render.DefaultSections...),
		},
		Watch: WatchConfig{
			Enabled: true,
		},
	}
}
