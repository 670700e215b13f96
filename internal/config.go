package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Cards    CardsConfig       `yaml:"cards"`
	Deletion DeletionConfig    `yaml:"deletion"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Cards.Validate(); err != nil {
		return err
	}
	if err := c.Deletion.Validate(); err != nil {
		return err
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CardsConfig controls how cards are derived from notes.
type CardsConfig struct {
	// ImageProperties lists frontmatter property names checked, in order,
	// for a card's cover image.
	ImageProperties []string `yaml:"image_properties"`
	// DescriptionProperty, when present on a note, replaces the
	// body-derived preview text.
	DescriptionProperty string `yaml:"description_property"`
}

// Validate validates the cards configuration.
func (c *CardsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ImageProperties, validation.Required, validation.Length(1, 0)),
	)
}

// DeletionConfig controls smart deletion behavior.
type DeletionConfig struct {
	// IndexFilename is the extension-less basename that marks a note as
	// its folder's index note (e.g. "index").
	IndexFilename string `yaml:"index_filename"`
	// DeleteParentFolder deletes the containing folder when an index note
	// is deleted.
	DeleteParentFolder bool `yaml:"delete_parent_folder"`
	// DeleteUniqueAttachments deletes attachments referenced only by the
	// notes being deleted.
	DeleteUniqueAttachments bool `yaml:"delete_unique_attachments"`
}

// Validate validates the deletion configuration.
func (c *DeletionConfig) Validate() error {
	if c.DeleteParentFolder && c.IndexFilename == "" {
		return fmt.Errorf("deletion: delete_parent_folder requires index_filename")
	}
	return nil
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
	// Normalise empty mode to "disabled" for backward compatibility.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./cardbase.db",
		},
		Cards: CardsConfig{
			ImageProperties:     []string{"image", "cover", "banner"},
			DescriptionProperty: "description",
		},
		Deletion: DeletionConfig{
			IndexFilename:           "index",
			DeleteParentFolder:      true,
			DeleteUniqueAttachments: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
