package internal

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yonagi/kiroku/internal/discord"
	"github.com/yonagi/kiroku/internal/notion"
	"github.com/yonagi/kiroku/internal/urlrule"
	"github.com/yonagi/kiroku/internal/wol"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Discord DiscordConfig     `yaml:"discord"`
	Notion  NotionConfig      `yaml:"notion"`
	Diary   DiaryConfig       `yaml:"diary"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Status  StatusConfig      `yaml:"status"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Discord.Validate(); err != nil {
		return err
	}
	if err := c.Notion.Validate(); err != nil {
		return err
	}
	if err := c.Diary.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Status.Validate(); err != nil {
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

// ServerConfig describes a single managed server for status checks and
// Wake-on-LAN.
type ServerConfig struct {
	Name        string `yaml:"name"`
	MAC         string `yaml:"mac"`
	IP          string `yaml:"ip"`
	Description string `yaml:"description"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.MAC, validation.Required),
		validation.Field(&c.IP, validation.Required),
	); err != nil {
		return err
	}
	if _, err := net.ParseMAC(c.MAC); err != nil {
		return fmt.Errorf("server %q: invalid mac address %q", c.Name, c.MAC)
	}
	return nil
}

// DiscordConfig holds the Discord bot configuration.
type DiscordConfig struct {
	Token           string         `yaml:"token"`
	DiaryChannelID  string         `yaml:"diary_channel_id"`
	StatusChannelID string         `yaml:"status_channel_id"`
	Admins          []string       `yaml:"admins"`
	Servers         []ServerConfig `yaml:"servers"`
}

// Validate validates the Discord configuration.
func (c *DiscordConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.DiaryChannelID, validation.Required),
	); err != nil {
		return err
	}
	for i := range c.Servers {
		if err := c.Servers[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NotionConfig holds the Notion API configuration.
type NotionConfig struct {
	Token         string               `yaml:"token"`
	DatabaseID    string               `yaml:"database_id"`
	TitleProperty string               `yaml:"title_property"`
	Tags          []notion.TagProperty `yaml:"tags"`
	Timeout       time.Duration        `yaml:"timeout"`
}

// Validate validates the Notion configuration.
func (c *NotionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.DatabaseID, validation.Required),
	)
}

// OGPConfig controls Open Graph caption fetching for bookmark blocks.
type OGPConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// DiaryConfig holds diary synchronization configuration.
type DiaryConfig struct {
	Timezone         string               `yaml:"timezone"`
	DefaultConvertTo []string             `yaml:"default_convert_to"`
	URLRules         []urlrule.RuleConfig `yaml:"url_rules"`
	OGP              OGPConfig            `yaml:"ogp"`
}

// Validate validates the diary configuration.
func (c *DiaryConfig) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("diary: invalid timezone %q: %w", c.Timezone, err)
		}
	}
	for i := range c.URLRules {
		if n := c.URLRules[i].PatternKinds(); n != 1 {
			return fmt.Errorf("diary: url rule %d must define exactly one of glob, regex or prefix (got %d)", i, n)
		}
	}
	return nil
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

// StatusConfig holds server status monitoring configuration.
type StatusConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
	Broadcast string        `yaml:"broadcast"`
}

// Validate validates the status monitoring configuration.
func (c *StatusConfig) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("status: interval must not be negative")
	}
	return nil
}

// AuthConfig holds authentication configuration for the read API.
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

// BotConfig converts the Discord section into the bot's runtime config.
func (c *DiscordConfig) BotConfig(broadcast string) discord.Config {
	servers := make([]discord.Server, len(c.Servers))
	for i, s := range c.Servers {
		servers[i] = discord.Server{
			Name:        s.Name,
			MAC:         s.MAC,
			IP:          s.IP,
			Description: s.Description,
		}
	}
	if broadcast == "" {
		broadcast = wol.DefaultBroadcast
	}
	return discord.Config{
		Token:           c.Token,
		DiaryChannelID:  c.DiaryChannelID,
		StatusChannelID: c.StatusChannelID,
		Admins:          c.Admins,
		Servers:         servers,
		Broadcast:       broadcast,
	}
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
		Notion: NotionConfig{
			TitleProperty: "Name",
		},
		Diary: DiaryConfig{
			Timezone:         "Asia/Tokyo",
			DefaultConvertTo: []string{"bookmark"},
			OGP: OGPConfig{
				Enabled: true,
				Timeout: 5 * time.Second,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./kiroku.db",
		},
		Status: StatusConfig{
			Interval: time.Minute,
			Timeout:  5 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
