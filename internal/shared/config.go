package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	PacingFixed       = "fixed"
	PacingTokenBucket = "token_bucket"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Reorder     ReorderConfig     `toml:"reorder"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the last saved token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// Update stores token in the credentials. A token without a refresh token keeps the saved one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", ErrInvalidArgument)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.Expiry = token.Expiry
	return nil
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ReorderConfig controls which playlists are reordered and how fast tracks are re-added.
type ReorderConfig struct {
	Exclude     []string `toml:"exclude"`
	BackupDir   string   `toml:"backup_dir"`
	Pacing      string   `toml:"pacing"`
	Delay       Duration `toml:"delay"`
	Rate        float64  `toml:"rate"`
	Concurrency int      `toml:"concurrency"`
}

// Duration wraps time.Duration so it can be written as "1s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// IsExcluded reports whether a playlist with the given name must be skipped.
func (r ReorderConfig) IsExcluded(name string) bool {
	for _, e := range r.Exclude {
		if e == name {
			return true
		}
	}
	return false
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
// Missing reorder settings fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Reorder.Exclude = nil

	md, err := toml.Decode(string(data), config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if !md.IsDefined("reorder", "exclude") {
		config.Reorder.Exclude = DefaultConfig().Reorder.Exclude
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig writes config to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ApplyEnv loads envFile (if present) and overrides Spotify credentials from the environment.
//
// Both CLIENT_ID and SPOTIFY_CLIENT_ID style names are honored; the prefixed form wins.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	for _, v := range []struct {
		dst   *string
		names []string
	}{
		{&c.Credentials.Spotify.ClientID, []string{"CLIENT_ID", "SPOTIFY_CLIENT_ID", "SPOTIFY_ID"}},
		{&c.Credentials.Spotify.ClientSecret, []string{"CLIENT_SECRET", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_SECRET"}},
		{&c.Credentials.Spotify.RedirectURI, []string{"REDIRECT_URI", "SPOTIFY_REDIRECT_URI"}},
	} {
		for _, name := range v.names {
			if val := os.Getenv(name); val != "" {
				*v.dst = val
			}
		}
	}
	return nil
}

// Validate checks that credentials are present and reorder settings are usable.
func (c *Config) Validate() error {
	s := c.Credentials.Spotify
	switch {
	case s.ClientID == "" || s.ClientID == "your_spotify_client_id":
		return fmt.Errorf("%w: spotify client_id", ErrMissingCredentials)
	case s.ClientSecret == "" || s.ClientSecret == "your_spotify_client_secret":
		return fmt.Errorf("%w: spotify client_secret", ErrMissingCredentials)
	}

	r := c.Reorder
	switch r.Pacing {
	case "", PacingFixed:
		if r.Delay.Duration < 0 {
			return fmt.Errorf("%w: reorder.delay must not be negative", ErrInvalidConfig)
		}
	case PacingTokenBucket:
		if r.Rate <= 0 {
			return fmt.Errorf("%w: reorder.rate must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown reorder.pacing %q", ErrInvalidConfig, r.Pacing)
	}

	if r.Concurrency < 0 {
		return fmt.Errorf("%w: reorder.concurrency must not be negative", ErrInvalidConfig)
	}
	return nil
}
