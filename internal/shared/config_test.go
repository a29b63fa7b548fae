package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./chronolist.db" {
			t.Errorf("expected database path ./chronolist.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Reorder.BackupDir != "./Backups" {
			t.Errorf("expected backup dir ./Backups, got %s", config.Reorder.BackupDir)
		}

		if config.Reorder.Delay.Duration != time.Second {
			t.Errorf("expected delay 1s, got %v", config.Reorder.Delay.Duration)
		}

		if config.Reorder.Concurrency != 1 {
			t.Errorf("expected concurrency 1, got %d", config.Reorder.Concurrency)
		}

		if !config.Reorder.IsExcluded("Mi playlist #40") {
			t.Error("expected default exclusion list to contain Mi playlist #40")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[reorder]
exclude = ["Keep Me", "Archive"]
pacing = "token_bucket"
rate = 5.0
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if len(config.Reorder.Exclude) != 2 || config.Reorder.IsExcluded("Mi playlist #40") {
			t.Errorf("expected exclusion list to be replaced, got %v", config.Reorder.Exclude)
		}

		if config.Reorder.BackupDir != "./Backups" {
			t.Errorf("expected unset backup_dir to keep default, got %s", config.Reorder.BackupDir)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig keeps default exclusions", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server]\nport = 4000\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if !config.Reorder.IsExcluded("Mi playlist #40") {
			t.Errorf("expected default exclusion, got %v", config.Reorder.Exclude)
		}
	})

	t.Run("LoadConfig invalid duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[reorder]\ndelay = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "access"
		config.Credentials.Spotify.RefreshToken = "refresh"
		config.Reorder.Delay = Duration{2 * time.Second}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		if loaded.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("expected refresh token to round trip, got %q", loaded.Credentials.Spotify.RefreshToken)
		}

		if loaded.Reorder.Delay.Duration != 2*time.Second {
			t.Errorf("expected delay 2s, got %v", loaded.Reorder.Delay.Duration)
		}
	})
}

func TestConfigApplyEnv(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CLIENT_ID", "plain-id")
		t.Setenv("SPOTIFY_CLIENT_ID", "")
		t.Setenv("SPOTIFY_ID", "")
		t.Setenv("CLIENT_SECRET", "plain-secret")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "prefixed-secret")
		t.Setenv("SPOTIFY_SECRET", "")
		t.Setenv("REDIRECT_URI", "")
		t.Setenv("SPOTIFY_REDIRECT_URI", "")

		config := DefaultConfig()
		if err := config.ApplyEnv(""); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Credentials.Spotify.ClientID != "plain-id" {
			t.Errorf("expected client id plain-id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "prefixed-secret" {
			t.Errorf("expected prefixed secret to win, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != DefaultConfig().Credentials.Spotify.RedirectURI {
			t.Errorf("expected redirect uri to keep default, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected missing .env to be ignored, got %v", err)
		}
	})

	t.Run("env file values", func(t *testing.T) {
		t.Setenv("CLIENT_ID", "")
		t.Setenv("SPOTIFY_CLIENT_ID", "")
		t.Setenv("SPOTIFY_ID", "")
		os.Unsetenv("SPOTIFY_ID")

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("SPOTIFY_ID=from-file\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Credentials.Spotify.ClientID != "from-file" {
			t.Errorf("expected client id from .env, got %s", config.Credentials.Spotify.ClientID)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Credentials.Spotify.ClientID = "id"
		c.Credentials.Spotify.ClientSecret = "secret"
		return c
	}

	tc := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "placeholder client id", mutate: func(c *Config) { c.Credentials.Spotify.ClientID = "your_spotify_client_id" }, wantErr: ErrMissingCredentials},
		{name: "empty client secret", mutate: func(c *Config) { c.Credentials.Spotify.ClientSecret = "" }, wantErr: ErrMissingCredentials},
		{name: "unknown pacing", mutate: func(c *Config) { c.Reorder.Pacing = "burst" }, wantErr: ErrInvalidConfig},
		{name: "token bucket without rate", mutate: func(c *Config) {
			c.Reorder.Pacing = PacingTokenBucket
			c.Reorder.Rate = 0
		}, wantErr: ErrInvalidConfig},
		{name: "negative concurrency", mutate: func(c *Config) { c.Reorder.Concurrency = -1 }, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpotifyConfigUpdate(t *testing.T) {
	t.Run("stores token fields", func(t *testing.T) {
		s := SpotifyConfig{RefreshToken: "old-refresh"}
		expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		if err := s.Update(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if s.AccessToken != "access" || s.RefreshToken != "refresh" || !s.Expiry.Equal(expiry) {
			t.Errorf("unexpected config %+v", s)
		}
	})

	t.Run("keeps refresh token when absent", func(t *testing.T) {
		s := SpotifyConfig{RefreshToken: "old-refresh"}
		if err := s.Update(&oauth2.Token{AccessToken: "access"}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if s.RefreshToken != "old-refresh" {
			t.Errorf("expected refresh token to be kept, got %q", s.RefreshToken)
		}
	})

	t.Run("nil token", func(t *testing.T) {
		var s SpotifyConfig
		if err := s.Update(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
