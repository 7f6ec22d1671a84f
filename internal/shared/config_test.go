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

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}
		if config.Acquisition.PreferredFormat != "flac" {
			t.Errorf("expected preferred format flac, got %s", config.Acquisition.PreferredFormat)
		}
		if config.Acquisition.FallbackFormat != "mp3" || config.Acquisition.FallbackBitrate != "320k" {
			t.Errorf("expected fallback mp3 at 320k, got %s at %s", config.Acquisition.FallbackFormat, config.Acquisition.FallbackBitrate)
		}
		if config.Acquisition.Retries != 2 {
			t.Errorf("expected 2 retries, got %d", config.Acquisition.Retries)
		}
		if config.Transcode.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", config.Transcode.Workers)
		}
		if config.Paths.BaseDir == "" {
			t.Error("expected base dir to be filled in")
		}
		if filepath.Base(config.Paths.LogFile) != "download_log.txt" {
			t.Errorf("expected log file download_log.txt, got %s", config.Paths.LogFile)
		}
		if filepath.Dir(config.Paths.LogFile) != config.Paths.BaseDir {
			t.Errorf("expected log file inside base dir, got %s", config.Paths.LogFile)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "spotdown", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Transcode.FormatLabel != DefaultConfig().Transcode.FormatLabel {
			t.Errorf("created config format label doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("overrides defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			testConfig := `[paths]
base_dir = "/music/downloads"

[acquisition]
retries = 4
backoff_seconds = 0.5

[transcode]
workers = 3

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
			if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Paths.BaseDir != "/music/downloads" {
				t.Errorf("expected base dir /music/downloads, got %s", config.Paths.BaseDir)
			}
			if config.Paths.LogFile != "/music/downloads/download_log.txt" {
				t.Errorf("expected log file under base dir, got %s", config.Paths.LogFile)
			}
			if config.Acquisition.Retries != 4 {
				t.Errorf("expected 4 retries, got %d", config.Acquisition.Retries)
			}
			if config.Acquisition.BackoffUnit() != 500*time.Millisecond {
				t.Errorf("expected 500ms backoff unit, got %v", config.Acquisition.BackoffUnit())
			}
			if config.Transcode.Workers != 3 {
				t.Errorf("expected 3 workers, got %d", config.Transcode.Workers)
			}
			if config.Acquisition.Tool != "spotdl" {
				t.Errorf("expected default tool spotdl, got %s", config.Acquisition.Tool)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("invalid toml", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte("[paths\nbase_dir ="), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if _, err := LoadConfig(configPath); err == nil {
				t.Error("expected parse error")
			}
		})
	})

	t.Run("SaveConfig round trips tokens", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		if err := config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}); err != nil {
			t.Fatalf("failed to update token: %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		token := loaded.Credentials.Spotify.Token()
		if token == nil {
			t.Fatal("expected token to be loaded")
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "empty tool", mutate: func(c *Config) { c.Acquisition.Tool = "" }},
			{name: "negative retries", mutate: func(c *Config) { c.Acquisition.Retries = -1 }},
			{name: "too many retries", mutate: func(c *Config) { c.Acquisition.Retries = MaxRetries + 1 }},
			{name: "zero workers", mutate: func(c *Config) { c.Transcode.Workers = 0 }},
			{name: "empty engine", mutate: func(c *Config) { c.Transcode.Engine = "" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}

		t.Run("retries at the limit", func(t *testing.T) {
			config := DefaultConfig()
			config.Acquisition.Retries = MaxRetries
			if err := config.Validate(); err != nil {
				t.Errorf("expected %d retries to be valid, got %v", MaxRetries, err)
			}
		})
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Token is nil without grant", func(t *testing.T) {
		if tok := (SpotifyConfig{ClientID: "id"}).Token(); tok != nil {
			t.Errorf("expected nil token, got %+v", tok)
		}
	})

	t.Run("Update keeps refresh token when absent", func(t *testing.T) {
		sc := SpotifyConfig{RefreshToken: "old_refresh"}
		if err := sc.Update(&oauth2.Token{AccessToken: "new_access"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sc.RefreshToken != "old_refresh" {
			t.Errorf("expected refresh token to be kept, got %s", sc.RefreshToken)
		}
		if sc.AccessToken != "new_access" {
			t.Errorf("expected access token to be updated, got %s", sc.AccessToken)
		}
	})

	t.Run("Update rejects nil", func(t *testing.T) {
		var sc SpotifyConfig
		if err := sc.Update(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Map", func(t *testing.T) {
		m := SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "uri"}.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "uri" {
			t.Errorf("unexpected map %v", m)
		}
	})
}
