package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 5002 {
			t.Errorf("expected server port 5002, got %d", config.Server.Port)
		}
		if config.Downloads.ThreadLimit != 1 {
			t.Errorf("expected thread_limit 1, got %d", config.Downloads.ThreadLimit)
		}
		if config.Downloads.DownloadRoot != "downloads" {
			t.Errorf("expected download_root downloads, got %s", config.Downloads.DownloadRoot)
		}
		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.Credentials.YouTube.ProxyURL)
		}
		if config.SleepDuration() != 0 {
			t.Errorf("expected zero sleep interval, got %v", config.SleepDuration())
		}
		if config.BroadcastDuration() != time.Second {
			t.Errorf("expected one second broadcast interval, got %v", config.BroadcastDuration())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Downloads.ConfigRoot != DefaultConfig().Downloads.ConfigRoot {
			t.Errorf("created config doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[server]
port = 8080

[downloads]
thread_limit = 4
sleep_interval = 1.5

[users]
allowed = ["alice", "bob"]

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

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Downloads.ThreadLimit != 4 {
			t.Errorf("expected thread_limit 4, got %d", config.Downloads.ThreadLimit)
		}
		if config.SleepDuration() != 1500*time.Millisecond {
			t.Errorf("expected 1.5s sleep, got %v", config.SleepDuration())
		}
		if config.Downloads.DownloadRoot != "downloads" {
			t.Errorf("expected default download_root to survive, got %q", config.Downloads.DownloadRoot)
		}
		if !config.IsAllowed("bob") || config.IsAllowed("mallory") {
			t.Errorf("unexpected allow-list %v", config.Users.Allowed)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"SPOTIFY_CLIENT_ID":     "env_id",
			"SPOTIFY_CLIENT_SECRET": "env_secret",
			"USERS":                 " alice, bob ,,carol",
			"thread_limit":          "3",
			"SLEEP_INTERVAL":        "2",
			"FFMPEG_PATH":           "/opt/ffmpeg",
		}
		config := DefaultConfig()
		if err := config.ApplyEnv(func(k string) string { return env[k] }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_id" || config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("spotify credentials not applied: %+v", config.Credentials.Spotify)
		}
		if len(config.Users.Allowed) != 3 || config.Users.Allowed[2] != "carol" {
			t.Errorf("expected three trimmed users, got %v", config.Users.Allowed)
		}
		if config.Downloads.ThreadLimit != 3 {
			t.Errorf("expected thread_limit 3, got %d", config.Downloads.ThreadLimit)
		}
		if config.SleepDuration() != 2*time.Second {
			t.Errorf("expected 2s sleep, got %v", config.SleepDuration())
		}
		if config.Downloads.FFmpegPath != "/opt/ffmpeg" {
			t.Errorf("expected ffmpeg path override, got %s", config.Downloads.FFmpegPath)
		}
	})

	t.Run("ApplyEnv rejects bad numbers", func(t *testing.T) {
		config := DefaultConfig()
		err := config.ApplyEnv(func(k string) string {
			if k == "thread_limit" {
				return "many"
			}
			return ""
		})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*Config)
			wantErr bool
		}{
			{name: "defaults", mutate: func(*Config) {}},
			{name: "zero threads", mutate: func(c *Config) { c.Downloads.ThreadLimit = 0 }, wantErr: true},
			{name: "negative sleep", mutate: func(c *Config) { c.Downloads.SleepInterval = -1 }, wantErr: true},
			{name: "no users", mutate: func(c *Config) { c.Users.Allowed = nil }, wantErr: true},
			{name: "no download root", mutate: func(c *Config) { c.Downloads.DownloadRoot = "" }, wantErr: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				err := config.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})
}
