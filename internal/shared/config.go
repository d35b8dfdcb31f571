package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Users       UsersConfig       `toml:"users"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YouTubeConfig contains settings for the YouTube Music search proxy.
type YouTubeConfig struct {
	ProxyURL        string  `toml:"proxy_url"`
	HeadersPath     string  `toml:"headers_path"`
	SearchRateLimit float64 `toml:"search_rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string  `toml:"host"`
	Port              int     `toml:"port"`
	BroadcastInterval float64 `toml:"broadcast_interval"`
}

// DownloadsConfig contains queue and media fetch settings.
type DownloadsConfig struct {
	DownloadRoot  string  `toml:"download_root"`
	ConfigRoot    string  `toml:"config_root"`
	ThreadLimit   int     `toml:"thread_limit"`
	SleepInterval float64 `toml:"sleep_interval"`
	FFmpegPath    string  `toml:"ffmpeg_path"`
	AudioFormat   string  `toml:"audio_format"`
}

// UsersConfig is the allow-list of user ids that may connect.
type UsersConfig struct {
	Allowed []string `toml:"allowed"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// ApplyEnv overrides config values from the process environment.
//
// Recognised variables: SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, USERS (comma separated),
// thread_limit, SLEEP_INTERVAL, FFMPEG_PATH, YTMUSIC_PROXY_URL and LOG_LEVEL.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getenv("YTMUSIC_PROXY_URL"); v != "" {
		c.Credentials.YouTube.ProxyURL = v
	}
	if v := getenv("USERS"); v != "" {
		c.Users.Allowed = SplitUsers(v)
	}
	if v := getenv("thread_limit"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: thread_limit=%q", ErrInvalidConfig, v)
		}
		c.Downloads.ThreadLimit = n
	}
	if v := getenv("SLEEP_INTERVAL"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: SLEEP_INTERVAL=%q", ErrInvalidConfig, v)
		}
		c.Downloads.SleepInterval = f
	}
	if v := getenv("FFMPEG_PATH"); v != "" {
		c.Downloads.FFmpegPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the values the queue and server depend on.
func (c *Config) Validate() error {
	if c.Downloads.ThreadLimit < 1 {
		return fmt.Errorf("%w: thread_limit must be at least 1, got %d", ErrInvalidConfig, c.Downloads.ThreadLimit)
	}
	if c.Downloads.SleepInterval < 0 {
		return fmt.Errorf("%w: sleep_interval must not be negative", ErrInvalidConfig)
	}
	if c.Downloads.DownloadRoot == "" || c.Downloads.ConfigRoot == "" {
		return fmt.Errorf("%w: download_root and config_root are required", ErrInvalidConfig)
	}
	if len(c.Users.Allowed) == 0 {
		return fmt.Errorf("%w: at least one user must be allowed", ErrInvalidConfig)
	}
	return nil
}

// IsAllowed reports whether user is on the configured allow-list.
func (c *Config) IsAllowed(user string) bool {
	for _, u := range c.Users.Allowed {
		if u == user {
			return true
		}
	}
	return false
}

// SleepDuration is the pacing delay between successful downloads.
func (c *Config) SleepDuration() time.Duration {
	return seconds(c.Downloads.SleepInterval)
}

// BroadcastDuration is the progress push interval, defaulting to one second.
func (c *Config) BroadcastDuration() time.Duration {
	if c.Server.BroadcastInterval <= 0 {
		return time.Second
	}
	return seconds(c.Server.BroadcastInterval)
}

// SplitUsers parses a comma separated user list, trimming blanks.
func SplitUsers(s string) []string {
	var users []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	return users
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
