package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "spotdown"

// Config represents the application configuration loaded from a TOML file.
//
// A Config is built once at startup; components receive copies of the sections they need.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Paths       PathsConfig       `toml:"paths"`
	Acquisition AcquisitionConfig `toml:"acquisition"`
	Transcode   TranscodeConfig   `toml:"transcode"`
	Artwork     ArtworkConfig     `toml:"artwork"`
	Catalog     CatalogConfig     `toml:"catalog"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the user-delegated token, if one has been granted.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PathsConfig locates the download tree and the run log.
//
// Empty values are filled in by [Config.ApplyDefaults].
type PathsConfig struct {
	BaseDir string `toml:"base_dir"`
	LogFile string `toml:"log_file"`
}

// MaxRetries bounds acquisition.retries so the exponential backoff stays representable.
const MaxRetries = 30

// AcquisitionConfig drives the external download tool.
type AcquisitionConfig struct {
	Tool            string  `toml:"tool"`
	PreferredFormat string  `toml:"preferred_format"`
	FallbackFormat  string  `toml:"fallback_format"`
	FallbackBitrate string  `toml:"fallback_bitrate"`
	Retries         int     `toml:"retries"`
	BackoffSeconds  float64 `toml:"backoff_seconds"`
	Threads         int     `toml:"threads"`
}

// TranscodeConfig drives the external transcoding engine.
type TranscodeConfig struct {
	Engine        string `toml:"engine"`
	Extension     string `toml:"extension"`
	Bitrate       string `toml:"bitrate"`
	Workers       int    `toml:"workers"`
	HardwareCodec string `toml:"hardware_codec"`
	SoftwareCodec string `toml:"software_codec"`
	FormatLabel   string `toml:"format_label"`
}

// ArtworkConfig controls cover art retrieval.
//
// MaxSize of zero keeps the original dimensions.
type ArtworkConfig struct {
	Enabled bool `toml:"enabled"`
	MaxSize int  `toml:"max_size"`
}

// CatalogConfig contains Spotify Web API endpoints and request pacing.
type CatalogConfig struct {
	APIBaseURL        string  `toml:"api_base_url"`
	AuthURL           string  `toml:"auth_url"`
	TokenURL          string  `toml:"token_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	LikedLimit        int     `toml:"liked_limit"`
}

// BackoffUnit converts the configured backoff seconds into a [time.Duration].
func (a AcquisitionConfig) BackoffUnit() time.Duration {
	return time.Duration(a.BackoffSeconds * float64(time.Second))
}

// Map returns the Spotify credentials as a string map, used when constructing OAuth2 configs.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token returns the stored user token, or nil when no user authorization has been granted.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Update stores token in the credentials. An empty refresh token keeps the previous one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidArgument)
	}

	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenType = token.TokenType
	s.Expiry = token.Expiry
	return nil
}

// ApplyDefaults fills empty paths from the user's home directory and expands a leading "~/".
func (c *Config) ApplyDefaults() {
	if c.Paths.BaseDir == "" {
		c.Paths.BaseDir = filepath.Join(xdg.Home, "SpotifyDownloads")
	}
	c.Paths.BaseDir = expandHome(c.Paths.BaseDir)

	if c.Paths.LogFile == "" {
		c.Paths.LogFile = filepath.Join(c.Paths.BaseDir, "download_log.txt")
	}
	c.Paths.LogFile = expandHome(c.Paths.LogFile)
}

// Validate reports configuration values the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Acquisition.Tool == "":
		return fmt.Errorf("%w: acquisition.tool is empty", ErrInvalidConfig)
	case c.Acquisition.PreferredFormat == "":
		return fmt.Errorf("%w: acquisition.preferred_format is empty", ErrInvalidConfig)
	case c.Acquisition.Retries < 0:
		return fmt.Errorf("%w: acquisition.retries must not be negative", ErrInvalidConfig)
	case c.Acquisition.Retries > MaxRetries:
		return fmt.Errorf("%w: acquisition.retries must be at most %d", ErrInvalidConfig, MaxRetries)
	case c.Acquisition.BackoffSeconds < 0:
		return fmt.Errorf("%w: acquisition.backoff_seconds must not be negative", ErrInvalidConfig)
	case c.Transcode.Engine == "":
		return fmt.Errorf("%w: transcode.engine is empty", ErrInvalidConfig)
	case c.Transcode.Workers < 1:
		return fmt.Errorf("%w: transcode.workers must be at least 1", ErrInvalidConfig)
	case c.Transcode.Extension == "":
		return fmt.Errorf("%w: transcode.extension is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := exampleConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.ApplyDefaults()

	return config, nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	config := exampleConfig()
	config.ApplyDefaults()
	return config
}

func exampleConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// DefaultConfigPath returns the config file location under the XDG config home.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// DefaultStatePath returns the path of a file named name under the XDG state home.
func DefaultStatePath(name string) string {
	return filepath.Join(xdg.StateHome, appName, name)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if path == "~" {
		return xdg.Home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(xdg.Home, path[2:])
	}
	return path
}
