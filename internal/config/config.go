// Package config handles workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Workspace layout constants.
const (
	CitegraphDir = ".citegraph"
	ConfigFile   = "config.yaml"
	DBFile       = "papers.db"
)

// Config is the workspace configuration stored in .citegraph/config.yaml.
type Config struct {
	// APIBaseURL overrides the Semantic Scholar endpoint (for mirrors
	// and testing). Empty means the public API.
	APIBaseURL string `yaml:"api_base_url,omitempty"`
	// APIKey authenticates against the API. The CITEGRAPH_API_KEY
	// environment variable takes precedence.
	APIKey string `yaml:"api_key,omitempty"`

	// RateLimit and RateWindow configure the fixed-window client quota.
	RateLimit  int           `yaml:"rate_limit,omitempty"`
	RateWindow time.Duration `yaml:"rate_window,omitempty"`

	// FetchDelay spaces remote fetches during tree expansion.
	FetchDelay time.Duration `yaml:"fetch_delay,omitempty"`

	// Tree expansion defaults.
	MaxDepth            int `yaml:"max_depth,omitempty"`
	MaxBranchesPerLevel int `yaml:"max_branches_per_level,omitempty"`

	// ListenAddr is the serve command's bind address.
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// Default returns the configuration written by `citegraph init`.
func Default() *Config {
	return &Config{
		RateLimit:           100,
		RateWindow:          5 * time.Minute,
		FetchDelay:          200 * time.Millisecond,
		MaxDepth:            5,
		MaxBranchesPerLevel: 5,
		ListenAddr:          ":8080",
	}
}

// CitegraphPath returns the path to the .citegraph directory from a root.
func CitegraphPath(root string) string {
	return filepath.Join(root, CitegraphDir)
}

// ConfigPath returns the path to config.yaml from a root.
func ConfigPath(root string) string {
	return filepath.Join(root, CitegraphDir, ConfigFile)
}

// DBPath returns the path to the papers database from a root.
func DBPath(root string) string {
	return filepath.Join(root, CitegraphDir, DBFile)
}

// IsWorkspace checks if the given path contains a citegraph workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(CitegraphPath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a citegraph
// workspace. Returns the workspace root or an error if none is found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a citegraph workspace (no %s directory found)", CitegraphDir)
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root, filling
// any unset fields with defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ResolveAPIKey returns the effective API key: environment first, then
// the config file.
func (c *Config) ResolveAPIKey() string {
	if key := os.Getenv("CITEGRAPH_API_KEY"); key != "" {
		return key
	}
	return c.APIKey
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.RateLimit <= 0 {
		c.RateLimit = d.RateLimit
	}
	if c.RateWindow <= 0 {
		c.RateWindow = d.RateWindow
	}
	if c.FetchDelay <= 0 {
		c.FetchDelay = d.FetchDelay
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxBranchesPerLevel <= 0 {
		c.MaxBranchesPerLevel = d.MaxBranchesPerLevel
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
}
