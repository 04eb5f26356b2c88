package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mchmarny/geocidr/pkg/table"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the default config file location.
	EnvConfigPath = "GEOCIDR_CONFIG"

	appDirName     = ".geocidr"
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

var iso2Regex = regexp.MustCompile(`^[A-Z]{2}$`)

// Config represents the converter configuration.
type Config struct {
	// Scores maps ISO2 country codes to scores. Unmapped countries are dropped.
	Scores map[string]int `yaml:"scores"`
	// Additional blocks are appended to the output as is, after the fixed loopback block.
	Additional []table.Block `yaml:"additional"`
	LogLevel   string        `yaml:"log_level,omitempty"`
	Progress   bool          `yaml:"progress,omitempty"`
	SQLitePath string        `yaml:"sqlite_path,omitempty"`
}

// Extra returns the fixed blocks followed by the configured additional ones.
func (c *Config) Extra() []table.Block {
	return append(table.FixedBlocks(), c.Additional...)
}

// Mapping returns the score table used to resolve country codes.
func (c *Config) Mapping() table.Mapping {
	return table.Mapping(c.Scores)
}

// Validate checks the score keys and additional blocks.
func (c *Config) Validate() error {
	for code := range c.Scores {
		if !iso2Regex.MatchString(code) {
			return fmt.Errorf("invalid country code %q: expected two upper-case letters", code)
		}
		if !IsKnownCountry(code) {
			slog.Warn("unknown country code in scores", "code", code)
		}
	}
	for i, b := range c.Additional {
		if strings.TrimSpace(b.Address) == "" || strings.TrimSpace(b.Suffix) == "" {
			return fmt.Errorf("additional block %d: address and suffix required", i)
		}
	}
	return nil
}

// Default returns the config written on first run.
func Default() *Config {
	return &Config{
		Scores:     map[string]int{},
		Additional: []table.Block{},
		LogLevel:   "info",
	}
}

// Save writes c to path.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file: %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := &Config{}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	if c.Scores == nil {
		c.Scores = map[string]int{}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// ReadOrCreate reads the config at path, writing the default one first if it does not exist.
func ReadOrCreate(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return Load(path)
}

// GetPath returns the config file path: $GEOCIDR_CONFIG if set,
// otherwise config.yaml in the app directory under the user's home.
func GetPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	dir, _, err := GetOrCreateHomeDir(appDirName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetOrCreateHomeDir returns the named directory under the current user's home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir: %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
