// Host configuration: a nexus.toml file next to the executed script (or in
// any parent directory) tunes engine limits and CLI presentation. The file
// is optional; every field has a default.
package nexus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the file the CLI looks for.
const ConfigFileName = "nexus.toml"

// Config holds host-tunable settings.
type Config struct {
	Limits LimitsConfig `toml:"limits"`
	Output OutputConfig `toml:"output"`
}

type LimitsConfig struct {
	// ReactionTicks caps the ticks of any single reaction. Zero disables
	// the ceiling.
	ReactionTicks int `toml:"reaction_ticks"`
}

type OutputConfig struct {
	Color bool `toml:"color"`
}

// DefaultConfig returns the settings used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{ReactionTicks: DefaultReactionLimit},
		Output: OutputConfig{Color: true},
	}
}

// LoadConfig reads and parses a nexus.toml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Limits.ReactionTicks < 0 {
		return nil, fmt.Errorf("limits.reaction_ticks must not be negative")
	}
	return cfg, nil
}

// ParseConfig parses config text directly; used by tests and embedders that
// carry the settings out of band.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Limits.ReactionTicks < 0 {
		return nil, fmt.Errorf("limits.reaction_ticks must not be negative")
	}
	return cfg, nil
}

// FindConfigFile walks from startPath upward looking for nexus.toml.
// Returns the full path, or "" when no file exists up to the root.
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}
	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Apply transfers the settings onto an interpreter.
func (c *Config) Apply(ip *Interpreter) {
	ip.SetReactionLimit(c.Limits.ReactionTicks)
}
