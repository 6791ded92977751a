package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/cuemerge/internal/cue"
)

// Config represents the optional cuemerge configuration file.
type Config struct {
	Sectors  map[string]int `toml:"sectors"`
	Theme    ThemeConfig    `toml:"theme"`
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Verify     *bool   `toml:"verify"`
	Workers    *int    `toml:"workers"`
	TUI        *bool   `toml:"tui"`
	Force      *bool   `toml:"force"`
	BWLimit    *string `toml:"bwlimit"`
	LineEnding *string `toml:"line_ending"`
	Naming     *string `toml:"naming"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Blue   *string `toml:"blue"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Teal   *string `toml:"teal"`
	Mauve  *string `toml:"mauve"`
	Muted  *string `toml:"muted"`
	Dim    *string `toml:"dim"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "cuemerge", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields a zero Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	for typ, n := range c.Sectors {
		if n <= 0 {
			return fmt.Errorf("sectors.%s: size must be positive, got %d", typ, n)
		}
	}
	if c.Defaults.Workers != nil && *c.Defaults.Workers < 1 {
		return fmt.Errorf("defaults.workers: must be at least 1, got %d", *c.Defaults.Workers)
	}
	if c.Defaults.BWLimit != nil {
		if _, err := ParseSize(*c.Defaults.BWLimit); err != nil {
			return fmt.Errorf("defaults.bwlimit: %w", err)
		}
	}
	if c.Defaults.LineEnding != nil {
		if _, err := ParseLineEnding(*c.Defaults.LineEnding); err != nil {
			return fmt.Errorf("defaults.line_ending: %w", err)
		}
	}
	return nil
}

// SectorTable returns the default table with the [sectors] entries merged
// over it. Track types are matched case-insensitively.
func (c Config) SectorTable() cue.SectorTable {
	table := cue.DefaultSectorTable()
	for typ, n := range c.Sectors {
		table[strings.ToUpper(typ)] = n
	}
	return table
}

// ParseLineEnding maps "crlf" or "lf" to the cue line terminator.
func ParseLineEnding(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "crlf":
		return cue.CRLF, nil
	case "lf":
		return cue.LF, nil
	default:
		return "", fmt.Errorf("unknown line ending %q (want crlf or lf)", s)
	}
}
