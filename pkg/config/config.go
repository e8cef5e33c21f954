// Package config loads the optional rasm.yaml project file. Command line
// flags override its values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/raymyers/rasm/pkg/asm"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no file is given
const DefaultFile = "rasm.yaml"

// Config holds the project settings
type Config struct {
	// Dialect is "auto", "gnu" or "native". auto picks GNU for .S, .s
	// and .sx inputs and native otherwise.
	Dialect string `yaml:"dialect"`
	// Indent is written before every instruction
	Indent  string            `yaml:"indent"`
	Defines map[string]string `yaml:"defines"`
}

// Default returns the settings used without a config file
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "auto"
	}
	if c.Indent == "" {
		c.Indent = "\t"
	}
	if c.Defines == nil {
		c.Defines = make(map[string]string)
	}
}

// Load reads the config at path. A missing DefaultFile is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a config document
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the dialect name
func (c *Config) Validate() error {
	if c.Dialect == "auto" {
		return nil
	}
	_, err := asm.ParseDialect(c.Dialect)
	return err
}

// DialectFor resolves the configured dialect for an input file
func (c *Config) DialectFor(path string) (asm.Dialect, error) {
	if c.Dialect == "" || c.Dialect == "auto" {
		return asm.DialectForFile(path), nil
	}
	return asm.ParseDialect(c.Dialect)
}

// DefineNames returns the names of the defines in a stable order
func (c *Config) DefineNames() []string {
	names := make([]string, 0, len(c.Defines))
	for name := range c.Defines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
