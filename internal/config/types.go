// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrInvalidModulesDir is returned when the modules_dir value is whitespace-only.
	ErrInvalidModulesDir = errors.New("invalid modules dir")
	// ErrInvalidTemplatesDir is returned when the templates_dir value is whitespace-only.
	ErrInvalidTemplatesDir = errors.New("invalid templates dir")
	// ErrInvalidSyntaxCheckTimeout is returned when syntax_check_timeout is zero or negative.
	ErrInvalidSyntaxCheckTimeout = errors.New("invalid syntax check timeout")
)

type (
	// Config is the resolved modkit configuration.
	Config struct {
		// ModulesDir is the module root directory.
		ModulesDir string `mapstructure:"modules_dir"`
		// TemplatesDir is the template root directory.
		TemplatesDir string `mapstructure:"templates_dir"`
		// SyntaxCheckTimeout bounds external interpreter syntax checks.
		SyntaxCheckTimeout time.Duration `mapstructure:"syntax_check_timeout"`
		// Verbose enables debug-level logging.
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no config file exists.
// Directory defaults resolve lazily against the user home at load time.
func DefaultConfig() Config {
	dataDir := defaultDataDir()
	return Config{
		ModulesDir:         filepath.Join(dataDir, "modules"),
		TemplatesDir:       filepath.Join(dataDir, "templates"),
		SyntaxCheckTimeout: 10 * time.Second,
		Verbose:            false,
	}
}

// Validate checks the configuration for values no load path should accept.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModulesDir) == "" {
		return fmt.Errorf("%w: modules_dir must not be empty", ErrInvalidModulesDir)
	}
	if strings.TrimSpace(c.TemplatesDir) == "" {
		return fmt.Errorf("%w: templates_dir must not be empty", ErrInvalidTemplatesDir)
	}
	if c.SyntaxCheckTimeout <= 0 {
		return fmt.Errorf("%w: syntax_check_timeout must be positive, got %s", ErrInvalidSyntaxCheckTimeout, c.SyntaxCheckTimeout)
	}
	return nil
}

// defaultDataDir is ~/.modkit, falling back to the working directory when
// the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, "."+AppName)
}
