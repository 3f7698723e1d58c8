// Package config holds all build configuration, resolved once at startup.
// Environment-derived defaults (hosting-platform repository identity) are
// applied through an explicit step instead of being read ad hoc.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scadworks/scad2web/internal/fonts"
	"github.com/scadworks/scad2web/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidWorkers  = errors.New("workers must not be negative")
)

// Named defaults used when neither flags, config file, nor environment
// provide a value.
const (
	DefaultProjectName  = "PROJECT"
	DefaultProjectURI   = "https://example.com/"
	DefaultExportPrefix = "openscad-export"
	DefaultOutputDir    = "out"
	DefaultServerURL    = "https://github.com"
)

// Config holds all configuration for one build invocation.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Output  OutputConfig  `yaml:"output"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Fonts   FontsConfig   `yaml:"fonts"`
	Workers int           `yaml:"workers"` // concurrent compiler invocations (0 = auto)
}

// ProjectConfig identifies the project on generated pages.
type ProjectConfig struct {
	Name         string `yaml:"name"`
	URI          string `yaml:"uri"`
	ExportPrefix string `yaml:"exportPrefix"`
}

// OutputConfig defines where and how artifacts are written.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	CleanURLs bool   `yaml:"cleanUrls"` // links omit the .html extension
}

// RuntimeConfig locates the OpenSCAD WebAssembly distribution.
type RuntimeConfig struct {
	Dist string `yaml:"dist"` // directory or .zip archive
}

// FontsConfig selects the bundled font source.
type FontsConfig struct {
	Source string `yaml:"source"` // auto, embedded-runtime, host-system
}

// DefaultConfig returns the neutral configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Dir: DefaultOutputDir},
		Fonts:  FontsConfig{Source: string(fonts.ModeAuto)},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if _, err := fonts.ParseMode(c.Fonts.Source); err != nil {
		return err
	}
	return nil
}

// ApplyEnv fills still-empty project fields from the hosting platform's
// environment, falling back to the named defaults. Fallback rules per
// field: present env value, use it; absent, use the default.
func (c *Config) ApplyEnv(getenv func(string) string) {
	repo := getenv("GITHUB_REPOSITORY")
	repoName := repo
	if i := strings.Index(repo, "/"); i >= 0 {
		repoName = repo[i+1:]
	}

	serverURL := getenv("GITHUB_SERVER_URL")
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	if c.Project.Name == "" {
		c.Project.Name = fallback(repoName, DefaultProjectName)
	}
	if c.Project.URI == "" {
		if repo != "" {
			c.Project.URI = serverURL + "/" + repo
		} else {
			c.Project.URI = DefaultProjectURI
		}
	}
	if c.Project.ExportPrefix == "" {
		c.Project.ExportPrefix = fallback(repoName, DefaultExportPrefix)
	}
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

// LoadConfig loads configuration from a file path or config name.
// A string containing a path separator is treated as a file path;
// otherwise it is searched as a name in standard locations.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name, trying .yaml then
// .yml, first in the current directory and then in the user config dir.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		tried = append(tried, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "scad2web", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
