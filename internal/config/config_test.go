package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Output.Dir != DefaultOutputDir {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, DefaultOutputDir)
	}
	if cfg.Fonts.Source != "auto" {
		t.Errorf("Fonts.Source = %q, want auto", cfg.Fonts.Source)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("negative workers", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Workers = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidWorkers) {
			t.Errorf("got error %v, want ErrInvalidWorkers", err)
		}
	})

	t.Run("unknown font source", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Fonts.Source = "network"
		if err := cfg.Validate(); err == nil {
			t.Error("unknown font source passed validation")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	tests := []struct {
		name       string
		vars       map[string]string
		preset     ProjectConfig
		wantName   string
		wantURI    string
		wantPrefix string
	}{
		{
			name:       "no environment falls back to named defaults",
			vars:       nil,
			wantName:   DefaultProjectName,
			wantURI:    DefaultProjectURI,
			wantPrefix: DefaultExportPrefix,
		},
		{
			name:       "repository fills name, uri, and prefix",
			vars:       map[string]string{"GITHUB_REPOSITORY": "acme/widgets"},
			wantName:   "widgets",
			wantURI:    "https://github.com/acme/widgets",
			wantPrefix: "widgets",
		},
		{
			name: "custom server url",
			vars: map[string]string{
				"GITHUB_REPOSITORY": "acme/widgets",
				"GITHUB_SERVER_URL": "https://git.internal",
			},
			wantName:   "widgets",
			wantURI:    "https://git.internal/acme/widgets",
			wantPrefix: "widgets",
		},
		{
			name:       "explicit values are never overwritten",
			vars:       map[string]string{"GITHUB_REPOSITORY": "acme/widgets"},
			preset:     ProjectConfig{Name: "My Models", URI: "https://models.example/", ExportPrefix: "mm"},
			wantName:   "My Models",
			wantURI:    "https://models.example/",
			wantPrefix: "mm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.Project = tt.preset
			cfg.ApplyEnv(env(tt.vars))

			if cfg.Project.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", cfg.Project.Name, tt.wantName)
			}
			if cfg.Project.URI != tt.wantURI {
				t.Errorf("URI = %q, want %q", cfg.Project.URI, tt.wantURI)
			}
			if cfg.Project.ExportPrefix != tt.wantPrefix {
				t.Errorf("ExportPrefix = %q, want %q", cfg.Project.ExportPrefix, tt.wantPrefix)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "build.yaml")
		content := `
project:
  name: Widgets
  uri: https://widgets.example/
output:
  dir: public
  cleanUrls: true
fonts:
  source: host-system
workers: 4
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Project.Name != "Widgets" {
			t.Errorf("Name = %q, want Widgets", cfg.Project.Name)
		}
		if cfg.Output.Dir != "public" || !cfg.Output.CleanURLs {
			t.Errorf("Output = %+v, want dir public with clean urls", cfg.Output)
		}
		if cfg.Workers != 4 {
			t.Errorf("Workers = %d, want 4", cfg.Workers)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("got error %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("got error %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("projekt:\n  name: typo\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("got error %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid values are rejected on load", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("workers: -2\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidWorkers) {
			t.Errorf("got error %v, want ErrInvalidWorkers", err)
		}
	})
}
