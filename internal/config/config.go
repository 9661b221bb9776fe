// Package config loads the tscat project file and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

const DefaultFile = "tscat.yaml"

// Project describes where a project keeps its sources and catalogs. Values come
// from tscat.yaml, then TSCAT_* variables; command flags override both.
type Project struct {
	SourceDirs      []string `yaml:"source_dirs" env:"TSCAT_SOURCE_DIRS" envSeparator:","`
	TranslationsDir string   `yaml:"translations_dir" env:"TSCAT_TRANSLATIONS_DIR"`
	SourceLanguage  string   `yaml:"source_language" env:"TSCAT_SOURCE_LANGUAGE"`
	Languages       []string `yaml:"languages" env:"TSCAT_LANGUAGES" envSeparator:","`
	Template        string   `yaml:"template" env:"TSCAT_TEMPLATE"`
	MemoryDB        string   `yaml:"memory_db" env:"TSCAT_MEMORY_DB"`
	NoObsolete      bool     `yaml:"no_obsolete" env:"TSCAT_NO_OBSOLETE"`
	SameText        bool     `yaml:"same_text" env:"TSCAT_SAME_TEXT"`
}

func defaults() Project {
	return Project{
		SourceDirs:      []string{"."},
		TranslationsDir: "translations",
		SourceLanguage:  "en",
	}
}

// Load reads path (DefaultFile when empty) and applies the environment on top.
// A missing DefaultFile is not an error; a missing explicit path is.
func Load(path string) (Project, error) {
	p := defaults()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(data, &p); err != nil {
			return Project{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Project{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := ParseEnv(&p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
