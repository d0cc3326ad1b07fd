// Package config loads dew.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/pom"
)

var log = commonlog.GetLogger("dew.config")

// FileName is looked up in the working directory when no path is given.
const FileName = "dew.toml"

const (
	DefaultAddr = ":8080"
	EnvAddr     = "DEW_ADDR"
)

type Config struct {
	Repository      string   `toml:"repository"`
	LocalRepository string   `toml:"local-repository"`
	Classpath       []string `toml:"classpath"`
	Addr            string   `toml:"addr"`
}

func Default() *Config {
	return &Config{
		Repository:      pom.DefaultMavenRepoURL,
		LocalRepository: pom.DefaultLocalRepository(),
		Classpath:       []string{env.DefaultClasspath},
		Addr:            DefaultAddr,
	}
}

// Load reads the file at path over the defaults and applies the
// environment overrides. An empty path reads dew.toml from the working
// directory if there is one.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Debug("loaded config", "path", path)
	case !explicit && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	cfg.LocalRepository = expandHome(cfg.LocalRepository)
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	for _, coord := range c.Classpath {
		if _, err := pom.ParseCoordinate(coord); err != nil {
			return fmt.Errorf("classpath: %w", err)
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(pom.EnvMavenRepoURL); v != "" {
		c.Repository = v
	}
	if v := getenv(pom.EnvLocalRepository); v != "" {
		c.LocalRepository = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Addr = v
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func (c *Config) Fetcher() *pom.MavenFetcher {
	return pom.NewFetcher(c.Repository, c.LocalRepository, nil)
}

// Environments returns a constructor of environments that all share one
// archive cache backed by the configured repositories.
func (c *Config) Environments() func() *env.Environment {
	cache := env.NewArchiveCache(c.Fetcher())
	classpath := append([]string(nil), c.Classpath...)
	return func() *env.Environment {
		return env.New(env.WithArchiveCache(cache), env.WithClasspath(classpath...))
	}
}
