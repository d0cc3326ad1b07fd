package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/pom"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{pom.EnvMavenRepoURL, pom.EnvLocalRepository, EnvAddr} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, pom.DefaultMavenRepoURL, cfg.Repository)
	assert.Equal(t, []string{env.DefaultClasspath}, cfg.Classpath)
	assert.Equal(t, DefaultAddr, cfg.Addr)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
repository = "https://repo.example.com/maven2/"
local-repository = "~/m2"
classpath = ["com.example:lib:1.0", "com.example:other:2.0:tests"]
addr = "127.0.0.1:9000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://repo.example.com/maven2/", cfg.Repository)
	assert.Equal(t, filepath.Join(home, "m2"), cfg.LocalRepository)
	assert.Equal(t, []string{"com.example:lib:1.0", "com.example:other:2.0:tests"}, cfg.Classpath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)

	f := cfg.Fetcher()
	assert.Equal(t, "https://repo.example.com/maven2", f.RepoURL)
	assert.Equal(t, filepath.Join(home, "m2"), f.LocalRepository)
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`addr = ":7000"`), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, []string{env.DefaultClasspath}, cfg.Classpath, "unset keys keep their defaults")
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
repository = "https://file.example.com"
addr = ":1"
`)
	t.Setenv(pom.EnvMavenRepoURL, "https://env.example.com")
	t.Setenv(pom.EnvLocalRepository, "/var/m2")
	t.Setenv(EnvAddr, ":2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Repository)
	assert.Equal(t, "/var/m2", cfg.LocalRepository)
	assert.Equal(t, ":2", cfg.Addr)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", `port = 8080`, "unknown keys"},
		{"bad coordinate", `classpath = ["junit:junit"]`, "invalid Maven coordinate"},
		{"syntax", `addr = `, FileName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestEnvironments(t *testing.T) {
	cfg := &Config{Classpath: []string{"com.example:lib:1.0"}}
	newEnv := cfg.Environments()
	a, b := newEnv(), newEnv()
	assert.NotSame(t, a, b)
	assert.Equal(t, []string{"com.example:lib:1.0"}, a.Dependencies())
	assert.Equal(t, []string{"com.example:lib:1.0"}, b.Dependencies())
}
