package pom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
)

const (
	DefaultMavenRepoURL = "https://repo1.maven.org/maven2"
	EnvMavenRepoURL     = "DEW_REPOSITORY"
	EnvLocalRepository  = "DEW_LOCAL_REPOSITORY"
)

var log = commonlog.GetLogger("dew.pom")

type MavenFetcher struct {
	RepoURL string
	// LocalRepository is consulted before RepoURL. Empty disables it.
	LocalRepository string
	httpClient      *http.Client
}

// NewMavenFetcher reads the repository locations from the environment,
// falling back to Maven Central and ~/.m2/repository.
func NewMavenFetcher() *MavenFetcher {
	repoURL := os.Getenv(EnvMavenRepoURL)
	if repoURL == "" {
		repoURL = DefaultMavenRepoURL
	}
	local := os.Getenv(EnvLocalRepository)
	if local == "" {
		local = DefaultLocalRepository()
	}
	return NewFetcher(repoURL, local, nil)
}

func NewFetcher(repoURL, localRepository string, client *http.Client) *MavenFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &MavenFetcher{
		RepoURL:         strings.TrimSuffix(repoURL, "/"),
		LocalRepository: localRepository,
		httpClient:      client,
	}
}

// DefaultLocalRepository is ~/.m2/repository, or "" without a home dir.
func DefaultLocalRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".m2", "repository")
}

func (f *MavenFetcher) JarURL(c Coordinates) string {
	return f.RepoURL + "/" + c.Path()
}

// LocalPath is where the jar lives in the local repository.
func (f *MavenFetcher) LocalPath(c Coordinates) string {
	if f.LocalRepository == "" {
		return ""
	}
	return filepath.Join(f.LocalRepository, filepath.FromSlash(c.Path()))
}

// FetchJar returns the bytes of the jar for c, reading the local
// repository first.
func (f *MavenFetcher) FetchJar(ctx context.Context, c Coordinates) ([]byte, error) {
	if p := f.LocalPath(c); p != "" {
		data, err := os.ReadFile(p)
		if err == nil {
			log.Debug("jar from local repository", "coordinates", c.String(), "path", p)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}

	url := f.JarURL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download JAR: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download JAR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download JAR: HTTP %d for %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read JAR: %w", err)
	}
	log.Info("downloaded jar", "coordinates", c.String(), "bytes", len(data))
	return data, nil
}
