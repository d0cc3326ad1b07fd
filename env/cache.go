package env

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dhamidi/dew/pom"
)

// Fetcher retrieves the jar for a set of coordinates.
type Fetcher interface {
	FetchJar(ctx context.Context, c pom.Coordinates) ([]byte, error)
}

// ArchiveFetchError reports a classpath dependency that could not be
// fetched or read.
type ArchiveFetchError struct {
	Coordinates string
	Err         error
}

func (e *ArchiveFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Coordinates, e.Err)
}

func (e *ArchiveFetchError) Unwrap() error {
	return e.Err
}

// ArchiveCache holds fetched archives for the lifetime of the process,
// keyed by coordinates. Concurrent requests for the same coordinates
// share one fetch. Failures are not cached: the next request fetches
// again.
type ArchiveCache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu       sync.RWMutex
	archives map[string]*Archive
	fetches  int
}

func NewArchiveCache(f Fetcher) *ArchiveCache {
	return &ArchiveCache{fetcher: f, archives: map[string]*Archive{}}
}

var (
	defaultCacheOnce sync.Once
	defaultCache     *ArchiveCache
)

// DefaultArchiveCache is the process-wide cache backed by the Maven
// repositories named in the environment.
func DefaultArchiveCache() *ArchiveCache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewArchiveCache(pom.NewMavenFetcher())
	})
	return defaultCache
}

// Get returns the archive for coordinates, fetching it on first use.
func (c *ArchiveCache) Get(ctx context.Context, coordinates string) (*Archive, error) {
	c.mu.RLock()
	a, ok := c.archives[coordinates]
	c.mu.RUnlock()
	if ok {
		return a, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &ArchiveFetchError{Coordinates: coordinates, Err: err}
	}

	// A cancelled caller stops waiting. The shared fetch runs on.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(coordinates, func() (interface{}, error) {
		c.mu.RLock()
		a, ok := c.archives[coordinates]
		c.mu.RUnlock()
		if ok {
			return a, nil
		}
		coords, err := pom.ParseCoordinate(coordinates)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.fetches++
		c.mu.Unlock()
		log.Info("fetching archive", "coordinates", coordinates)
		data, err := c.fetcher.FetchJar(fetchCtx, coords)
		if err != nil {
			return nil, err
		}
		a, err = OpenArchive(coordinates, data)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.archives[coordinates] = a
		c.mu.Unlock()
		log.Debug("archive cached", "coordinates", coordinates, "classes", a.Len())
		return a, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			log.Warning("archive fetch failed", "coordinates", coordinates, "error", res.Err)
			return nil, &ArchiveFetchError{Coordinates: coordinates, Err: res.Err}
		}
		return res.Val.(*Archive), nil
	case <-ctx.Done():
		return nil, &ArchiveFetchError{Coordinates: coordinates, Err: ctx.Err()}
	}
}

// Put registers an archive that was obtained by other means.
func (c *ArchiveCache) Put(a *Archive) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archives[a.Coordinates] = a
}

// Fetches counts the fetch attempts made so far.
func (c *ArchiveCache) Fetches() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetches
}
