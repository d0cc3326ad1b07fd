package pom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input string
		want  Coordinates
		err   bool
	}{
		{"junit:junit:4.13", Coordinates{"junit", "junit", "4.13", ""}, false},
		{"org.apidesign.bck2brwsr:emul:0.11:rt", Coordinates{"org.apidesign.bck2brwsr", "emul", "0.11", "rt"}, false},
		{"junit:junit", Coordinates{}, true},
		{"a:b:c:d:e", Coordinates{}, true},
		{"a::c", Coordinates{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestCoordinatesPath(t *testing.T) {
	c, err := ParseCoordinate("org.apidesign.bck2brwsr:emul:0.11:rt")
	require.NoError(t, err)
	assert.Equal(t, "org/apidesign/bck2brwsr/emul/0.11/emul-0.11-rt.jar", c.Path())

	c.Classifier = ""
	assert.Equal(t, "emul-0.11.jar", c.FileName())
}

func TestFetchJarRemote(t *testing.T) {
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write([]byte("PK"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL+"/", "", srv.Client())
	c := Coordinates{GroupID: "com.example", ArtifactID: "lib", Version: "1.0"}
	data, err := f.FetchJar(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)
	assert.Equal(t, "/com/example/lib/1.0/lib-1.0.jar", requested)
}

func TestFetchJarPrefersLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected remote request %s", r.URL.Path)
	}))
	defer srv.Close()

	local := t.TempDir()
	c := Coordinates{GroupID: "com.example", ArtifactID: "lib", Version: "1.0", Classifier: "rt"}
	p := filepath.Join(local, filepath.FromSlash(c.Path()))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("local"), 0o644))

	f := NewFetcher(srv.URL, local, srv.Client())
	data, err := f.FetchJar(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))
}

func TestFetchJarNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir(), srv.Client())
	_, err := f.FetchJar(context.Background(), Coordinates{GroupID: "a", ArtifactID: "b", Version: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchJarCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFetcher(srv.URL, "", srv.Client())
	_, err := f.FetchJar(ctx, Coordinates{GroupID: "a", ArtifactID: "b", Version: "1"})
	assert.ErrorIs(t, err, context.Canceled)
}
