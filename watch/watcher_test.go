package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMatch(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, "", time.Millisecond, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "A.java"), true},
		{filepath.Join(root, "src", "p", "A.java"), true},
		{filepath.Join(root, "A.class"), false},
		{"src/B.java", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, w.Match(tc.path), tc.path)
	}
}

func TestInvalidPattern(t *testing.T) {
	_, err := New(t.TempDir(), "[", time.Millisecond, func([]string) {})
	assert.Error(t, err)
}

func TestRunReportsWrites(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	batches := make(chan []string, 4)
	w, err := New(root, "", 20*time.Millisecond, func(paths []string) { batches <- paths })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	a := filepath.Join(sub, "A.java")
	require.NoError(t, os.WriteFile(a, []byte("package p; class A {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "B.java"), []byte("x"), 0o644))

	select {
	case got := <-batches:
		assert.Equal(t, []string{a}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.NoError(t, <-done)
}
