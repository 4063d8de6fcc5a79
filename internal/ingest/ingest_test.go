package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"pages":[]}`), 0o644))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/a/.b.json"))
	assert.True(t, IsHidden(".git"))
	assert.False(t, IsHidden("/a/b.json"))
	assert.False(t, IsHidden("."))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.json"))
	touch(t, filepath.Join(root, "a.JSON"))
	touch(t, filepath.Join(root, "a.result.json"))
	touch(t, filepath.Join(root, ".hidden.json"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.json"))
	touch(t, filepath.Join(root, ".cache", "d.json"))

	paths, stats, err := ScanDirectory(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.JSON"),
		filepath.Join(root, "b.json"),
		filepath.Join(root, "sub", "c.json"),
	}, paths)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Zero(t, stats.Failed)
}

func TestScanDirectory_Errors(t *testing.T) {
	_, _, err := ScanDirectory(context.Background(), " ", nil)
	require.Error(t, err)

	_, _, err = ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	require.Error(t, err)
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
		return ""
	}
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.json")
	touch(t, existing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, existing, next(t, events))

	touch(t, filepath.Join(root, "skip.txt"))
	touch(t, filepath.Join(root, "new.result.json"))
	created := filepath.Join(root, "new.json")
	touch(t, created)
	assert.Equal(t, created, next(t, events))

	cancel()
	for range events {
	}
}
