package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalManifest), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	assert.Len(t, w.Snapshot().Models, 1)

	updated := strings.Replace(minimalManifest, "models:\n", "models:\n  resnet18:\n    url: https://download.pytorch.org/models/resnet18-f37072fd.pth\n", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Len(t, cfg.Models, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("manifest was not reloaded")
	}

	assert.Len(t, w.Snapshot().Models, 2)
}

func TestWatcher_ReloadsAfterRenameOverManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalManifest), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	// Save the way editors do: write a sibling file, then rename it over
	// the manifest. The second save checks the watch outlived the first.
	for i, arch := range []string{"resnet18", "alexnet"} {
		entry := "models:\n  " + arch + ":\n    url: https://download.pytorch.org/models/" + arch + "-f37072fd.pth\n"
		updated := strings.Replace(minimalManifest, "models:\n", entry, 1)

		tmp := filepath.Join(dir, ".manifest.yaml.swp")
		require.NoError(t, os.WriteFile(tmp, []byte(updated), 0o644))
		require.NoError(t, os.Rename(tmp, path))

		select {
		case cfg := <-reloaded:
			assert.Contains(t, cfg.Models, arch, "save %d", i+1)
		case <-time.After(5 * time.Second):
			t.Fatalf("manifest was not reloaded after save %d", i+1)
		}
	}

	assert.Contains(t, w.Snapshot().Models, "alexnet")
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalManifest), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(path, func(*Config, error) { reloads.Add(1) })
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	time.Sleep(2 * debounce)
	assert.Zero(t, reloads.Load())
}

func TestWatcher_ReportsInvalidManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalManifest), 0o644))

	errs := make(chan error, 4)
	w, err := NewWatcher(path, func(cfg *Config, err error) {
		if err != nil {
			errs <- err
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrInvalid)
	case <-time.After(5 * time.Second):
		t.Fatal("invalid manifest was not reported")
	}

	// The last good snapshot is kept.
	assert.Len(t, w.Snapshot().Models, 1)
}

func TestNewWatcher_InvalidInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o644))

	_, err := NewWatcher(path, func(*Config, error) {})
	assert.ErrorContains(t, err, "failed to load initial config")
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalManifest), 0o644))

	w, err := NewWatcher(path, func(*Config, error) {})
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
