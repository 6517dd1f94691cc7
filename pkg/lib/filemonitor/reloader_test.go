package filemonitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFilesystemUpdate(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	fail := false
	r := NewReloader("dir/rules.yaml", func() error {
		if fail {
			return errors.New("truncated document")
		}
		return nil
	})

	type tc struct {
		Name    string
		Event   fsnotify.Event
		Reloads int
	}
	for _, tt := range []tc{
		{Name: "other file", Event: fsnotify.Event{Name: "dir/other.yaml", Op: fsnotify.Write}, Reloads: 0},
		{Name: "chmod", Event: fsnotify.Event{Name: "dir/rules.yaml", Op: fsnotify.Chmod}, Reloads: 0},
		{Name: "write", Event: fsnotify.Event{Name: "dir/rules.yaml", Op: fsnotify.Write}, Reloads: 1},
		{Name: "replaced", Event: fsnotify.Event{Name: "dir/./rules.yaml", Op: fsnotify.Create}, Reloads: 2},
		{Name: "removed", Event: fsnotify.Event{Name: "dir/rules.yaml", Op: fsnotify.Remove}, Reloads: 2},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			r.HandleFilesystemUpdate(logger, tt.Event)
			assert.Equal(t, tt.Reloads, r.Reloads())
		})
	}
	require.Equal(t, "reloaded", hook.LastEntry().Message)

	fail = true
	r.HandleFilesystemUpdate(logger, fsnotify.Event{Name: "dir/rules.yaml", Op: fsnotify.Write})
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "reload failed", entry.Message)
	assert.Equal(t, 3, entry.Data["reload"])
}

func TestWatchFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1.0.0\n"), 0o600))

	var reloads int32
	ctx, cancel := context.WithCancel(context.Background())
	done, err := WatchFile(ctx, logger, path, func() error {
		atomic.AddInt32(&reloads, 1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("version: 1.1.0\n"), 0o600))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&reloads) > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatchMissingPath(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewWatch(logger, []string{filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, err)
}
