package filemonitor

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type reloader struct {
	mutex   sync.Mutex
	path    string
	reload  func() error
	reloads int
}

// NewReloader returns a handler that calls reload whenever path is written
// or replaced. Calls are serialized.
func NewReloader(path string, reload func() error) *reloader {
	return &reloader{
		path:   filepath.Clean(path),
		reload: reload,
	}
}

// HandleFilesystemUpdate is intended to be used as the onUpdateFn for a
// watcher on the directory containing the file. Events for other files in
// that directory are ignored.
func (r *reloader) HandleFilesystemUpdate(logger logrus.FieldLogger, event fsnotify.Event) {
	if filepath.Clean(event.Name) != r.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reloads++
	logger = logger.WithFields(logrus.Fields{"path": r.path, "reload": r.reloads})
	if err := r.reload(); err != nil {
		// a half-written file fails to load; the next write retries
		logger.WithError(err).Warn("reload failed")
		return
	}
	logger.Debug("reloaded")
}

// Reloads returns how many times reload has been attempted.
func (r *reloader) Reloads() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.reloads
}

// WatchFile calls reload on every change to path until ctx is done. The
// parent directory is watched so that files replaced by rename, as most
// editors do, keep being followed.
func WatchFile(ctx context.Context, logger logrus.FieldLogger, path string, reload func() error) (<-chan struct{}, error) {
	r := NewReloader(path, reload)
	w, err := NewWatch(logger, []string{filepath.Dir(r.path)}, r.HandleFilesystemUpdate)
	if err != nil {
		return nil, err
	}
	return w.Run(ctx), nil
}
