package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// OnReload is invoked with the newly loaded configuration after a write to
// the watched file is detected and successfully decoded. Implementations
// are expected to diff against the previous Config themselves and apply
// only the fields that are safe to hot-swap (agents, heartbeats,
// permissions.safe_commands); Workspace and LLM.Provider changes should be
// logged as ignored, not applied.
type OnReload func(Config)

// Watcher reloads a configuration file on write and forwards the result to
// an OnReload callback. It never restarts the process; swapping the fields
// that require one is entirely the callback's decision to refuse.
type Watcher struct {
	path   string
	onLoad OnReload
	logger *slog.Logger
	fsw    *fsnotify.Watcher
}

// NewWatcher starts watching path for writes. Callers must call Close when
// done.
func NewWatcher(path string, onLoad OnReload) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		path:   path,
		onLoad: onLoad,
		logger: slog.Default().With("component", "config.Watcher"),
		fsw:    fsw,
	}, nil
}

// Run blocks, reloading the config and invoking onLoad on every write or
// create event, until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Error("config reload failed, keeping previous configuration", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("configuration reloaded", "path", w.path)
			w.onLoad(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
