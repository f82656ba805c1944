package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/elvencache/ec-bokeh/internal/utils"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk. Reloaded configs are
// delivered on Updates; only the newest pending one is kept, so the render loop
// can drain it once per frame without ever blocking.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan Config
	done    chan struct{}
	once    sync.Once

	lastEvent time.Time
}

// minReloadGap collapses the burst of events editors emit for one save.
const minReloadGap = 100 * time.Millisecond

func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors often replace the file instead of writing it.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		updates: make(chan Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	utils.Info("Config: watching %s for changes", w.path)
	return w, nil
}

func (w *Watcher) Updates() <-chan Config {
	return w.updates
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			now := time.Now()
			if now.Sub(w.lastEvent) < minReloadGap {
				continue
			}
			w.lastEvent = now
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			utils.Warn("Config: watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		utils.Error("Config: reload failed, keeping current settings: %v", err)
		return
	}
	w.publish(cfg)
	utils.Info("Config: reloaded %s", w.path)
}

func (w *Watcher) publish(cfg Config) {
	// Drop a stale pending config so the channel always holds the newest.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- cfg:
	default:
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
