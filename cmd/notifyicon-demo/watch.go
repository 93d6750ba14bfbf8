package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDelay = 300 * time.Millisecond

// iconWatcher calls reload whenever the icon file changes.
type iconWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	reload  func(path string)

	mu       sync.Mutex
	debounce *time.Timer
	done     chan struct{}
}

func watchIcon(path string, reload func(path string)) (*iconWatcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch icon: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch icon: failed to create file watcher: %w", err)
	}

	// Editors often replace the file on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch icon: %w", err)
	}

	w := &iconWatcher{
		path:    path,
		watcher: watcher,
		reload:  reload,
		done:    make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

func (w *iconWatcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.schedule()
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				log.Debug().Str("path", w.path).Msg("icon file moved away, waiting for it to reappear")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("icon watcher error")
		}
	}
}

func (w *iconWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(reloadDelay, func() {
		if _, err := os.Stat(w.path); err != nil {
			log.Warn().Err(err).Msg("icon file is not readable")
			return
		}

		log.Info().Str("path", w.path).Msg("reloading icon")
		w.reload(w.path)
	})
}

func (w *iconWatcher) Close() error {
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done

	return err
}
