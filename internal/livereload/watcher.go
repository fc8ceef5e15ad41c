package livereload

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceDelay coalesces bursts of filesystem events (editors typically
// write, rename and chmod in quick succession) into one notification.
const debounceDelay = 100 * time.Millisecond

// Watcher watches the served tree and invokes notify after changes
// settle.
type Watcher struct {
	log     zerolog.Logger
	fsw     *fsnotify.Watcher
	notify  func()
	done    chan struct{}
	stopped chan struct{}
}

// NewWatcher begins watching root and every directory below it.
func NewWatcher(root string, notify func(), log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	w := &Watcher{
		log:     log,
		fsw:     fsw,
		notify:  notify,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit, so the
// notify callback is never invoked after Close returns.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	<-w.stopped
	return err
}

// addTree registers path and every directory below it. Unreadable
// entries are skipped rather than failing the whole watch.
func (w *Watcher) addTree(path string) error {
	return filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				// New subdirectories need their own watches.
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.log.Debug().Err(err).Str("path", ev.Name).Msg("failed to extend watch")
					}
				}
			}
			w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("filesystem change")
			pending = time.After(debounceDelay)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("filesystem watcher error")
		case <-pending:
			pending = nil
			w.notify()
		case <-w.done:
			return
		}
	}
}
