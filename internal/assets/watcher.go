package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reactive-calculator/internal/observability"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// ChangeCallback receives the path of the last change in a burst, relative
// to the watched directory.
type ChangeCallback func(path string)

// Watcher reports rebuilds of a static asset directory. A bundler rewrites
// many files at once, so bursts of events collapse into a single callback.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	callback  ChangeCallback
	debounce  time.Duration

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher starts watching dir and every directory below it.
func NewWatcher(dir string, callback ChangeCallback) (*Watcher, error) {
	return newWatcher(dir, callback, defaultDebounce)
}

func newWatcher(dir string, callback ChangeCallback, debounce time.Duration) (*Watcher, error) {
	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := addDirsRecursive(fsW, dir); err != nil {
		fsW.Close()
		return nil, err
	}

	w := &Watcher{
		root:      dir,
		fsWatcher: fsW,
		callback:  callback,
		debounce:  debounce,
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		changed string
	)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// New directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watchDir(event.Name)
				}
			}

			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			changed = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil

			rel, err := filepath.Rel(w.root, changed)
			if err != nil {
				rel = changed
			}

			observability.Logger.Info("static assets changed", zap.String("path", rel))
			if w.callback != nil {
				w.callback(filepath.ToSlash(rel))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			observability.Logger.Warn("asset watcher error", zap.Error(err))
		}
	}
}

// watchDir adds dir and its subdirectories to the watch. A failure leaves
// that subtree unwatched, so it is logged.
func (w *Watcher) watchDir(dir string) {
	if err := addDirsRecursive(w.fsWatcher, dir); err != nil {
		observability.Logger.Warn("watching new asset directory",
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
}

func addDirsRecursive(fsW *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsW.Add(path)
		}
		return nil
	})
}
