// Package widget binds editor sessions to local files: a .tex file acts as the
// text input and an HTML page shows the preview.
package widget

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"texcollab/internal/session"
	"texcollab/pkg/logger"
)

// FileWidget is a session.Widget backed by a file on disk. Saving the file in
// any editor counts as a user edit. Content written through SetValue does not.
type FileWidget struct {
	path    string
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	value    string
	cursor   session.Position
	listener func()

	done chan struct{}
}

// OpenFile starts watching path. A missing file starts out empty and is
// created on the first SetValue.
func OpenFile(path string) (*FileWidget, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors often save by renaming a temp file over the original, which
	// drops a watch on the file itself; watch the directory instead.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &FileWidget{
		path:    abs,
		watcher: watcher,
		value:   string(data),
		done:    make(chan struct{}),
	}
	go w.watch()
	return w, nil
}

func (w *FileWidget) Path() string {
	return w.path
}

func (w *FileWidget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

func (w *FileWidget) SetValue(text string) {
	w.mu.Lock()
	w.value = text
	w.mu.Unlock()
	if err := writeFileAtomic(w.path, []byte(text), 0o644); err != nil {
		logger.Sugar.Errorf("Failed to write %s: %v", w.path, err)
	}
}

func (w *FileWidget) Cursor() session.Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

func (w *FileWidget) SetCursor(p session.Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursor = session.ClampPosition(w.value, p)
}

func (w *FileWidget) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = fn
}

// Close stops watching. The file is left in place.
func (w *FileWidget) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *FileWidget) watch() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Sugar.Warnf("Watcher error for %s: %v", w.path, err)
		}
	}
}

// reload picks up the file content. Content equal to what the widget already
// holds, such as our own writes, is not an edit.
func (w *FileWidget) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return
	}
	w.mu.Lock()
	if string(data) == w.value {
		w.mu.Unlock()
		return
	}
	w.value = string(data)
	w.cursor = session.ClampPosition(w.value, w.cursor)
	listener := w.listener
	w.mu.Unlock()

	if listener != nil {
		listener()
	}
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
