// Package watch invalidates stale read records when files change on disk.
//
// The read-before-write ledger guarantees an edit is based on content the
// caller has actually seen. If another process rewrites a file after it was
// read, that guarantee no longer holds, so the watcher clears the record
// and forces a fresh read.
package watch

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/warden-ai/warden/internal/event"
	"github.com/warden-ai/warden/internal/state"
)

// Watcher monitors the parent directories of read-recorded files and
// drops a file's read record when it is written, removed or renamed by
// something other than the tools themselves.
type Watcher struct {
	watcher *fsnotify.Watcher
	state   *state.State
	watched map[string]bool // parent dirs already added
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	unsub   func()
	mu      sync.Mutex
}

// NewWatcher creates a watcher bound to the given operation state.
func NewWatcher(st *state.State) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: fsw,
		state:   st,
		watched: make(map[string]bool),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching. Every file.read event adds the file's parent
// directory to the watch set.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.unsub = event.Subscribe(event.FileRead, func(e event.Event) {
		data, ok := e.Data.(event.FileReadData)
		if !ok {
			return
		}
		w.watchParent(data.Path)
	})

	go w.run()
}

func (w *Watcher) watchParent(path string) {
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("failed to watch directory")
		return
	}
	w.watched[dir] = true
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Create is included because a rename-into-place save
			// surfaces as Create on the target path.
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.invalidate(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) invalidate(path string) {
	if !w.state.HasFileBeenRead(path) {
		return
	}
	if w.state.WasSelfWrite(path) {
		return
	}
	w.state.ClearFileRead(path)
	log.Debug().Str("file", path).Msg("read record invalidated by external change")
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	if w.unsub != nil {
		w.unsub()
		w.unsub = nil
	}
	w.mu.Unlock()

	select {
	case <-w.stopCh:
		// Already stopped
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
