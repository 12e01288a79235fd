// Package watcher re-triggers extraction when the input files change.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/cmap-bc/pkg/logging"
)

// ChangeType tells which input changed
type ChangeType int

const (
	ChangeTypeConceptMap ChangeType = iota
	ChangeTypeTerminology
	ChangeTypeConfig
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeConceptMap:
		return "concept map"
	case ChangeTypeTerminology:
		return "terminology"
	case ChangeTypeConfig:
		return "configuration"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent is a batch of changes to one kind of input
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow groups the burst of events a single save produces
const batchWindow = 100 * time.Millisecond

// FileWatcher watches the CXL, terminology and config files. Editors often
// replace a file on save, so the parent directories are watched and events
// are filtered by path.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType
	events  chan ChangeEvent
	log     *logging.Logger
	once    sync.Once
}

// NewFileWatcher creates a watcher. Empty paths are ignored.
func NewFileWatcher(files map[ChangeType]string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: w,
		files:   make(map[string]ChangeType),
		events:  make(chan ChangeEvent, 16),
		log:     logging.New("watcher"),
	}
	for t, path := range files {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		fw.files[abs] = t
	}
	return fw, nil
}

// Start begins watching. Events stop and the channel closes when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.files {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	fw.log.Info("watching input files", "files", len(fw.files), "directories", len(dirs))
	go fw.processEvents(ctx)
	return nil
}

// processEvents batches file system events by change type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeConceptMap, ChangeTypeTerminology} {
			if paths := pending[t]; len(paths) > 0 {
				fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	defer close(fw.events)
	defer fw.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			t, watched := fw.files[abs]
			if !watched {
				continue
			}
			fw.log.Trace("file changed", "path", abs, "op", event.Op.String())
			if !contains(pending[t], abs) {
				pending[t] = append(pending[t], abs)
			}
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the fsnotify watcher
func (fw *FileWatcher) Stop() error {
	var err error
	fw.once.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
