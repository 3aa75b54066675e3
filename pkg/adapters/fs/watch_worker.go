package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/facet/pkg/core"
)

const debounceDelay = 50 * time.Millisecond

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-catalog-watcher"),
		repo:       repo,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	root := filepath.Join(w.repo.Path, TypesDir)
	if !w.repo.config.ReadOnly {
		if err := os.MkdirAll(root, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", root, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := addTree(watcher, root); err != nil {
		_ = watcher.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.watcher = watcher
	w.debouncer = newDebouncer(debounceDelay, func(e core.Event) { w.flush(runCtx, e) })
	w.repo.setWatcherActive(true)

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              filepath.Join(w.repo.Path, TypesDir),
		}
	})
}

// addTree watches root and every directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// catalogEvent maps a filesystem event to a catalog event. The boolean is
// false for events that do not concern a catalog file.
func (w *watchWorker) catalogEvent(event fsnotify.Event) (core.Event, bool) {
	root := filepath.Join(w.repo.Path, TypesDir)
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return core.Event{}, false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	if strings.HasPrefix(base, TempFilePrefix) || strings.HasPrefix(base, ".") {
		return core.Event{}, false
	}
	switch filepath.Ext(base) {
	case ".yaml", ".yml":
	default:
		return core.Event{}, false
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	default:
		return core.Event{}, false
	}
	return core.Event{Type: eType, Path: rel, Timestamp: time.Now().Unix()}, true
}

// processFilesystemEvent filters the event and hands it to the debouncer.
func (w *watchWorker) processFilesystemEvent(event fsnotify.Event) (processed bool) {
	w.repo.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	// New directories inside the catalog are watched as well.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(w.watcher, event.Name); err != nil {
				w.handleWatcherError(err)
			}
			return false
		}
	}

	e, ok := w.catalogEvent(event)
	if !ok {
		return false
	}
	w.debouncer.add(e)
	return true
}

// flush reloads the catalog and delivers the event. Reload failures are
// reported and the event is dropped; the previous catalog stays active.
func (w *watchWorker) flush(ctx context.Context, e core.Event) {
	if ctx.Err() != nil {
		return
	}
	if err := w.repo.Reload(ctx); err != nil {
		w.handleWatcherError(fmt.Errorf("reload catalog after %s: %w", e.Path, err))
		return
	}
	if e.Type != core.EventDelete {
		e.Types = w.repo.cache.IDs(e.Path)
	}
	if w.repo.config.OnCatalogChange != nil {
		w.repo.config.OnCatalogChange(e)
	}

	defer func() {
		// The channel may be closed while stopping.
		_ = recover()
	}()
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

// handleWatcherError reports errors from fsnotify and from reloads.
func (w *watchWorker) handleWatcherError(err error) {
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
		return
	}
	w.repo.logger.Error("watcher error", "error", err)
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.repo.logger.Enabled(ctx, slog.LevelDebug) {
				w.repo.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.repo.logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Every pending flush must finish before the events channel closes.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

// debouncer coalesces bursts of events per catalog file. Editors usually
// write a file several times in a row.
type debouncer struct {
	delay time.Duration
	fire  func(core.Event)

	mu      sync.Mutex
	wg      sync.WaitGroup
	timers  map[string]*time.Timer
	pending map[string]core.Event
	stopped bool
}

func newDebouncer(delay time.Duration, fire func(core.Event)) *debouncer {
	return &debouncer{
		delay:   delay,
		fire:    fire,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]core.Event),
	}
}

func (d *debouncer) add(e core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[e.Path]; ok {
		switch {
		case prev.Type == core.EventCreate && e.Type == core.EventModify:
			e.Type = core.EventCreate
		case prev.Type == core.EventDelete && e.Type == core.EventCreate:
			e.Type = core.EventModify
		}
	}
	d.pending[e.Path] = e

	if t, ok := d.timers[e.Path]; ok && t.Stop() {
		d.wg.Done()
	}
	key := e.Path
	d.wg.Add(1)
	d.timers[key] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		ev, ok := d.pending[key]
		delete(d.pending, key)
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()

		if ok && !stopped {
			d.fire(ev)
		}
	})
}

// stopAndWait drops pending events and waits for running callbacks.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	clear(d.pending)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
