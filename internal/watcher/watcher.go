// Package watcher re-runs map generation when the source tree changes.
// It polls rather than using inotify-style APIs; polling behaves the
// same on every platform and inside containers and network mounts,
// where native watch events are unreliable.
package watcher

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"repomap/internal/config"
	"repomap/internal/source"
)

// EventType classifies an observed file change.
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	}
	return "unknown"
}

// Event is one observed change to a source file, identified by its
// path relative to the source root.
type Event struct {
	Type EventType
	Path string
}

// Handler receives each debounced change batch.
type Handler func(events []Event)

const (
	DefaultInterval = 2 * time.Second
	DefaultDebounce = time.Second
)

// Options configures a watcher. Zero durations fall back to the
// package defaults.
type Options struct {
	Interval time.Duration
	Debounce time.Duration
	Logger   *slog.Logger
	Handler  Handler
}

// Watcher polls the configured source tree and fires its handler once
// a burst of changes has gone quiet.
type Watcher struct {
	projectRoot string
	cfg         config.SourceConfig
	interval    time.Duration
	debounce    time.Duration
	logger      *slog.Logger
	handler     Handler
}

func New(projectRoot string, cfg config.SourceConfig, opts Options) *Watcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		projectRoot: projectRoot,
		cfg:         cfg,
		interval:    interval,
		debounce:    debounce,
		logger:      opts.Logger,
		handler:     opts.Handler,
	}
}

// Run polls until the context is canceled and returns the context
// error. The first scan establishes the baseline without firing the
// handler; several files changing inside one debounce window arrive as
// a single batch.
func (w *Watcher) Run(ctx context.Context) error {
	snap, err := source.Stat(w.projectRoot, w.cfg)
	if err != nil {
		return err
	}
	w.logger.Info("Watching for changes",
		"files", len(snap),
		"interval", w.interval,
		"debounce", w.debounce)

	batcher := NewBatcher(w.debounce, w.emit)
	defer batcher.Cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next, err := source.Stat(w.projectRoot, w.cfg)
			if err != nil {
				// The root can vanish transiently during branch
				// switches; keep polling.
				w.logger.Warn("Source scan failed during watch", "error", err)
				continue
			}
			for _, ev := range diff(snap, next) {
				batcher.Add(ev)
			}
			snap = next
		}
	}
}

func (w *Watcher) emit(events []Event) {
	w.logger.Debug("Change batch ready", "events", len(events))
	if w.handler != nil {
		w.handler(events)
	}
}

// diff compares two snapshots and reports creations and modifications
// in path order, then deletions in path order.
func diff(old, next map[string]source.FileStat) []Event {
	var events []Event

	paths := make([]string, 0, len(next))
	for p := range next {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		prev, existed := old[p]
		cur := next[p]
		switch {
		case !existed:
			events = append(events, Event{Type: EventCreate, Path: p})
		case prev.Size != cur.Size || !prev.ModTime.Equal(cur.ModTime):
			events = append(events, Event{Type: EventModify, Path: p})
		}
	}

	var removed []string
	for p := range old {
		if _, ok := next[p]; !ok {
			removed = append(removed, p)
		}
	}
	sort.Strings(removed)
	for _, p := range removed {
		events = append(events, Event{Type: EventDelete, Path: p})
	}

	return events
}
