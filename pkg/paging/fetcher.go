// Package paging keeps an incrementally loaded view of a remote collection:
// a filter set, a page cursor, the items fetched so far, and the loading
// state a UI needs to render them.
package paging

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the delay between the last filter change and the fetch.
const DefaultDebounce = 500 * time.Millisecond

// Status is the fetch state of a Fetcher.
type Status int

const (
	StatusIdle Status = iota
	StatusLoadingInitial
	StatusLoadingMore
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusLoadingInitial:
		return "LOADING_INITIAL"
	case StatusLoadingMore:
		return "LOADING_MORE"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Loading reports whether a fetch is outstanding.
func (s Status) Loading() bool {
	return s == StatusLoadingInitial || s == StatusLoadingMore
}

// Config defines fetcher behaviour.
type Config struct {
	PageSize int
	Debounce time.Duration
	Filters  FilterSet
	Logger   *zap.Logger
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() Config {
	return Config{
		PageSize: DefaultPageSize,
		Debounce: DefaultDebounce,
	}
}

// State is a point-in-time copy of a Fetcher's view.
type State[T any] struct {
	Items   []T
	Status  Status
	HasMore bool
	Err     error
	Cursor  Cursor
	Filters FilterSet
	// Pending is set while a debounced reload is armed.
	Pending bool
}

// Fetcher accumulates the pages of one collection for the current filter set.
//
// Every fetch is tagged with the generation current when it was issued. A
// filter change or reload bumps the generation, so responses that arrive
// for an older one are dropped instead of applied.
type Fetcher[T any] struct {
	mu     sync.Mutex
	src    Source[T]
	cfg    Config
	logger *zap.Logger

	filters FilterSet
	cursor  Cursor
	items   []T
	status  Status
	hasMore bool
	err     error

	generation uint64
	inFlight   bool
	pending    bool
	timer      *time.Timer
	closed     bool

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	listeners []func(State[T])
	sentinel  *Sentinel

	// queue holds snapshots in the order the changes were made. One caller
	// at a time drains it, see flush.
	queue    []State[T]
	draining bool
}

// New creates a fetcher over src. Nothing is fetched until LoadInitial or
// SetFilters is called.
func New[T any](src Source[T], cfg Config) *Fetcher[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Fetcher[T]{
		src:     src,
		cfg:     cfg,
		logger:  logger,
		filters: cfg.Filters.Normalize(),
		cursor:  FirstPage(cfg.PageSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	f.sentinel = &Sentinel{load: f.LoadMore}
	return f
}

// OnChange registers fn to receive a snapshot after every state change.
// Snapshots arrive in the order the changes happened, one at a time. Handlers
// may run on fetch goroutines and may call back into the fetcher.
func (f *Fetcher[T]) OnChange(fn func(State[T])) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Sentinel returns the infinite-scroll trigger bound to this fetcher.
func (f *Fetcher[T]) Sentinel() *Sentinel {
	return f.sentinel
}

// LoadInitial discards the current list and fetches page 0 right away.
func (f *Fetcher[T]) LoadInitial() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.stopTimerLocked()
	f.startInitialLocked()
	f.queueLocked()
	f.mu.Unlock()

	f.flush()
}

// LoadMore fetches the page after the cursor and appends it. It returns
// false without doing anything while a fetch is outstanding, while a
// debounced reload is armed, when no pages remain, or after Close.
func (f *Fetcher[T]) LoadMore() bool {
	f.mu.Lock()
	if f.closed || f.inFlight || f.pending || !f.hasMore {
		f.mu.Unlock()
		return false
	}
	f.status = StatusLoadingMore
	f.err = nil
	f.inFlight = true
	f.spawnLocked(f.generation, f.cursor.Next(), true)
	f.queueLocked()
	f.mu.Unlock()

	f.flush()
	return true
}

// SetFilters replaces the filter set. A value-equal set is ignored.
// Otherwise any outstanding fetch is superseded and a reload is scheduled
// once the debounce interval passes without another change.
func (f *Fetcher[T]) SetFilters(filters FilterSet) {
	f.mu.Lock()
	if f.closed || f.filters.Equal(filters) {
		f.mu.Unlock()
		return
	}

	f.filters = filters.Normalize()
	f.generation++
	if f.inFlight {
		f.inFlight = false
		f.status = StatusIdle
	}
	f.stopTimerLocked()
	f.pending = true
	gen := f.generation
	f.timer = time.AfterFunc(f.cfg.Debounce, func() { f.fireDebounced(gen) })

	f.logger.Debug("Fetcher: filters changed, reload scheduled",
		zap.String("filters", f.filters.Key()),
		zap.Uint64("generation", gen),
		zap.Duration("debounce", f.cfg.Debounce),
	)

	f.queueLocked()
	f.mu.Unlock()

	f.flush()
}

// State returns a snapshot of the current view.
func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Close stops the fetcher. Responses arriving afterwards are dropped and
// no further fetches are issued. Close waits for outstanding handlers.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.pending = false
	f.stopTimerLocked()
	f.cancel()
	f.mu.Unlock()

	f.wg.Wait()
}

func (f *Fetcher[T]) fireDebounced(gen uint64) {
	f.mu.Lock()
	if f.closed || !f.pending || gen != f.generation {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	f.startInitialLocked()
	f.queueLocked()
	f.mu.Unlock()

	f.flush()
}

// must hold lock
func (f *Fetcher[T]) startInitialLocked() {
	f.generation++
	f.pending = false
	f.items = nil
	f.cursor = FirstPage(f.cfg.PageSize)
	f.hasMore = false
	f.err = nil
	f.status = StatusLoadingInitial
	f.inFlight = true
	f.spawnLocked(f.generation, f.cursor, false)
}

// must hold lock
func (f *Fetcher[T]) spawnLocked(gen uint64, cursor Cursor, appendItems bool) {
	filters := maps.Clone(f.filters)
	f.wg.Add(1)
	go f.run(gen, cursor, filters, appendItems)
}

func (f *Fetcher[T]) run(gen uint64, cursor Cursor, filters FilterSet, appendItems bool) {
	defer f.wg.Done()

	start := time.Now()
	page, err := f.src.FetchPage(f.ctx, cursor, filters)
	duration := time.Since(start)

	f.mu.Lock()
	if f.closed || gen != f.generation {
		current := f.generation
		f.mu.Unlock()
		f.logger.Debug("Fetcher: discarding stale page",
			zap.Int("page", cursor.Index),
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", current),
		)
		return
	}

	f.inFlight = false
	if err != nil {
		f.status = StatusError
		f.err = err
		f.logger.Warn("Fetcher: page fetch failed",
			zap.Int("page", cursor.Index),
			zap.String("filters", filters.Key()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		if appendItems {
			f.items = append(f.items, page.Items...)
		} else {
			f.items = slices.Clone(page.Items)
		}
		f.cursor = cursor
		f.hasMore = page.HasMore(cursor.Index)
		f.status = StatusIdle
		f.err = nil
		f.logger.Debug("Fetcher: page applied",
			zap.Int("page", cursor.Index),
			zap.Int("items", len(page.Items)),
			zap.Int("total_pages", page.TotalPages),
			zap.Bool("has_more", f.hasMore),
			zap.Duration("duration", duration),
		)
	}
	f.queueLocked()
	f.mu.Unlock()

	f.flush()
}

// must hold lock
func (f *Fetcher[T]) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.pending = false
}

// must hold lock
func (f *Fetcher[T]) snapshotLocked() State[T] {
	return State[T]{
		Items:   slices.Clone(f.items),
		Status:  f.status,
		HasMore: f.hasMore,
		Err:     f.err,
		Cursor:  f.cursor,
		Filters: maps.Clone(f.filters),
		Pending: f.pending,
	}
}

// must hold lock
func (f *Fetcher[T]) queueLocked() {
	if len(f.listeners) == 0 {
		return
	}
	f.queue = append(f.queue, f.snapshotLocked())
}

// flush delivers queued snapshots unless another caller is already doing
// so, in which case that caller picks up whatever was queued here.
func (f *Fetcher[T]) flush() {
	f.mu.Lock()
	if f.draining {
		f.mu.Unlock()
		return
	}
	f.draining = true

	for len(f.queue) > 0 {
		st := f.queue[0]
		f.queue[0] = State[T]{}
		f.queue = f.queue[1:]
		listeners := slices.Clone(f.listeners)

		f.mu.Unlock()
		for _, fn := range listeners {
			fn(st)
		}
		f.mu.Lock()
	}
	f.draining = false
	f.mu.Unlock()
}
