package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/viewer"
)

// ErrQueueFull is returned by Submit when no worker slot is free.
var ErrQueueFull = errors.New("load queue is full")

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("orchestrator stopped")

// Options size the orchestrator.
type Options struct {
	WorkerCount     int
	MaxQueueSize    int
	CleanupInterval time.Duration
}

// task is one queued topic load for a session.
type task struct {
	state *viewer.State
	topic string
	token uint64
}

// Orchestrator runs topic loads for viewer sessions, synchronously or through
// a bounded queue served by a worker pool.
type Orchestrator struct {
	loader   *Loader
	menu     *nav.Menu
	sessions *viewer.Store
	queue    chan task
	log      *slog.Logger
	opts     Options

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and the closing of queue against Submit.
	mu      sync.RWMutex
	stopped bool
}

func NewOrchestrator(loader *Loader, menu *nav.Menu, sessions *viewer.Store, opts Options, log *slog.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	return &Orchestrator{
		loader:   loader,
		menu:     menu,
		sessions: sessions,
		queue:    make(chan task, opts.MaxQueueSize),
		log:      log,
		opts:     opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case t, ok := <-o.queue:
					if !ok {
						return
					}
					o.run(workerCtx, t)
				}
			}
		}()
	}

	// Session and cache cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := o.sessions.Cleanup(); n > 0 {
					o.log.Info("expired sessions removed", "count", n)
				}
				o.loader.Cache().Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the worker pool.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Select loads topic for the session and waits for the result. The bool
// reports whether the load was superseded by a newer selection, in which case
// the returned snapshot shows the newer state.
func (o *Orchestrator) Select(ctx context.Context, st *viewer.State, topic string) (viewer.Snapshot, bool, error) {
	token := st.Begin(topic)
	ok, err := o.finish(ctx, task{state: st, topic: topic, token: token})
	if err != nil {
		st.Fail(token, err)
		return viewer.Snapshot{}, false, err
	}
	return st.Snapshot(), !ok, nil
}

// Submit queues a load of topic for the session and returns its token. The
// session shows the loading placeholder until a worker commits the result.
func (o *Orchestrator) Submit(st *viewer.State, topic string) (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	token := st.Begin(topic)
	if o.stopped {
		st.Fail(token, ErrStopped)
		return token, ErrStopped
	}
	select {
	case o.queue <- task{state: st, topic: topic, token: token}:
		return token, nil
	default:
		err := fmt.Errorf("%w (%d)", ErrQueueFull, o.opts.MaxQueueSize)
		st.Fail(token, err)
		return token, err
	}
}

func (o *Orchestrator) run(ctx context.Context, t task) {
	if !t.state.Current(t.token) {
		o.log.Debug("skipping superseded load", "session", t.state.ID(), "topic", t.topic)
		return
	}
	if _, err := o.finish(ctx, t); err != nil {
		t.state.Fail(t.token, err)
	}
}

// finish runs the load for t and commits it. It reports false when the
// session moved on before the load completed.
func (o *Orchestrator) finish(ctx context.Context, t task) (bool, error) {
	log := o.log.With("session", t.state.ID(), "topic", t.topic, "token", t.token)

	load, err := o.loader.Load(ctx, t.topic)
	if err != nil {
		log.Warn("topic load aborted", "error", err)
		return false, err
	}
	if !t.state.Commit(t.token, load.Root(), o.menu.QuickLinks(t.topic)) {
		log.Info("discarding superseded load", "latest", t.state.Token())
		return false, nil
	}
	return true, nil
}

// Sessions returns the session store.
func (o *Orchestrator) Sessions() *viewer.Store {
	return o.sessions
}

// Loader returns the topic loader.
func (o *Orchestrator) Loader() *Loader {
	return o.loader
}

// Menu returns the navigation menu.
func (o *Orchestrator) Menu() *nav.Menu {
	return o.menu
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
