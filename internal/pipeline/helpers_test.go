package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docview/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSource serves documents from memory and counts opens per path.
type memSource struct {
	mu     sync.Mutex
	docs   map[string][]byte
	errs   map[string]error
	delays map[string]time.Duration
	opens  map[string]int
}

func newMemSource(docs map[string]string) *memSource {
	m := &memSource{
		docs:   make(map[string][]byte),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
		opens:  make(map[string]int),
	}
	for p, body := range docs {
		m.docs[p] = []byte(body)
	}
	return m
}

func (m *memSource) set(p, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p] = []byte(body)
}

func (m *memSource) count(p string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[p]
}

func (m *memSource) Open(ctx context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	m.opens[p]++
	delay := m.delays[p]
	err := m.errs[p]
	data, ok := m.docs[p]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, source.ErrNotFound
	}
	return data, nil
}

// gateSource blocks the first Open until release is closed.
type gateSource struct {
	*memSource
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGateSource(docs map[string]string) *gateSource {
	return &gateSource{
		memSource: newMemSource(docs),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *gateSource) Open(ctx context.Context, p string) ([]byte, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.memSource.Open(ctx, p)
}
