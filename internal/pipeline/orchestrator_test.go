package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/source"
	"github.com/dgallion1/docview/internal/viewer"
)

const testMenu = "# Operations\n\n- Setup\n- Fees\n"

func newTestOrchestrator(src source.Source, opts Options) (*Orchestrator, *viewer.Store) {
	docs := []string{"/docs/operations/creation.md"}
	l := NewLoader(src, NewCache(time.Hour), nil, LoaderConfig{Docs: docs}, discardLogger())
	store := viewer.NewStore(time.Hour)
	return NewOrchestrator(l, nav.Parse([]byte(testMenu)), store, opts, discardLogger()), store
}

func TestOrchestrator_SelectSync(t *testing.T) {
	o, store := newTestOrchestrator(newMemSource(testDocs), Options{})
	st, _ := store.GetOrCreate("")

	snap, stale, err := o.Select(context.Background(), st, "Fees")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stale || snap.Loading {
		t.Errorf("expected committed snapshot, got stale=%v loading=%v", stale, snap.Loading)
	}
	if !strings.Contains(snap.HTML, "Creation fees apply.") {
		t.Errorf("expected section content, got %s", snap.HTML)
	}
	if len(snap.Quick) != 2 || !snap.Quick[1].Active {
		t.Errorf("expected quick links with Fees active, got %+v", snap.Quick)
	}
}

func TestOrchestrator_SupersededSelectIsStale(t *testing.T) {
	src := newGateSource(testDocs)
	o, store := newTestOrchestrator(src, Options{})
	st, _ := store.GetOrCreate("")

	type outcome struct {
		snap  viewer.Snapshot
		stale bool
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		snap, stale, err := o.Select(context.Background(), st, "Setup")
		done <- outcome{snap, stale, err}
	}()

	<-src.started
	// The newer selection completes while the first one is still fetching.
	snap, stale, err := o.Select(context.Background(), st, "Fees")
	if err != nil || stale {
		t.Fatalf("expected newer select to commit, got stale=%v err=%v", stale, err)
	}
	if !strings.Contains(snap.HTML, "Creation fees apply.") {
		t.Fatalf("unexpected content %s", snap.HTML)
	}

	close(src.release)
	first := <-done
	if first.err != nil {
		t.Fatalf("unexpected error: %v", first.err)
	}
	if !first.stale {
		t.Error("expected superseded select to report stale")
	}
	if first.snap.Topic != "Fees" || strings.Contains(first.snap.HTML, "Create the fund.") {
		t.Errorf("expected newer content to remain, got %+v", first.snap)
	}
}

func TestOrchestrator_SubmitAsync(t *testing.T) {
	o, store := newTestOrchestrator(newMemSource(testDocs), Options{WorkerCount: 2})
	o.Start(context.Background())
	defer o.Stop()

	st, _ := store.GetOrCreate("")
	token, err := o.Submit(st, "Setup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != 1 {
		t.Errorf("expected token 1, got %d", token)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := st.Snapshot()
		if !snap.Loading {
			if !strings.Contains(snap.HTML, "Create the fund.") {
				t.Fatalf("unexpected content %s", snap.HTML)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for async load")
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	// Workers are never started, so the single slot stays taken.
	o, store := newTestOrchestrator(newMemSource(testDocs), Options{MaxQueueSize: 1})
	a, _ := store.GetOrCreate("")
	b, _ := store.GetOrCreate("")

	if _, err := o.Submit(a, "Setup"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := o.Submit(b, "Fees"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	snap := b.Snapshot()
	if snap.Loading || !strings.Contains(snap.Error, "queue is full") {
		t.Errorf("expected failed state, got %+v", snap)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o, store := newTestOrchestrator(newMemSource(testDocs), Options{})
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	st, _ := store.GetOrCreate("")
	if _, err := o.Submit(st, "Setup"); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	snap := st.Snapshot()
	if snap.Loading || snap.Error == "" {
		t.Errorf("expected failed state, got %+v", snap)
	}
}
