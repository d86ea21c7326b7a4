package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/fsnotify/fsnotify"
)

func TestWatcher_DocPath(t *testing.T) {
	root := t.TempDir()
	w := &Watcher{root: root, cache: NewCache(time.Hour), log: discardLogger()}

	tests := []struct {
		name   string
		event  fsnotify.Event
		want   string
		wantOK bool
	}{
		{"write", fsnotify.Event{Name: filepath.Join(root, "docs", "a.docx"), Op: fsnotify.Write}, "/docs/a.docx", true},
		{"remove", fsnotify.Event{Name: filepath.Join(root, "b.xlsx"), Op: fsnotify.Remove}, "/b.xlsx", true},
		{"rename", fsnotify.Event{Name: filepath.Join(root, "c.pdf"), Op: fsnotify.Rename}, "/c.pdf", true},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(root, "a.docx"), Op: fsnotify.Chmod}, "", false},
		{"hidden ignored", fsnotify.Event{Name: filepath.Join(root, ".~lock.a.docx#"), Op: fsnotify.Write}, "", false},
		{"outside root", fsnotify.Event{Name: filepath.Join(filepath.Dir(root), "x.docx"), Op: fsnotify.Write}, "", false},
	}
	for _, tt := range tests {
		got, ok := w.docPath(tt.event)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%s: expected (%q, %v), got (%q, %v)", tt.name, tt.want, tt.wantOK, got, ok)
		}
	}
}

func TestWatcher_InvalidatesChangedFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(root, "docs", "a.md")
	if err := os.WriteFile(file, []byte("# A"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(time.Hour)
	cache.Put("/docs/a.md", 1, &doctree.Document{})

	w, err := NewWatcher(root, cache, discardLogger())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(file, []byte("# A changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cache.Stats().Entries == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected cache entry to be invalidated after write")
}
