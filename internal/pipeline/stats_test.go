package pipeline

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int{500, 100, 300, 200, 400} {
		stats.Record(".docx", time.Duration(ms)*time.Millisecond)
	}
	stats.Record(".pdf", 50*time.Millisecond)

	snap := stats.Snapshot()
	docx, ok := snap.Formats[".docx"]
	if !ok {
		t.Fatal("expected .docx summary")
	}
	if docx.Count != 5 {
		t.Fatalf("expected count=5, got %d", docx.Count)
	}
	if docx.MinMs != 100 || docx.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", docx.MinMs, docx.MaxMs)
	}
	if docx.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", docx.AvgMs)
	}
	if docx.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", docx.P50Ms)
	}
	if docx.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", docx.P95Ms)
	}
	if docx.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", docx.P99Ms)
	}

	if snap.Overall.Count != 6 || snap.Overall.MinMs != 50 {
		t.Fatalf("expected overall count=6 min=50, got count=%d min=%d", snap.Overall.Count, snap.Overall.MinMs)
	}
	if snap.Window != "1h0m0s" {
		t.Errorf("expected window 1h0m0s, got %q", snap.Window)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(".docx", 100*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Overall.Count != 0 || len(snap.Formats) != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	stats.Record(".docx", 200*time.Millisecond)
	snap = stats.Snapshot()
	if snap.Overall.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Overall.Count)
	}
	if snap.Overall.MinMs != 200 || snap.Overall.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.Overall.MinMs, snap.Overall.MaxMs)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(".txt", -10*time.Millisecond)
	snap := stats.Snapshot()
	if snap.Overall.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Overall.Count)
	}
	if snap.Overall.MinMs != 0 || snap.Overall.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.Overall.MinMs, snap.Overall.MaxMs)
	}
}
