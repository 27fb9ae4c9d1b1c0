package observability

import (
	"testing"
	"time"
)

func TestLatencyWindowSnapshot(t *testing.T) {
	w := NewLatencyWindow(8)
	for _, ms := range []int{10, 20, 30, 40} {
		w.Observe(StageLLMRound, time.Duration(ms)*time.Millisecond)
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("snapshot has %d stages, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageLLMRound {
		t.Fatalf("stage = %q", s.Stage)
	}
	if s.Samples != 4 {
		t.Fatalf("samples = %d, want 4", s.Samples)
	}
	if s.LastMS != 40 {
		t.Fatalf("last = %v, want 40", s.LastMS)
	}
	if s.AvgMS != 25 {
		t.Fatalf("avg = %v, want 25", s.AvgMS)
	}
	if s.P50MS != 25 {
		t.Fatalf("p50 = %v, want 25", s.P50MS)
	}
}

func TestLatencyWindowWrapsRing(t *testing.T) {
	w := NewLatencyWindow(4)
	for i := 1; i <= 10; i++ {
		w.Observe(StageToolDispatch, time.Duration(i)*time.Millisecond)
	}
	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("snapshot has %d stages", len(snap.Stages))
	}
	if snap.Stages[0].Samples != 4 {
		t.Fatalf("samples = %d, want window size 4", snap.Stages[0].Samples)
	}
	if snap.Stages[0].LastMS != 10 {
		t.Fatalf("last = %v, want 10", snap.Stages[0].LastMS)
	}
}

func TestLatencyWindowReset(t *testing.T) {
	w := NewLatencyWindow(4)
	w.Observe(StageTurnTotal, time.Second)
	w.Reset()
	if got := len(w.Snapshot().Stages); got != 0 {
		t.Fatalf("stages after reset = %d, want 0", got)
	}
}

func TestLatencyWindowIgnoresBadInput(t *testing.T) {
	w := NewLatencyWindow(4)
	w.Observe("", time.Second)
	w.Observe(StageShape, -time.Second)
	if got := len(w.Snapshot().Stages); got != 0 {
		t.Fatalf("stages = %d, want 0", got)
	}
}
