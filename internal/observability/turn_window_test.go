package observability

import (
	"testing"
	"time"
)

func TestTurnWindowSnapshot(t *testing.T) {
	w := NewTurnWindow(8)
	for _, ms := range []int{100, 200, 300, 400} {
		w.Observe(StageFirstAudio, time.Duration(ms)*time.Millisecond)
	}
	w.ObserveIndicator("tts_fallback")
	w.ObserveIndicator("tts_fallback")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	stage := snap.Stages[0]
	if stage.Stage != StageFirstAudio || stage.Samples != 4 {
		t.Fatalf("stage = %+v, want 4 samples of %s", stage, StageFirstAudio)
	}
	if stage.AvgMS != 250 || stage.LastMS != 400 {
		t.Fatalf("avg/last = %v/%v, want 250/400", stage.AvgMS, stage.LastMS)
	}
	if stage.P50MS != 250 {
		t.Fatalf("P50MS = %v, want 250", stage.P50MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("indicators = %+v, want one count of 2", snap.Indicators)
	}
}

func TestTurnWindowWrapsAround(t *testing.T) {
	w := NewTurnWindow(2)
	for _, ms := range []int{100, 200, 300} {
		w.Observe(StageTurnTotal, time.Duration(ms)*time.Millisecond)
	}
	snap := w.Snapshot()
	if len(snap.Stages) != 1 || snap.Stages[0].Samples != 2 {
		t.Fatalf("snapshot = %+v, want 2 retained samples", snap.Stages)
	}
	if snap.Stages[0].AvgMS != 250 {
		t.Fatalf("AvgMS = %v, want 250 after wraparound", snap.Stages[0].AvgMS)
	}
}

func TestTurnWindowReset(t *testing.T) {
	w := NewTurnWindow(4)
	w.Observe(StageFirstText, 100*time.Millisecond)
	w.Reset()
	if snap := w.Snapshot(); len(snap.Stages) != 0 || len(snap.Indicators) != 0 {
		t.Fatalf("snapshot after reset = %+v, want empty", snap)
	}
}
