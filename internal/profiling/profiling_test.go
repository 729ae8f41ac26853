package profiling

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 3; i++ {
		stop := r.Track("step")
		time.Sleep(time.Millisecond)
		stop()
	}
	if got := r.Count("step"); got != 3 {
		t.Errorf("expected 3 samples, got %d", got)
	}
	if d := r.Snapshot()["step"]; d < 3*time.Millisecond {
		t.Errorf("expected at least 3ms total, got %v", d)
	}
}

func TestReset(t *testing.T) {
	r := NewRecorder()
	r.Track("a")()
	r.Reset()
	if len(r.Snapshot()) != 0 || r.Count("a") != 0 {
		t.Errorf("expected empty recorder after Reset")
	}
}

func TestTopNOrder(t *testing.T) {
	r := NewRecorder()
	r.totals["slow"] = 4200 * time.Microsecond
	r.totals["fast"] = 100 * time.Microsecond
	r.totals["mid"] = 2 * time.Millisecond

	got := r.TopN(2)
	want := "slow:4.2ms, mid:2ms"
	if got != want {
		t.Errorf("TopN(2) = %q, want %q", got, want)
	}
	if all := r.TopN(10); strings.Count(all, ",") != 2 {
		t.Errorf("TopN(10) should list all three entries, got %q", all)
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.Track("x")()
	if b.Count("x") != 0 {
		t.Errorf("recorders share state")
	}
}

func TestTrackConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Track("hot")()
			}
		}()
	}
	wg.Wait()
	if got := r.Count("hot"); got != 800 {
		t.Errorf("expected 800 samples, got %d", got)
	}
}
