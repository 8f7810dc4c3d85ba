package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"batteryeis/backend/services/ingest-service/internal/models"
)

type countingSink struct {
	closes atomic.Int32
}

func (c *countingSink) WriteAccepted(*models.Sample) error { return nil }
func (c *countingSink) WriteRejected(int, string, time.Time) error { return nil }
func (c *countingSink) Close() error { c.closes.Add(1); return nil }

func newState(id string, sink Sink) *State {
	return NewState(models.SessionMeta{SessionID: id, BatteryID: "B1", SoC: 50}, sink, time.Now())
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	st := newState("s1", nil)

	if err := r.Create("s1", st); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Create("s1", newState("s1", nil)); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}

	got, ok := r.Get("s1")
	if !ok || got != st {
		t.Fatal("expected to get the first state back")
	}

	removed, ok := r.Remove("s1")
	if !ok || removed != st {
		t.Fatal("expected remove to return state")
	}
	if _, ok := r.Remove("s1"); ok {
		t.Fatal("second remove must report not found")
	}
	if _, ok := r.Get("s1"); ok {
		t.Fatal("get after remove must report not found")
	}
}

func TestRegistryConcurrentCreateSingleWinner(t *testing.T) {
	r := NewRegistry()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Create("shared", newState("shared", nil)); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one successful create, got %d", wins.Load())
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}
}

func TestRegistryDrain(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("s%d", i)
		if err := r.Create(id, newState(id, nil)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if got := len(r.Drain()); got != 3 {
		t.Fatalf("expected 3 drained, got %d", got)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestStateCloseOnce(t *testing.T) {
	sink := &countingSink{}
	st := newState("s1", sink)
	if st.LastRowIndex() != -1 {
		t.Fatalf("expected initial row index -1, got %d", st.LastRowIndex())
	}
	if st.LastTemperature().Set {
		t.Fatal("expected unset temperature")
	}

	st.Lock()
	_ = st.Close()
	_ = st.Close()
	st.Unlock()

	if sink.closes.Load() != 1 {
		t.Fatalf("expected sink closed once, got %d", sink.closes.Load())
	}
	if !st.Closed() {
		t.Fatal("expected state closed")
	}
}

func TestStateAcceptAndReject(t *testing.T) {
	st := newState("s1", nil)
	st.Accept(3)
	st.Reject()
	st.Reject()
	if st.LastRowIndex() != 3 {
		t.Fatalf("expected row 3, got %d", st.LastRowIndex())
	}
	accepted, rejected := st.Counts()
	if accepted != 1 || rejected != 2 {
		t.Fatalf("expected 1/2, got %d/%d", accepted, rejected)
	}
}
