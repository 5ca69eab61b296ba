package deadletter

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/velic0/game-telemetry/internal/domain"
)

func event(id string) domain.Event {
	return domain.Event{Type: domain.TypeInstall, EventID: id}
}

func TestStore_EvictsOldestFirst(t *testing.T) {
	const capacity = 5
	s := New(capacity)

	for i := 0; i < capacity+1; i++ {
		s.Record(event(fmt.Sprintf("evt_%d", i)), errors.New("sink down"))
	}

	entries := s.Entries()
	if len(entries) != capacity {
		t.Fatalf("Len = %d, want %d", len(entries), capacity)
	}
	if entries[0].Event.EventID == "evt_0" {
		t.Error("oldest entry evt_0 still present, want evicted")
	}
	if got := entries[len(entries)-1].Event.EventID; got != "evt_5" {
		t.Errorf("newest entry = %q, want evt_5", got)
	}
}

func TestStore_RecordsErrorContext(t *testing.T) {
	s := New(10)
	s.Record(event("evt_1"), errors.New("broker unreachable"))

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("Len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Error != "broker unreachable" {
		t.Errorf("Error = %q, want broker unreachable", e.Error)
	}
	if e.FailedAt.IsZero() {
		t.Error("FailedAt is zero, want a failure instant")
	}
	if e.Retries != 0 {
		t.Errorf("Retries = %d, want 0", e.Retries)
	}
}

func TestStore_EntriesIsACopy(t *testing.T) {
	s := New(10)
	s.Record(event("evt_1"), errors.New("x"))

	got := s.Entries()
	got[0].Event.EventID = "mutated"

	if s.Entries()[0].Event.EventID != "evt_1" {
		t.Error("mutating the returned slice changed the store contents")
	}
}

func TestStore_DefaultCapacity(t *testing.T) {
	if got := New(0).Capacity(); got != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", got, DefaultCapacity)
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	s := New(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Record(event(fmt.Sprintf("evt_%d_%d", n, j)), errors.New("x"))
			}
		}(i)
	}
	wg.Wait()

	if got := s.Len(); got != 100 {
		t.Errorf("Len = %d, want capacity 100", got)
	}
}
