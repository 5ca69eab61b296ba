package deadletter

import (
	"sync"
	"time"

	"github.com/velic0/game-telemetry/internal/domain"
)

const DefaultCapacity = 1000

// Entry is one captured delivery failure.
type Entry struct {
	Event    domain.Event `json:"event"`
	Error    string       `json:"error"`
	FailedAt time.Time    `json:"failed_at"`
	Retries  int          `json:"retries"`
}

// Store is a bounded FIFO of failed deliveries. When full, the oldest
// entry is evicted to make room. It captures only; nothing in here is
// retried automatically, and the contents are lost on restart.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
	clock   func() time.Time
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		cap:   capacity,
		clock: time.Now,
	}
}

// Record captures a failed delivery with its error context, evicting the
// oldest entry first when the store is at capacity.
func (s *Store) Record(e domain.Event, deliveryErr error) {
	msg := ""
	if deliveryErr != nil {
		msg = deliveryErr.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.cap {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, Entry{
		Event:    e,
		Error:    msg,
		FailedAt: s.clock().UTC(),
	})
}

// Entries returns a copy of the current contents, oldest first. The
// backing storage is never exposed.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Capacity() int { return s.cap }
