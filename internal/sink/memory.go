package sink

import (
	"context"
	"sync"
	"time"

	"github.com/velic0/game-telemetry/internal/domain"
)

// Memory keeps every accepted record in order. Non-durable; used by tests
// and as an explicit fallback when the durable sink cannot be built.
type Memory struct {
	mu      sync.Mutex
	records []domain.Record
	clock   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{clock: time.Now}
}

func (m *Memory) Send(_ context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, domain.Enrich(e, m.clock()))
	return nil
}

func (m *Memory) SendBatch(_ context.Context, events []domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.records = append(m.records, domain.Enrich(e, m.clock()))
	}
	return nil
}

func (m *Memory) Healthy(context.Context) bool { return true }

// Records returns a copy of everything accepted so far, in submission
// order.
func (m *Memory) Records() []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Record, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
