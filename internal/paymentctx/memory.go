package paymentctx

import (
	"context"
	"sync"
	"time"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

type memoryEntry struct {
	pc        models.PaymentContext
	expiresAt time.Time
}

// MemoryStore хранит контексты в памяти процесса.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

// NewMemoryStore создаёт хранилище с заданным временем жизни записи.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry),
	}
}

func (s *MemoryStore) Save(ctx context.Context, userID int64, pc models.PaymentContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if pc.CreatedAt.IsZero() {
		pc.CreatedAt = now
	}
	s.entries[userID] = memoryEntry{pc: pc, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Consume(ctx context.Context, userID int64) (models.PaymentContext, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentContext{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return models.PaymentContext{}, ErrNotFound
	}
	delete(s.entries, userID)

	if !s.now().Before(entry.expiresAt) {
		return models.PaymentContext{}, ErrExpired
	}
	return entry.pc, nil
}

func (s *MemoryStore) Discard(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

func (s *MemoryStore) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}
