package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/layouts"
)

// ErrSessionClosed is returned when a finished session is committed or
// rolled back again.
var ErrSessionClosed = errors.New("engine: session already closed")

// MemoryBackend keeps every row in memory. Transactions are serialized:
// a session works on a snapshot of the stores that replaces them on commit.
type MemoryBackend struct {
	mu          sync.Mutex
	blocks      *blocks.MemoryStore
	layouts     *layouts.MemoryStore
	collections *collections.MemoryStore
}

// NewMemoryBackend creates an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		blocks:      blocks.NewMemoryStore(),
		layouts:     layouts.NewMemoryStore(),
		collections: collections.NewMemoryStore(),
	}
}

// Begin blocks until no other session is open.
func (b *MemoryBackend) Begin(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	return &memorySession{
		backend:     b,
		blocks:      b.blocks.Clone(),
		layouts:     b.layouts.Clone(),
		collections: b.collections.Clone(),
	}, nil
}

type memorySession struct {
	backend     *MemoryBackend
	blocks      *blocks.MemoryStore
	layouts     *layouts.MemoryStore
	collections *collections.MemoryStore
	done        bool
}

func (s *memorySession) Blocks() blocks.Gateway           { return s.blocks }
func (s *memorySession) Layouts() layouts.Gateway         { return s.layouts }
func (s *memorySession) Collections() collections.Gateway { return s.collections }

func (s *memorySession) Commit(context.Context) error {
	if s.done {
		return ErrSessionClosed
	}
	s.done = true
	s.backend.blocks = s.blocks
	s.backend.layouts = s.layouts
	s.backend.collections = s.collections
	s.backend.mu.Unlock()
	return nil
}

func (s *memorySession) Rollback(context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	s.backend.mu.Unlock()
	return nil
}
