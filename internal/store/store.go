// Package store persists whole game states keyed by game code. Every write
// carries the version it produces; a write is refused unless the stored
// version is exactly one behind, so two writers can never both win.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
)

var (
	ErrNotFound        = errors.New("game not found")
	ErrExists          = errors.New("game already exists")
	ErrVersionConflict = errors.New("game version conflict")
)

type Record struct {
	Code      string
	Version   int
	State     engine.State
	UpdatedAt time.Time
}

type Store interface {
	// Create stores a new game at version 0.
	Create(ctx context.Context, code string, state engine.State) error
	Load(ctx context.Context, code string) (Record, error)
	// Save stores state as version, which must be the stored version + 1.
	Save(ctx context.Context, code string, version int, state engine.State) error
	Close() error
}

// Memory keeps games in process. Used when no database is configured and
// in tests.
type Memory struct {
	mu    sync.Mutex
	games map[string]Record
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{games: make(map[string]Record), now: time.Now}
}

func (m *Memory) Create(_ context.Context, code string, state engine.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[code]; ok {
		return ErrExists
	}
	m.games[code] = Record{Code: code, State: state.Clone(), UpdatedAt: m.now()}
	return nil
}

func (m *Memory) Load(_ context.Context, code string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[code]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.State = rec.State.Clone()
	return rec, nil
}

func (m *Memory) Save(_ context.Context, code string, version int, state engine.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[code]
	if !ok {
		return ErrNotFound
	}
	if rec.Version != version-1 {
		return ErrVersionConflict
	}
	m.games[code] = Record{Code: code, Version: version, State: state.Clone(), UpdatedAt: m.now()}
	return nil
}

func (m *Memory) Close() error { return nil }
