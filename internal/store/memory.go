package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/azumag/JSMKC-sub006/internal/bracket"
	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory MatchStore with the same
// optimistic-write semantics as the SQLite store. It backs tests and
// ephemeral brackets.
type MemoryStore struct {
	mu       sync.Mutex
	brackets map[uuid.UUID][]bracket.MatchState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{brackets: make(map[uuid.UUID][]bracket.MatchState)}
}

var _ MatchStore = (*MemoryStore)(nil)

func (s *MemoryStore) ReplaceBracket(ctx context.Context, bracketID uuid.UUID, matches []bracket.MatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]bracket.MatchState, len(matches))
	copy(copied, matches)
	s.brackets[bracketID] = copied
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, bracketID uuid.UUID, matchNumber int) (*bracket.MatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.locate(bracketID, matchNumber)
	if m == nil {
		return nil, ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *MemoryStore) List(ctx context.Context, bracketID uuid.UUID) ([]bracket.MatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]bracket.MatchState, len(s.brackets[bracketID]))
	copy(matches, s.brackets[bracketID])
	return matches, nil
}

func (s *MemoryStore) TrySetSlot(ctx context.Context, bracketID uuid.UUID, matchNumber, position int, playerID uuid.UUID, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.locate(bracketID, matchNumber)
	if m == nil {
		return ErrNotFound
	}
	if m.Version != expectedVersion {
		return ErrVersionConflict
	}

	id := playerID
	switch position {
	case 1:
		m.Player1ID = &id
	case 2:
		m.Player2ID = &id
	default:
		return fmt.Errorf("invalid slot position %d", position)
	}
	m.Version++
	return nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, bracketID uuid.UUID, matchNumber int, winnerID uuid.UUID, loserID *uuid.UUID, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.locate(bracketID, matchNumber)
	if m == nil {
		return ErrNotFound
	}
	if m.Version != expectedVersion {
		return ErrVersionConflict
	}

	winner := winnerID
	m.Completed = true
	m.WinnerID = &winner
	if loserID != nil {
		loser := *loserID
		m.LoserID = &loser
	} else {
		m.LoserID = nil
	}
	m.Version++
	return nil
}

// locate returns a pointer into the live slice; callers must hold the mutex.
func (s *MemoryStore) locate(bracketID uuid.UUID, matchNumber int) *bracket.MatchState {
	rows := s.brackets[bracketID]
	for i := range rows {
		if rows[i].MatchNumber == matchNumber {
			return &rows[i]
		}
	}
	return nil
}
