package store

import (
	"context"
	"errors"

	"github.com/azumag/JSMKC-sub006/internal/bracket"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the addressed match row does not exist.
	ErrNotFound = errors.New("match row not found")
	// ErrVersionConflict is returned when a conditional write loses the race
	// against a concurrent update of the same row.
	ErrVersionConflict = errors.New("match row version conflict")
)

// MatchStore is the persistence boundary for live bracket state. Slot and
// completion writes are optimistic: they carry the version the caller last
// read and fail with ErrVersionConflict when the row has moved on, leaving
// retry policy to the caller.
type MatchStore interface {
	// ReplaceBracket discards any existing rows for the bracket and writes
	// the given set atomically.
	ReplaceBracket(ctx context.Context, bracketID uuid.UUID, matches []bracket.MatchState) error

	Get(ctx context.Context, bracketID uuid.UUID, matchNumber int) (*bracket.MatchState, error)

	// List returns every match of the bracket ordered by match number.
	List(ctx context.Context, bracketID uuid.UUID) ([]bracket.MatchState, error)

	// TrySetSlot writes a player into slot 1 or 2 of a match, conditional on
	// the row still being at expectedVersion.
	TrySetSlot(ctx context.Context, bracketID uuid.UUID, matchNumber, position int, playerID uuid.UUID, expectedVersion int) error

	// MarkCompleted finishes a match, conditional on expectedVersion. A nil
	// loser is allowed for walkover matches.
	MarkCompleted(ctx context.Context, bracketID uuid.UUID, matchNumber int, winnerID uuid.UUID, loserID *uuid.UUID, expectedVersion int) error
}
