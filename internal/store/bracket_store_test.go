package store

import (
	"context"
	"testing"
	"time"

	"github.com/azumag/JSMKC-sub006/internal/bracket"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func freshBracketRows(t *testing.T, bracketID uuid.UUID) []bracket.MatchState {
	t.Helper()

	templates, err := bracket.GenerateTemplates(bracket.BracketSize)
	require.NoError(t, err)

	now := time.Now().UTC()
	states := make([]bracket.MatchState, 0, len(templates))
	for _, tpl := range templates {
		states = append(states, bracket.MatchState{
			BracketID:   bracketID,
			MatchNumber: tpl.MatchNumber,
			Round:       tpl.Round,
			Version:     1,
			CreatedAt:   now,
		})
	}
	return states
}

func TestReplaceBracketAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewBracketStore(db)
	ctx := context.Background()
	bracketID := uuid.New()

	err := s.ReplaceBracket(ctx, bracketID, freshBracketRows(t, bracketID))
	require.NoError(t, err)

	matches, err := s.List(ctx, bracketID)
	require.NoError(t, err)
	require.Len(t, matches, bracket.MatchCount)

	for i, m := range matches {
		assert.Equal(t, i+1, m.MatchNumber, "rows must come back ordered by match number")
		assert.Equal(t, 1, m.Version)
		assert.False(t, m.Completed)
	}

	// Replacing again resets everything, including prior slot writes.
	playerID := uuid.New()
	require.NoError(t, s.TrySetSlot(ctx, bracketID, 5, 1, playerID, 1))

	err = s.ReplaceBracket(ctx, bracketID, freshBracketRows(t, bracketID))
	require.NoError(t, err)

	m, err := s.Get(ctx, bracketID, 5)
	require.NoError(t, err)
	assert.Nil(t, m.Player1ID)
	assert.Equal(t, 1, m.Version)
}

func TestGetUnknownMatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewBracketStore(db)
	ctx := context.Background()
	bracketID := uuid.New()

	require.NoError(t, s.ReplaceBracket(ctx, bracketID, freshBracketRows(t, bracketID)))

	_, err := s.Get(ctx, bracketID, 18)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrySetSlot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewBracketStore(db)
	ctx := context.Background()
	bracketID := uuid.New()
	playerID := uuid.New()

	require.NoError(t, s.ReplaceBracket(ctx, bracketID, freshBracketRows(t, bracketID)))

	err := s.TrySetSlot(ctx, bracketID, 9, 1, playerID, 1)
	require.NoError(t, err)

	m, err := s.Get(ctx, bracketID, 9)
	require.NoError(t, err)
	require.NotNil(t, m.Player1ID)
	assert.Equal(t, playerID, *m.Player1ID)
	assert.Nil(t, m.Player2ID)
	assert.Equal(t, 2, m.Version, "a slot write bumps the version")

	// Stale version loses.
	err = s.TrySetSlot(ctx, bracketID, 9, 2, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	err = s.TrySetSlot(ctx, bracketID, 18, 1, playerID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.TrySetSlot(ctx, bracketID, 9, 3, playerID, 2)
	assert.Error(t, err)
}

func TestMarkCompleted(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewBracketStore(db)
	ctx := context.Background()
	bracketID := uuid.New()
	winnerID := uuid.New()
	loserID := uuid.New()

	require.NoError(t, s.ReplaceBracket(ctx, bracketID, freshBracketRows(t, bracketID)))

	err := s.MarkCompleted(ctx, bracketID, 1, winnerID, &loserID, 1)
	require.NoError(t, err)

	m, err := s.Get(ctx, bracketID, 1)
	require.NoError(t, err)
	assert.True(t, m.Completed)
	require.NotNil(t, m.WinnerID)
	require.NotNil(t, m.LoserID)
	assert.Equal(t, winnerID, *m.WinnerID)
	assert.Equal(t, loserID, *m.LoserID)
	assert.Equal(t, 2, m.Version)

	err = s.MarkCompleted(ctx, bracketID, 1, winnerID, &loserID, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Walkover completions carry no loser.
	err = s.MarkCompleted(ctx, bracketID, 11, winnerID, nil, 1)
	require.NoError(t, err)

	m, err = s.Get(ctx, bracketID, 11)
	require.NoError(t, err)
	assert.True(t, m.Completed)
	require.NotNil(t, m.WinnerID)
	assert.Nil(t, m.LoserID)
}
