package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azumag/JSMKC-sub006/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BracketStore persists match state in SQLite. Conditional writes are plain
// UPDATEs guarded by the version column; zero affected rows means the caller
// lost the race (or the row never existed).
type BracketStore struct {
	db *sqlx.DB
}

func NewBracketStore(db *sqlx.DB) *BracketStore {
	return &BracketStore{db: db}
}

var _ MatchStore = (*BracketStore)(nil)

func (s *BracketStore) ReplaceBracket(ctx context.Context, bracketID uuid.UUID, matches []bracket.MatchState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bracket_matches WHERE bracket_id = ?", bracketID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM brackets WHERE id = ?", bracketID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO brackets (id) VALUES (?)", bracketID); err != nil {
		return err
	}
	if len(matches) > 0 {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO bracket_matches (bracket_id, match_number, round, player_1_id, player_2_id, completed, winner_id, loser_id, version, created_at)
			VALUES (:bracket_id, :match_number, :round, :player_1_id, :player_2_id, :completed, :winner_id, :loser_id, :version, :created_at)`, matches)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *BracketStore) Get(ctx context.Context, bracketID uuid.UUID, matchNumber int) (*bracket.MatchState, error) {
	var m bracket.MatchState
	err := s.db.GetContext(ctx, &m, "SELECT * FROM bracket_matches WHERE bracket_id = ? AND match_number = ?", bracketID, matchNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *BracketStore) List(ctx context.Context, bracketID uuid.UUID) ([]bracket.MatchState, error) {
	var matches []bracket.MatchState
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM bracket_matches WHERE bracket_id = ? ORDER BY match_number ASC", bracketID)
	return matches, err
}

func (s *BracketStore) TrySetSlot(ctx context.Context, bracketID uuid.UUID, matchNumber, position int, playerID uuid.UUID, expectedVersion int) error {
	column, err := slotColumn(position)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE bracket_matches SET %s = ?, version = version + 1
		WHERE bracket_id = ? AND match_number = ? AND version = ?`, column),
		playerID, bracketID, matchNumber, expectedVersion)
	if err != nil {
		return err
	}
	return s.checkConditionalWrite(ctx, res, bracketID, matchNumber)
}

func (s *BracketStore) MarkCompleted(ctx context.Context, bracketID uuid.UUID, matchNumber int, winnerID uuid.UUID, loserID *uuid.UUID, expectedVersion int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bracket_matches SET completed = 1, winner_id = ?, loser_id = ?, version = version + 1
		WHERE bracket_id = ? AND match_number = ? AND version = ?`,
		winnerID, loserID, bracketID, matchNumber, expectedVersion)
	if err != nil {
		return err
	}
	return s.checkConditionalWrite(ctx, res, bracketID, matchNumber)
}

func slotColumn(position int) (string, error) {
	switch position {
	case 1:
		return "player_1_id", nil
	case 2:
		return "player_2_id", nil
	}
	return "", fmt.Errorf("invalid slot position %d", position)
}

// checkConditionalWrite distinguishes a lost version race from a missing row
// when a guarded UPDATE touched nothing.
func (s *BracketStore) checkConditionalWrite(ctx context.Context, res sql.Result, bracketID uuid.UUID, matchNumber int) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM bracket_matches WHERE bracket_id = ? AND match_number = ?", bracketID, matchNumber); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
