package bracket

import (
	"time"

	"github.com/google/uuid"
)

// MatchTemplate is the immutable routing entry for one of the 17 matches of
// an 8-player double-elimination bracket. Matches reference each other by
// match number only, never by pointer, so the whole bracket stays a flat
// table with no reference cycles.
type MatchTemplate struct {
	MatchNumber int
	Round       Round

	// Seeds are set only for the four winners-bracket quarterfinals.
	Player1Seed *int
	Player2Seed *int

	// WinnerGoesTo names the match the winner advances to; nil only for the
	// grand final reset. WinnerPosition is the slot taken there.
	WinnerGoesTo   *int
	WinnerPosition int

	// LoserGoesTo is nil where a loss eliminates the player outright. The
	// slot the loser lands in depends on the source round, see LoserPosition.
	LoserGoesTo *int

	// Walkover marks a match with a single structural feeder; the player who
	// arrives is forwarded without playing.
	Walkover bool
}

func (t MatchTemplate) Side() BracketSide { return t.Round.Side() }

// MatchState is the mutable per-match row owned by the match store. Version
// increases on every write and guards the optimistic slot updates.
type MatchState struct {
	BracketID   uuid.UUID  `db:"bracket_id" json:"bracketId"`
	MatchNumber int        `db:"match_number" json:"matchNumber"`
	Round       Round      `db:"round" json:"round"`
	Player1ID   *uuid.UUID `db:"player_1_id" json:"player1Id"`
	Player2ID   *uuid.UUID `db:"player_2_id" json:"player2Id"`
	Completed   bool       `db:"completed" json:"completed"`
	WinnerID    *uuid.UUID `db:"winner_id" json:"winnerId"`
	LoserID     *uuid.UUID `db:"loser_id" json:"loserId"`
	Version     int        `db:"version" json:"version"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Seeded reports whether both slots are occupied.
func (m *MatchState) Seeded() bool {
	return m.Player1ID != nil && m.Player2ID != nil
}

// PlayerAt returns the occupant of slot 1 or 2, nil when empty.
func (m *MatchState) PlayerAt(position int) *uuid.UUID {
	if position == 1 {
		return m.Player1ID
	}
	return m.Player2ID
}

// SlotOf returns the slot the player occupies, or 0 when they are not seated.
func (m *MatchState) SlotOf(playerID uuid.UUID) int {
	if m.Player1ID != nil && *m.Player1ID == playerID {
		return 1
	}
	if m.Player2ID != nil && *m.Player2ID == playerID {
		return 2
	}
	return 0
}

// SlotRef names a destination slot in another match.
type SlotRef struct {
	MatchNumber int `json:"matchNumber"`
	Position    int `json:"position"`
}

// AdvancementOutcome describes every side effect of recording one result.
type AdvancementOutcome struct {
	MatchNumber int       `json:"matchNumber"`
	WinnerID    uuid.UUID `json:"winnerId"`
	LoserID     uuid.UUID `json:"loserId"`

	// WinnerAdvancesTo is nil when the winner is the champion.
	WinnerAdvancesTo *SlotRef `json:"winnerAdvancesTo"`
	// LoserAdvancesTo is nil when the loser is eliminated.
	LoserAdvancesTo *SlotRef `json:"loserAdvancesTo"`

	LoserEliminated bool `json:"loserEliminated"`
	// ResetActivated reports that this result newly populated the grand
	// final reset.
	ResetActivated bool       `json:"resetActivated"`
	ChampionID     *uuid.UUID `json:"championId"`
}
