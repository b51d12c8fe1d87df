package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/azumag/JSMKC-sub006/internal/bracket"
	"github.com/azumag/JSMKC-sub006/internal/store"
	"github.com/google/uuid"
)

// slotWriteAttempts bounds the optimistic-concurrency retry loop for a single
// conditional write.
const slotWriteAttempts = 3

// BracketService generates finals brackets and advances players through them
// as adjudicated results arrive. It is the only writer of live match state.
type BracketService struct {
	store     store.MatchStore
	templates []bracket.MatchTemplate
}

func NewBracketService(matchStore store.MatchStore) *BracketService {
	templates, err := bracket.GenerateTemplates(bracket.BracketSize)
	if err != nil {
		panic(err)
	}
	return &BracketService{store: matchStore, templates: templates}
}

// Templates returns the static routing table.
func (s *BracketService) Templates() []bracket.MatchTemplate {
	return s.templates
}

// CreateBracket creates the 17 match rows for the given seeding order,
// seededPlayers[0] being seed 1. The quarterfinals are seeded immediately;
// every other match starts with both slots empty.
func (s *BracketService) CreateBracket(ctx context.Context, seededPlayers [bracket.BracketSize]uuid.UUID) (uuid.UUID, error) {
	bracketID := uuid.New()
	if err := s.RegenerateBracket(ctx, bracketID, seededPlayers); err != nil {
		return uuid.Nil, err
	}
	return bracketID, nil
}

// RegenerateBracket discards every match of the bracket and recreates the
// full set from the seeding order.
func (s *BracketService) RegenerateBracket(ctx context.Context, bracketID uuid.UUID, seededPlayers [bracket.BracketSize]uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(seededPlayers))
	for _, id := range seededPlayers {
		if id == uuid.Nil {
			return fmt.Errorf("seeded player ID must not be nil")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("player %s seeded twice", id)
		}
		seen[id] = struct{}{}
	}

	now := time.Now().UTC()
	states := make([]bracket.MatchState, 0, len(s.templates))
	for _, tpl := range s.templates {
		st := bracket.MatchState{
			BracketID:   bracketID,
			MatchNumber: tpl.MatchNumber,
			Round:       tpl.Round,
			Version:     1,
			CreatedAt:   now,
		}
		if tpl.Player1Seed != nil {
			id := seededPlayers[*tpl.Player1Seed-1]
			st.Player1ID = &id
		}
		if tpl.Player2Seed != nil {
			id := seededPlayers[*tpl.Player2Seed-1]
			st.Player2ID = &id
		}
		states = append(states, st)
	}
	return s.store.ReplaceBracket(ctx, bracketID, states)
}

// GetBracketSnapshot returns every match of the bracket ordered by match
// number; an unknown bracket yields an empty slice.
func (s *BracketService) GetBracketSnapshot(ctx context.Context, bracketID uuid.UUID) ([]bracket.MatchState, error) {
	return s.store.List(ctx, bracketID)
}

// Champion returns the tournament winner once one is decided. The winners
// bracket representative always sits in slot 1 of the grand final: an
// outright slot-1 win ends the tournament without a reset, a slot-2 win
// defers the decision to the reset match.
func (s *BracketService) Champion(ctx context.Context, bracketID uuid.UUID) (*uuid.UUID, error) {
	grandFinal, err := s.getMatch(ctx, bracketID, bracket.GrandFinalMatch)
	if err != nil {
		return nil, err
	}
	if !grandFinal.Completed || grandFinal.WinnerID == nil {
		return nil, nil
	}
	if grandFinal.Player1ID != nil && *grandFinal.WinnerID == *grandFinal.Player1ID {
		return grandFinal.WinnerID, nil
	}

	reset, err := s.getMatch(ctx, bracketID, bracket.GrandFinalResetMatch)
	if err != nil {
		return nil, err
	}
	if reset.Completed {
		return reset.WinnerID, nil
	}
	return nil, nil
}

// RecordResult applies one adjudicated result: it routes the winner and loser
// to their destination slots, then marks the source match completed. The
// completion write comes last so a partially routed advancement is never
// observed as a completed match. Replaying an identical result is a no-op
// that returns the same outcome.
func (s *BracketService) RecordResult(ctx context.Context, bracketID uuid.UUID, matchNumber int, winnerID, loserID uuid.UUID) (*bracket.AdvancementOutcome, error) {
	if matchNumber < 1 || matchNumber > bracket.MatchCount {
		return nil, fmt.Errorf("%w: match %d", bracket.ErrMatchNotFound, matchNumber)
	}
	tpl := s.templates[matchNumber-1]

	state, err := s.getMatch(ctx, bracketID, matchNumber)
	if err != nil {
		return nil, err
	}

	if state.Completed {
		return s.replayOutcome(tpl, state, winnerID, loserID)
	}

	if err := validateResult(state, winnerID, loserID); err != nil {
		return nil, err
	}

	outcome := buildOutcome(tpl, state, winnerID, loserID)

	if err := s.applyRouting(ctx, bracketID, outcome); err != nil {
		return nil, err
	}
	if err := s.completeMatch(ctx, bracketID, state, winnerID, loserID); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *BracketService) getMatch(ctx context.Context, bracketID uuid.UUID, matchNumber int) (*bracket.MatchState, error) {
	state, err := s.store.Get(ctx, bracketID, matchNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: match %d", bracket.ErrMatchNotFound, matchNumber)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func validateResult(state *bracket.MatchState, winnerID, loserID uuid.UUID) error {
	if !state.Seeded() {
		return fmt.Errorf("%w: match %d is not fully seeded", bracket.ErrInvalidResult, state.MatchNumber)
	}
	if winnerID == loserID {
		return fmt.Errorf("%w: winner and loser are the same player", bracket.ErrInvalidResult)
	}
	if state.SlotOf(winnerID) == 0 || state.SlotOf(loserID) == 0 {
		return fmt.Errorf("%w: submitted players are not the seated players of match %d", bracket.ErrInvalidResult, state.MatchNumber)
	}
	return nil
}

// replayOutcome handles a result submitted for an already-completed match:
// an exact repeat is acknowledged with the original outcome, anything else
// is a conflict.
func (s *BracketService) replayOutcome(tpl bracket.MatchTemplate, state *bracket.MatchState, winnerID, loserID uuid.UUID) (*bracket.AdvancementOutcome, error) {
	if state.WinnerID == nil || state.LoserID == nil || *state.WinnerID != winnerID || *state.LoserID != loserID {
		return nil, fmt.Errorf("%w: match %d", bracket.ErrResultConflict, tpl.MatchNumber)
	}
	return buildOutcome(tpl, state, winnerID, loserID), nil
}

// buildOutcome derives every routing decision for a result from the template
// and the winner's slot. It is deterministic, which is what makes replays
// return identical outcomes.
func buildOutcome(tpl bracket.MatchTemplate, state *bracket.MatchState, winnerID, loserID uuid.UUID) *bracket.AdvancementOutcome {
	outcome := &bracket.AdvancementOutcome{
		MatchNumber: tpl.MatchNumber,
		WinnerID:    winnerID,
		LoserID:     loserID,
	}

	switch tpl.Round {
	case bracket.RoundGrandFinal:
		if state.SlotOf(winnerID) == 1 {
			// The winners-bracket representative won outright; the reset is
			// never played.
			champion := winnerID
			outcome.ChampionID = &champion
			outcome.LoserEliminated = true
		} else {
			outcome.ResetActivated = true
			outcome.WinnerAdvancesTo = &bracket.SlotRef{MatchNumber: bracket.GrandFinalResetMatch, Position: 1}
			outcome.LoserAdvancesTo = &bracket.SlotRef{MatchNumber: bracket.GrandFinalResetMatch, Position: 2}
		}
	case bracket.RoundGrandFinalReset:
		champion := winnerID
		outcome.ChampionID = &champion
		outcome.LoserEliminated = true
	default:
		if tpl.WinnerGoesTo != nil {
			outcome.WinnerAdvancesTo = &bracket.SlotRef{MatchNumber: *tpl.WinnerGoesTo, Position: tpl.WinnerPosition}
		}
		if tpl.LoserGoesTo != nil {
			outcome.LoserAdvancesTo = &bracket.SlotRef{MatchNumber: *tpl.LoserGoesTo, Position: bracket.LoserPosition(tpl.Round, tpl.MatchNumber)}
		} else {
			outcome.LoserEliminated = true
		}
	}
	return outcome
}

func (s *BracketService) applyRouting(ctx context.Context, bracketID uuid.UUID, outcome *bracket.AdvancementOutcome) error {
	if dest := outcome.WinnerAdvancesTo; dest != nil {
		if err := s.seatPlayer(ctx, bracketID, dest.MatchNumber, dest.Position, outcome.WinnerID); err != nil {
			return err
		}
	}
	if dest := outcome.LoserAdvancesTo; dest != nil {
		if err := s.seatPlayer(ctx, bracketID, dest.MatchNumber, dest.Position, outcome.LoserID); err != nil {
			return err
		}
	}
	return nil
}

// seatPlayer writes a player into a destination slot. Walkover destinations
// complete immediately and forward the player to their next match.
func (s *BracketService) seatPlayer(ctx context.Context, bracketID uuid.UUID, matchNumber, position int, playerID uuid.UUID) error {
	for {
		if err := s.writeSlot(ctx, bracketID, matchNumber, position, playerID); err != nil {
			return err
		}
		tpl := s.templates[matchNumber-1]
		if !tpl.Walkover {
			return nil
		}
		if err := s.completeWalkover(ctx, bracketID, tpl, playerID); err != nil {
			return err
		}
		if tpl.WinnerGoesTo == nil {
			return nil
		}
		matchNumber, position = *tpl.WinnerGoesTo, tpl.WinnerPosition
	}
}

// writeSlot performs the version-checked read-modify-write for one slot. A
// slot already holding the same player is an idempotent re-application; a
// different occupant is a data-integrity failure and is not retried.
func (s *BracketService) writeSlot(ctx context.Context, bracketID uuid.UUID, matchNumber, position int, playerID uuid.UUID) error {
	for attempt := 0; attempt < slotWriteAttempts; attempt++ {
		dest, err := s.getMatch(ctx, bracketID, matchNumber)
		if err != nil {
			return err
		}
		if occupant := dest.PlayerAt(position); occupant != nil {
			if *occupant == playerID {
				return nil
			}
			return fmt.Errorf("%w: match %d slot %d already holds %s", bracket.ErrDestinationSlotConflict, matchNumber, position, occupant)
		}

		err = s.store.TrySetSlot(ctx, bracketID, matchNumber, position, playerID, dest.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: match %d slot %d write kept losing the version race", bracket.ErrDestinationSlotConflict, matchNumber, position)
}

// completeWalkover finishes a single-feeder match the moment its only player
// arrives. Walkovers have no loser, so they count as nobody's loss.
func (s *BracketService) completeWalkover(ctx context.Context, bracketID uuid.UUID, tpl bracket.MatchTemplate, playerID uuid.UUID) error {
	for attempt := 0; attempt < slotWriteAttempts; attempt++ {
		state, err := s.getMatch(ctx, bracketID, tpl.MatchNumber)
		if err != nil {
			return err
		}
		if state.Completed {
			if state.WinnerID != nil && *state.WinnerID == playerID {
				return nil
			}
			return fmt.Errorf("%w: walkover match %d", bracket.ErrResultConflict, tpl.MatchNumber)
		}

		err = s.store.MarkCompleted(ctx, bracketID, tpl.MatchNumber, playerID, nil, state.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: walkover match %d write kept losing the version race", bracket.ErrDestinationSlotConflict, tpl.MatchNumber)
}

// completeMatch marks the source match finished. A version conflict here
// means a concurrent submission for the same match; an identical one is
// absorbed, a different one surfaces as a result conflict.
func (s *BracketService) completeMatch(ctx context.Context, bracketID uuid.UUID, state *bracket.MatchState, winnerID, loserID uuid.UUID) error {
	loser := loserID
	for attempt := 0; attempt < slotWriteAttempts; attempt++ {
		err := s.store.MarkCompleted(ctx, bracketID, state.MatchNumber, winnerID, &loser, state.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}

		state, err = s.getMatch(ctx, bracketID, state.MatchNumber)
		if err != nil {
			return err
		}
		if state.Completed {
			if state.WinnerID != nil && *state.WinnerID == winnerID {
				return nil
			}
			return fmt.Errorf("%w: match %d", bracket.ErrResultConflict, state.MatchNumber)
		}
	}
	return fmt.Errorf("%w: match %d completion kept losing the version race", bracket.ErrDestinationSlotConflict, state.MatchNumber)
}
