package bracket

import (
	"fmt"

	"github.com/azumag/JSMKC-sub006/internal/utils"
)

const (
	// BracketSize is the only supported player count.
	BracketSize = 8
	// MatchCount is the fixed number of matches in the 8-player bracket.
	MatchCount = 17

	WinnersFinalMatch    = 7
	LosersFinalMatch     = 15
	GrandFinalMatch      = 16
	GrandFinalResetMatch = 17
)

// GenerateTemplates returns the fixed 17-match routing table for an 8-player
// double-elimination bracket, ordered by match number. It is pure and
// deterministic; the table is a published contract, not something derived at
// runtime.
//
// The quarterfinal seed pairs (1,8), (4,5), (2,7), (3,6) keep seeds 1 and 2
// in opposite halves so they cannot meet before the winners final. Losers
// round 2 has a single feeder per match (the winner of the corresponding
// losers round 1 match), so those two matches are walkovers.
func GenerateTemplates(playerCount int) ([]MatchTemplate, error) {
	if playerCount != BracketSize {
		return nil, fmt.Errorf("%w: got %d players, only %d supported", ErrUnsupportedBracketSize, playerCount, BracketSize)
	}

	templates := []MatchTemplate{
		// Winners quarterfinals. Losers of matches 1-2 pair up in match 9,
		// losers of matches 3-4 in match 10.
		{MatchNumber: 1, Round: RoundWinnersQF, Player1Seed: utils.Ptr(1), Player2Seed: utils.Ptr(8), WinnerGoesTo: utils.Ptr(5), WinnerPosition: 1, LoserGoesTo: utils.Ptr(9)},
		{MatchNumber: 2, Round: RoundWinnersQF, Player1Seed: utils.Ptr(4), Player2Seed: utils.Ptr(5), WinnerGoesTo: utils.Ptr(5), WinnerPosition: 2, LoserGoesTo: utils.Ptr(9)},
		{MatchNumber: 3, Round: RoundWinnersQF, Player1Seed: utils.Ptr(2), Player2Seed: utils.Ptr(7), WinnerGoesTo: utils.Ptr(6), WinnerPosition: 1, LoserGoesTo: utils.Ptr(10)},
		{MatchNumber: 4, Round: RoundWinnersQF, Player1Seed: utils.Ptr(3), Player2Seed: utils.Ptr(6), WinnerGoesTo: utils.Ptr(6), WinnerPosition: 2, LoserGoesTo: utils.Ptr(10)},

		// Winners semifinals. Losers drop into losers round 3 as slot 1.
		{MatchNumber: 5, Round: RoundWinnersSF, WinnerGoesTo: utils.Ptr(WinnersFinalMatch), WinnerPosition: 1, LoserGoesTo: utils.Ptr(13)},
		{MatchNumber: 6, Round: RoundWinnersSF, WinnerGoesTo: utils.Ptr(WinnersFinalMatch), WinnerPosition: 2, LoserGoesTo: utils.Ptr(14)},

		// Winners final. The winner takes slot 1 of the grand final; that
		// slot assignment is what the champion logic keys on.
		{MatchNumber: WinnersFinalMatch, Round: RoundWinnersFinal, WinnerGoesTo: utils.Ptr(GrandFinalMatch), WinnerPosition: 1, LoserGoesTo: utils.Ptr(LosersFinalMatch)},

		// Losers semifinal, fed by both losers round 3 matches.
		{MatchNumber: 8, Round: RoundLosersSF, WinnerGoesTo: utils.Ptr(LosersFinalMatch), WinnerPosition: 1},

		// Losers round 1: quarterfinal losers. Losing here is the second
		// loss, so there is no onward routing.
		{MatchNumber: 9, Round: RoundLosersR1, WinnerGoesTo: utils.Ptr(11), WinnerPosition: 1},
		{MatchNumber: 10, Round: RoundLosersR1, WinnerGoesTo: utils.Ptr(12), WinnerPosition: 1},

		// Losers round 2: single-feeder walkovers carried over from the
		// original 17-match layout.
		{MatchNumber: 11, Round: RoundLosersR2, WinnerGoesTo: utils.Ptr(13), WinnerPosition: 2, Walkover: true},
		{MatchNumber: 12, Round: RoundLosersR2, WinnerGoesTo: utils.Ptr(14), WinnerPosition: 2, Walkover: true},

		// Losers round 3: semifinal loser (slot 1) vs losers round 2 winner
		// (slot 2).
		{MatchNumber: 13, Round: RoundLosersR3, WinnerGoesTo: utils.Ptr(8), WinnerPosition: 1},
		{MatchNumber: 14, Round: RoundLosersR3, WinnerGoesTo: utils.Ptr(8), WinnerPosition: 2},

		// Losers final: losers semifinal winner vs winners final loser. The
		// winner meets the winners-bracket representative in the grand final.
		{MatchNumber: LosersFinalMatch, Round: RoundLosersFinal, WinnerGoesTo: utils.Ptr(GrandFinalMatch), WinnerPosition: 2},

		// Grand final. The template always points at the reset match;
		// whether the reset is actually played is an advancement decision.
		{MatchNumber: GrandFinalMatch, Round: RoundGrandFinal, WinnerGoesTo: utils.Ptr(GrandFinalResetMatch), WinnerPosition: 1},

		// Terminal.
		{MatchNumber: GrandFinalResetMatch, Round: RoundGrandFinalReset},
	}

	return templates, nil
}

// LoserPosition returns the slot a loser occupies in its LoserGoesTo match.
// The quarterfinal formula is carried over verbatim from the original
// bracket tables and is a contract, not a derivation. Rounds without a loser
// destination return 0.
func LoserPosition(round Round, matchNumber int) int {
	switch round {
	case RoundWinnersQF:
		return ((matchNumber - 1) % 2) + 1
	case RoundWinnersSF:
		return 1
	case RoundWinnersFinal:
		return 2
	default:
		return 0
	}
}
