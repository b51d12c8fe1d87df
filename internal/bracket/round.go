package bracket

// Round identifies where a match sits in the double-elimination structure.
type Round string

const (
	RoundWinnersQF       Round = "winners_qf"
	RoundWinnersSF       Round = "winners_sf"
	RoundWinnersFinal    Round = "winners_final"
	RoundLosersR1        Round = "losers_r1"
	RoundLosersR2        Round = "losers_r2"
	RoundLosersR3        Round = "losers_r3"
	RoundLosersSF        Round = "losers_sf"
	RoundLosersFinal     Round = "losers_final"
	RoundGrandFinal      Round = "grand_final"
	RoundGrandFinalReset Round = "grand_final_reset"
)

type BracketSide string

const (
	WinnersSide    BracketSide = "winners"
	LosersSide     BracketSide = "losers"
	GrandFinalSide BracketSide = "grand_final"
)

// Side classifies the round for filtering; it carries no routing information.
func (r Round) Side() BracketSide {
	switch r {
	case RoundWinnersQF, RoundWinnersSF, RoundWinnersFinal:
		return WinnersSide
	case RoundLosersR1, RoundLosersR2, RoundLosersR3, RoundLosersSF, RoundLosersFinal:
		return LosersSide
	case RoundGrandFinal, RoundGrandFinalReset:
		return GrandFinalSide
	}
	return ""
}
