package bracket

import "errors"

var (
	ErrUnsupportedBracketSize  = errors.New("unsupported bracket size")
	ErrMatchNotFound           = errors.New("match not found")
	ErrInvalidResult           = errors.New("invalid result")
	ErrResultConflict          = errors.New("match already completed with a different result")
	ErrDestinationSlotConflict = errors.New("destination slot conflict")
)
