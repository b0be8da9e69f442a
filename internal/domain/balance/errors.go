package balance

import "errors"

// Sentinel kinds for team formation errors.
var (
	ErrInvalidTeamCount    = errors.New("team count must be at least 1")
	ErrInfeasibleTeamCount = errors.New("not enough participants for team count")
)
