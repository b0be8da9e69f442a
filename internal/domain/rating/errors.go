package rating

import "errors"

// Sentinel kinds for match application errors. Every failure is detected
// before the registry is touched; callers can retry with corrected input.
var (
	ErrNoTeams            = errors.New("match has no teams")
	ErrInvalidWinnerIndex = errors.New("invalid winning team index")
	ErrNumericInstability = errors.New("numerical instability (NaN/Inf)")
	ErrWeightSum          = errors.New("weight sum abnormal (<= 0)")
)
