package config

import (
	"errors"
)

// Sentinel error kinds for configuration loading. Callers match them with
// errors.Is; the wrapped message carries the offending key.
var (
	ErrInvalidConfig = errors.New("invalid scrim config")
	ErrLoadConfig    = errors.New("load scrim config failed")
)
