// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error kinds.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the JSON registry snapshots.
	DataDir string `koanf:"data_dir"`

	// KFactor is the per-pair Elo swing constant.
	KFactor float64 `koanf:"k_factor"`

	// EloScale is the rating gap giving 10:1 expected odds.
	EloScale float64 `koanf:"elo_scale"`

	// DistributionAlpha shapes how team deltas are shared among members.
	DistributionAlpha float64 `koanf:"distribution_alpha"`

	// BalanceNodeBudget caps search nodes per team formation; 0 = unbounded.
	BalanceNodeBudget int64 `koanf:"balance_node_budget"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxRecentMatches caps GET /matches?limit.
	MaxRecentMatches int `koanf:"max_recent_matches"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9480",
		DataDir:             "data",
		KFactor:             4.0,
		EloScale:            400.0,
		DistributionAlpha:   0.6,
		BalanceNodeBudget:   0,
		MaxLeaderboardLimit: 100,
		MaxRecentMatches:    50,
	}
}
