// Package rating applies match outcomes to participant ratings.
package rating

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the per-pair rating swing constant.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.kFactor = k
		}
	}
}

// WithScale sets the Elo logistic scale (rating gap giving 10:1 odds).
func WithScale(scale float64) Option {
	return func(e *Engine) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// WithAlpha sets the distribution exponent: weaker members of winning teams
// receive a larger share of the gain, stronger members of losing teams a
// larger share of the loss.
func WithAlpha(alpha float64) Option {
	return func(e *Engine) {
		if alpha > 0 {
			e.alpha = alpha
		}
	}
}

// WithWeightFloor sets the minimum rating used when computing distribution
// weights, keeping the inverse weighting finite near zero.
func WithWeightFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 {
			e.weightFloor = floor
		}
	}
}
