// Package balance forms rating-balanced teams from a participant pool.
package balance

// Option applies a configuration option to the Balancer.
type Option func(*Balancer)

// WithSeed fixes the RNG seed so repeated calls over the same participant
// multiset reproduce the identical partition. Without it every call derives
// a fresh seed from the participant ids and wall-clock entropy.
func WithSeed(seed uint64) Option {
	return func(b *Balancer) {
		b.seed = seed
		b.seeded = true
	}
}

// WithNodeBudget caps the number of search nodes expanded per call.
// When the budget runs out the best incumbent found so far is returned.
// A budget <= 0 leaves the search unbounded.
func WithNodeBudget(budget int64) Option {
	return func(b *Balancer) {
		b.nodeBudget = budget
	}
}
