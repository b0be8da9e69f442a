// Package repository holds the participant registry and match history.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithDataDir sets the directory holding the JSON snapshot files.
// Without it the store is purely in-memory and Load/Save are no-ops.
func WithDataDir(dir string) Option {
	return func(s *MemStore) {
		s.dataDir = dir
	}
}
