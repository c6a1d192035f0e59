package network

import "context"

// Loader is the interface for a format-specific network loader.
type Loader interface {
	// Load reads every input file reachable from the given paths and merges
	// them into a single Network.
	Load(ctx context.Context, paths ...string) (*Network, error)
}
