// Package blob resolves the structured naming protocol against object
// stores. It is read-side only: archives are committed locally (see the
// archive package) and uploaded by external tooling; this package maps
// tree paths onto object keys and fetches entries into heap regions.
package blob

import (
	"context"
)

// Store fetches whole objects by key.
//
// Implementations must map missing objects to an error satisfying
// `errors.Is(err, mapped.ErrNotFound)` and be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}
