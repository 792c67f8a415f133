package resume

import (
	"context"

	"github.com/adi-uchiha/jems/pkg/kernel"
)

// SnapshotRepository loads the grounding view of a user's active résumé
type SnapshotRepository interface {
	// LoadActive returns the user's most recently updated active résumé, or
	// (nil, nil) when the user has none — absence is an expected state, not
	// an error.
	LoadActive(ctx context.Context, userID kernel.UserID) (*Snapshot, error)
}
