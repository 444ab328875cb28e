package output

import (
	"context"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// SnapshotStore persists wizard progress across restarts
type SnapshotStore interface {
	// Snapshot saves the state without credentials
	Snapshot(ctx context.Context, state *registration.WizardState) error

	// Restore returns the saved state, or nil when there is none or it was unreadable
	Restore(ctx context.Context) (*registration.WizardState, error)

	// Clear removes the saved state
	Clear(ctx context.Context) error
}

// KeyValueStore is the durable backend under a SnapshotStore
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
