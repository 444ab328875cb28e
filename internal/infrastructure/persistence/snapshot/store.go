package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// Key is the fixed storage key of the wizard snapshot
const Key = "registrationFormData"

// Store saves and restores wizard progress through a key-value backend
type Store struct {
	backend output.KeyValueStore
	logger  *zap.Logger
	now     func() time.Time
}

var _ output.SnapshotStore = (*Store)(nil)

// NewStore creates a snapshot store over backend
func NewStore(backend output.KeyValueStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger, now: time.Now}
}

// Snapshot implements output.SnapshotStore. Credentials never reach the backend.
func (s *Store) Snapshot(ctx context.Context, state *registration.WizardState) error {
	data, err := json.Marshal(state.Sanitized(s.now()))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.backend.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Restore implements output.SnapshotStore. Unreadable snapshots are deleted
// and reported as absent.
func (s *Store) Restore(ctx context.Context) (*registration.WizardState, error) {
	data, ok, err := s.backend.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var snap registration.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.discard(ctx, err)
		return nil, nil
	}
	state, err := registration.StateFromSnapshot(snap)
	if err != nil {
		s.discard(ctx, err)
		return nil, nil
	}
	return state, nil
}

func (s *Store) discard(ctx context.Context, cause error) {
	s.logger.Warn("discarding malformed snapshot", zap.Error(cause))
	if err := s.backend.Delete(ctx, Key); err != nil {
		s.logger.Warn("failed to delete malformed snapshot", zap.Error(err))
	}
}

// Clear implements output.SnapshotStore
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, Key); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
