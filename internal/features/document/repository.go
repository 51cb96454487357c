package document

import (
	"context"
	"fmt"

	"go-dashboard/internal/config"
	"go-dashboard/internal/database"

	"go.uber.org/zap"
)

// SnapshotFunc receives the current document each time it changes. doc is
// nil while the document does not exist.
type SnapshotFunc func(doc *Dashboard)

// PresenceFunc receives the full set of online presence records each time
// it changes.
type PresenceFunc func(online []Presence)

// Repository is the remote boundary of the sync engine: a document store
// with per-document change notification, merge writes and a presence
// collection under each dashboard.
//
// Subscribe and SubscribeOnlinePresence return once the listener is
// registered and deliver asynchronously until ctx is cancelled.
type Repository interface {
	Get(ctx context.Context, id string) (*Dashboard, error)
	Subscribe(ctx context.Context, id string, fn SnapshotFunc) error
	Write(ctx context.Context, id string, patch Patch) error

	SubscribeOnlinePresence(ctx context.Context, dashboardID string, fn PresenceFunc) error
	UpsertPresence(ctx context.Context, dashboardID string, p Presence) error
	ListPresence(ctx context.Context, dashboardID string) ([]Presence, error)
	DeletePresence(ctx context.Context, dashboardID, userID string) error
}

// NewRepository returns the repository for the configured store driver.
func NewRepository(cfg *config.Config, mongodb *database.MongodbDB, fs *database.FirestoreDB, log *zap.Logger) (Repository, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		if !mongodb.Enabled() {
			return nil, fmt.Errorf("mongo store selected but no database connection")
		}
		return NewMongoRepository(mongodb, log), nil
	case config.StoreFirestore:
		if !fs.Enabled() {
			return nil, fmt.Errorf("firestore store selected but no client")
		}
		return NewFirestoreRepository(fs, log), nil
	case config.StoreMemory:
		log.Info("Using in-process dashboard store")
		return NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
