package document

import (
	"context"
	"fmt"

	"go-dashboard/internal/database"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// FirestoreRepository keeps each dashboard at dashboards/{id} with its
// presence records in the dashboards/{id}/presence subcollection.
type FirestoreRepository struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewFirestoreRepository(db *database.FirestoreDB, log *zap.Logger) *FirestoreRepository {
	return &FirestoreRepository{client: db.Client, log: log}
}

func (r *FirestoreRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection("dashboards").Doc(id)
}

func (r *FirestoreRepository) presenceCol(dashboardID string) *firestore.CollectionRef {
	return r.doc(dashboardID).Collection("presence")
}

func (r *FirestoreRepository) Get(ctx context.Context, id string) (*Dashboard, error) {
	snap, err := r.doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return DashboardFromMap(id, snap.Data()), nil
}

func (r *FirestoreRepository) Subscribe(ctx context.Context, id string, fn SnapshotFunc) error {
	it := r.doc(id).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					r.log.Error("Dashboard listener stopped", zap.String("dashboardId", id), zap.Error(err))
				}
				return
			}
			if !snap.Exists() {
				fn(nil)
				continue
			}
			fn(DashboardFromMap(id, snap.Data()))
		}
	}()
	return nil
}

func (r *FirestoreRepository) Write(ctx context.Context, id string, patch Patch) error {
	data := make(map[string]any, len(patch))
	for k, v := range patch {
		if v == ServerTimestamp {
			data[k] = firestore.ServerTimestamp
			continue
		}
		data[k] = storedValue(v)
	}
	if _, err := r.doc(id).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) SubscribeOnlinePresence(ctx context.Context, dashboardID string, fn PresenceFunc) error {
	it := r.presenceCol(dashboardID).Where("isOnline", "==", true).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					r.log.Error("Presence listener stopped", zap.String("dashboardId", dashboardID), zap.Error(err))
				}
				return
			}
			online, err := r.collect(qs.Documents)
			if err != nil {
				r.log.Warn("Failed to read presence snapshot", zap.Error(err))
				continue
			}
			fn(online)
		}
	}()
	return nil
}

func (r *FirestoreRepository) UpsertPresence(ctx context.Context, dashboardID string, p Presence) error {
	var lastSeen any = p.LastSeen
	if p.LastSeen.IsZero() {
		lastSeen = firestore.ServerTimestamp
	}
	_, err := r.presenceCol(dashboardID).Doc(p.UserID).Set(ctx, map[string]any{
		"userId":   p.UserID,
		"lastSeen": lastSeen,
		"isOnline": p.IsOnline,
	})
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) ListPresence(ctx context.Context, dashboardID string) ([]Presence, error) {
	return r.collect(r.presenceCol(dashboardID).Documents(ctx))
}

func (r *FirestoreRepository) DeletePresence(ctx context.Context, dashboardID, userID string) error {
	if _, err := r.presenceCol(dashboardID).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) collect(iter *firestore.DocumentIterator) ([]Presence, error) {
	defer iter.Stop()

	out := []Presence{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate presence: %w", err)
		}

		var p Presence
		if err := doc.DataTo(&p); err != nil {
			r.log.Warn("Skipping unreadable presence record", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		if p.UserID == "" {
			p.UserID = doc.Ref.ID
		}
		out = append(out, p)
	}
	return out, nil
}
