package document

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go-dashboard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoRepository stores dashboards in the "dashboards" collection keyed by
// dashboard id and presence records in "presence". Change streams drive the
// subscriptions; on a deployment without change streams (standalone server)
// it falls back to polling.
type MongoRepository struct {
	dashboards   *mongo.Collection
	presence     *mongo.Collection
	log          *zap.Logger
	pollInterval time.Duration
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  bson.M `bson:"fullDocument"`
}

type presenceDoc struct {
	ID          string `bson:"_id"`
	DashboardID string `bson:"dashboardId"`
	Presence    `bson:",inline"`
}

func NewMongoRepository(db *database.MongodbDB, log *zap.Logger) *MongoRepository {
	return &MongoRepository{
		dashboards:   db.DB.Collection("dashboards"),
		presence:     db.DB.Collection("presence"),
		log:          log,
		pollInterval: 2 * time.Second,
	}
}

// EnsureIndexes creates the presence lookup index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.presence.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dashboardId", Value: 1}, {Key: "isOnline", Value: 1}},
	})
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Dashboard, error) {
	var raw bson.M
	err := r.dashboards.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeDashboard(id, raw), nil
}

func (r *MongoRepository) Subscribe(ctx context.Context, id string, fn SnapshotFunc) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
	stream, err := r.dashboards.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		r.log.Warn("Change streams unavailable, polling dashboard",
			zap.String("dashboardId", id),
			zap.Error(err),
		)
		go r.pollDocument(ctx, id, fn)
		return nil
	}

	go func() {
		defer stream.Close(context.Background())

		r.emitCurrent(ctx, id, fn)
		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				r.log.Warn("Undecodable dashboard change", zap.Error(err))
				continue
			}
			switch {
			case ev.OperationType == "delete":
				fn(nil)
			case ev.FullDocument != nil:
				fn(decodeDashboard(id, ev.FullDocument))
			default:
				r.emitCurrent(ctx, id, fn)
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			r.log.Error("Dashboard change stream stopped", zap.String("dashboardId", id), zap.Error(err))
		}
	}()
	return nil
}

func (r *MongoRepository) emitCurrent(ctx context.Context, id string, fn SnapshotFunc) {
	doc, err := r.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		fn(nil)
	case err != nil:
		if ctx.Err() == nil {
			r.log.Error("Failed to read dashboard", zap.String("dashboardId", id), zap.Error(err))
		}
	default:
		fn(doc)
	}
}

func (r *MongoRepository) pollDocument(ctx context.Context, id string, fn SnapshotFunc) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	first := true
	var lastSeen time.Time
	var existed bool
	for {
		doc, err := r.Get(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			if first || existed {
				fn(nil)
			}
			existed = false
		case err != nil:
			if ctx.Err() == nil {
				r.log.Warn("Dashboard poll failed", zap.String("dashboardId", id), zap.Error(err))
			}
		default:
			if first || !existed || !doc.UpdatedAt.Equal(lastSeen) {
				fn(doc)
			}
			existed = true
			lastSeen = doc.UpdatedAt
		}
		first = false

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *MongoRepository) Write(ctx context.Context, id string, patch Patch) error {
	set := bson.M{}
	current := bson.M{}
	for k, v := range patch {
		if v == ServerTimestamp {
			current[k] = true
			continue
		}
		set[k] = storedValue(v)
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(current) > 0 {
		update["$currentDate"] = current
	}
	if len(update) == 0 {
		return nil
	}

	_, err := r.dashboards.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write dashboard %s: %w", id, err)
	}
	return nil
}

func presenceKey(dashboardID, userID string) string {
	return dashboardID + ":" + userID
}

func (r *MongoRepository) SubscribeOnlinePresence(ctx context.Context, dashboardID string, fn PresenceFunc) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{
			Key:   "documentKey._id",
			Value: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(dashboardID+":")},
		}}}},
	}
	stream, err := r.presence.Watch(ctx, pipeline)
	if err != nil {
		r.log.Warn("Change streams unavailable, polling presence",
			zap.String("dashboardId", dashboardID),
			zap.Error(err),
		)
		go r.pollPresence(ctx, dashboardID, fn)
		return nil
	}

	go func() {
		defer stream.Close(context.Background())

		r.emitOnline(ctx, dashboardID, fn)
		for stream.Next(ctx) {
			r.emitOnline(ctx, dashboardID, fn)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			r.log.Error("Presence change stream stopped", zap.String("dashboardId", dashboardID), zap.Error(err))
		}
	}()
	return nil
}

func (r *MongoRepository) pollPresence(ctx context.Context, dashboardID string, fn PresenceFunc) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		r.emitOnline(ctx, dashboardID, fn)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *MongoRepository) emitOnline(ctx context.Context, dashboardID string, fn PresenceFunc) {
	online, err := r.findPresence(ctx, bson.M{"dashboardId": dashboardID, "isOnline": true})
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error("Failed to read online presence", zap.String("dashboardId", dashboardID), zap.Error(err))
		}
		return
	}
	fn(online)
}

func (r *MongoRepository) UpsertPresence(ctx context.Context, dashboardID string, p Presence) error {
	_, err := r.presence.UpdateOne(ctx,
		bson.M{"_id": presenceKey(dashboardID, p.UserID)},
		presenceUpdate(dashboardID, p),
		options.Update().SetUpsert(true),
	)
	return err
}

// presenceUpdate builds the upsert for p. A zero LastSeen is left to the
// server through $currentDate.
func presenceUpdate(dashboardID string, p Presence) bson.M {
	set := bson.M{
		"dashboardId": dashboardID,
		"userId":      p.UserID,
		"isOnline":    p.IsOnline,
	}
	if p.LastSeen.IsZero() {
		return bson.M{"$set": set, "$currentDate": bson.M{"lastSeen": true}}
	}
	set["lastSeen"] = p.LastSeen
	return bson.M{"$set": set}
}

func (r *MongoRepository) ListPresence(ctx context.Context, dashboardID string) ([]Presence, error) {
	return r.findPresence(ctx, bson.M{"dashboardId": dashboardID})
}

func (r *MongoRepository) findPresence(ctx context.Context, filter bson.M) ([]Presence, error) {
	cursor, err := r.presence.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "userId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []presenceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]Presence, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Presence)
	}
	return out, nil
}

func (r *MongoRepository) DeletePresence(ctx context.Context, dashboardID, userID string) error {
	_, err := r.presence.DeleteOne(ctx, bson.M{"_id": presenceKey(dashboardID, userID)})
	return err
}

func decodeDashboard(id string, raw bson.M) *Dashboard {
	m, _ := normalizeBSON(raw).(map[string]any)
	return DashboardFromMap(id, m)
}

// normalizeBSON turns decoded BSON containers and dates into plain Go
// maps, slices and time values.
func normalizeBSON(v any) any {
	switch val := v.(type) {
	case primitive.M:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalizeBSON(e.Value)
		}
		return m
	case primitive.A:
		return normalizeSlice(val)
	case []any:
		return normalizeSlice(val)
	case primitive.DateTime:
		return val.Time()
	}
	return v
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeBSON(v)
	}
	return out
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalizeBSON(v)
	}
	return out
}
