package document

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-dashboard/internal/features/widget"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type snapshotRecorder struct {
	mu    sync.Mutex
	calls []*Dashboard
}

func (r *snapshotRecorder) record(d *Dashboard) {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
}

func (r *snapshotRecorder) last() (*Dashboard, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil, 0
	}
	return r.calls[len(r.calls)-1], len(r.calls)
}

func TestMemoryRepositoryGetMissing(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryMergeWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fixed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return fixed })

	err := repo.Write(ctx, "d1", Patch{
		FieldWidgets:        []widget.Widget{},
		FieldTheme:          "light",
		FieldCreatedAt:      ServerTimestamp,
		FieldUpdatedAt:      ServerTimestamp,
		FieldLastModifiedBy: "user-a",
		FieldUserID:         "uid-a",
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	w, _ := widget.New(widget.TypeText, 50, 50)
	err = repo.Write(ctx, "d1", Patch{
		FieldWidgets:        []widget.Widget{w},
		FieldTheme:          "dark",
		FieldUpdatedAt:      ServerTimestamp,
		FieldLastModifiedBy: "user-b",
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	doc, err := repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.UserID != "uid-a" || !doc.CreatedAt.Equal(fixed) {
		t.Errorf("merge dropped creation fields: %+v", doc)
	}
	if doc.Theme != "dark" || doc.LastModifiedBy != "user-b" {
		t.Errorf("unexpected fields %+v", doc)
	}
	if len(doc.Widgets) != 1 || doc.Widgets[0].ID != w.ID || doc.Widgets[0].Text() == nil {
		t.Errorf("unexpected widgets %+v", doc.Widgets)
	}
}

func TestMemoryRepositorySubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewMemoryRepository()
	rec := &snapshotRecorder{}
	if err := repo.Subscribe(ctx, "d1", rec.record); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	waitFor(t, func() bool { _, n := rec.last(); return n >= 1 })
	if doc, _ := rec.last(); doc != nil {
		t.Errorf("expected nil snapshot for missing document, got %+v", doc)
	}

	_ = repo.Write(context.Background(), "d1", Patch{FieldTheme: "dark"})
	waitFor(t, func() bool {
		doc, _ := rec.last()
		return doc != nil && doc.Theme == "dark"
	})

	cancel()
	time.Sleep(20 * time.Millisecond)
	_, before := rec.last()
	_ = repo.Write(context.Background(), "d1", Patch{FieldTheme: "light"})
	time.Sleep(20 * time.Millisecond)
	if _, after := rec.last(); after != before {
		t.Error("listener called after cancellation")
	}
}

func TestMemoryRepositoryPresence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewMemoryRepository()
	now := time.Now()

	var mu sync.Mutex
	var online []Presence
	_ = repo.SubscribeOnlinePresence(ctx, "d1", func(ps []Presence) {
		mu.Lock()
		online = ps
		mu.Unlock()
	})

	_ = repo.UpsertPresence(ctx, "d1", Presence{UserID: "b", LastSeen: now, IsOnline: true})
	_ = repo.UpsertPresence(ctx, "d1", Presence{UserID: "a", LastSeen: now, IsOnline: true})
	_ = repo.UpsertPresence(ctx, "d1", Presence{UserID: "c", LastSeen: now, IsOnline: false})
	_ = repo.UpsertPresence(ctx, "other", Presence{UserID: "z", LastSeen: now, IsOnline: true})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(online) == 2 && online[0].UserID == "a" && online[1].UserID == "b"
	})

	all, _ := repo.ListPresence(ctx, "d1")
	if len(all) != 3 {
		t.Errorf("expected 3 records, got %d", len(all))
	}

	_ = repo.DeletePresence(ctx, "d1", "a")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(online) == 1 && online[0].UserID == "b"
	})
}

func TestUpsertPresenceStampsLastSeen(t *testing.T) {
	serverNow := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	writerNow := serverNow.Add(-time.Hour)

	tests := []struct {
		name string
		p    Presence
		want time.Time
	}{
		{name: "Zero Uses Store Clock", p: Presence{UserID: "a", IsOnline: true}, want: serverNow},
		{name: "Explicit Is Kept", p: Presence{UserID: "b", LastSeen: writerNow, IsOnline: true}, want: writerNow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryRepository()
			repo.SetClock(func() time.Time { return serverNow })

			if err := repo.UpsertPresence(context.Background(), "d1", tt.p); err != nil {
				t.Fatalf("UpsertPresence() error = %v", err)
			}
			all, _ := repo.ListPresence(context.Background(), "d1")
			if len(all) != 1 || !all[0].LastSeen.Equal(tt.want) {
				t.Errorf("stored presence = %+v, want lastSeen %v", all, tt.want)
			}
		})
	}
}

func TestPresenceUpdateUsesCurrentDate(t *testing.T) {
	update := presenceUpdate("d1", Presence{UserID: "a", IsOnline: true})
	set, _ := update["$set"].(bson.M)
	if _, ok := set["lastSeen"]; ok {
		t.Errorf("$set carries a client lastSeen: %v", set)
	}
	current, _ := update["$currentDate"].(bson.M)
	if current["lastSeen"] != true {
		t.Errorf("$currentDate = %v, want lastSeen", update["$currentDate"])
	}

	seen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	update = presenceUpdate("d1", Presence{UserID: "a", LastSeen: seen})
	if _, ok := update["$currentDate"]; ok {
		t.Errorf("explicit lastSeen should not use $currentDate: %v", update)
	}
	if set, _ := update["$set"].(bson.M); set["lastSeen"] != seen {
		t.Errorf("$set lastSeen = %v, want %v", set["lastSeen"], seen)
	}
}

func TestPresenceIsStale(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		p    Presence
		want bool
	}{
		{name: "Fresh", p: Presence{LastSeen: now.Add(-time.Minute)}, want: false},
		{name: "Old", p: Presence{LastSeen: now.Add(-6 * time.Minute)}, want: true},
		{name: "Old But Online", p: Presence{LastSeen: now.Add(-6 * time.Minute), IsOnline: true}, want: true},
		{name: "Never Seen", p: Presence{}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsStale(now, 5*time.Minute); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeBSONDates(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"updatedAt": primitive.NewDateTimeFromTime(ts),
		"widgets":   []any{map[string]any{"id": "w1", "type": "text", "x": int32(5)}},
	}
	d := DashboardFromMap("d1", normalizeBSON(raw).(map[string]any))
	if !d.UpdatedAt.Equal(ts) {
		t.Errorf("updatedAt = %v, want %v", d.UpdatedAt, ts)
	}
	if len(d.Widgets) != 1 || d.Widgets[0].X != 5 {
		t.Errorf("unexpected widgets %+v", d.Widgets)
	}
}
