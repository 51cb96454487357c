package document

import (
	"errors"
	"time"

	"go-dashboard/internal/features/widget"
)

var ErrNotFound = errors.New("dashboard document not found")

// Stored field names of a dashboard document.
const (
	FieldWidgets        = "widgets"
	FieldTheme          = "theme"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
	FieldLastModifiedBy = "lastModifiedBy"
	FieldUserID         = "userId"
	FieldUserEmail      = "userEmail"
)

// Dashboard is the shared remote document one dashboard id maps to.
type Dashboard struct {
	ID             string          `json:"id"`
	Widgets        []widget.Widget `json:"widgets"`
	Theme          string          `json:"theme"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	LastModifiedBy string          `json:"lastModifiedBy"`
	UserID         string          `json:"userId,omitempty"`
	UserEmail      string          `json:"userEmail,omitempty"`
}

// Presence is the liveness record of one writer on one dashboard.
// UpsertPresence stamps a zero LastSeen with the store's own clock.
type Presence struct {
	UserID   string    `json:"userId" bson:"userId" firestore:"userId"`
	LastSeen time.Time `json:"lastSeen" bson:"lastSeen" firestore:"lastSeen"`
	IsOnline bool      `json:"isOnline" bson:"isOnline" firestore:"isOnline"`
}

type serverTimestamp struct{}

// ServerTimestamp, used as a Patch value, asks the store to fill the field
// with its own clock at write time.
var ServerTimestamp any = serverTimestamp{}

// Patch is a merge write: listed fields are replaced, others are kept.
// Widget lists may be given as []widget.Widget.
type Patch map[string]any

// storedValue converts a patch value into the plain form the stores accept.
func storedValue(v any) any {
	switch val := v.(type) {
	case []widget.Widget:
		maps := widget.ToMaps(val)
		out := make([]any, len(maps))
		for i, m := range maps {
			out[i] = m
		}
		return out
	}
	return v
}

// DashboardFromMap decodes a stored document after its values have been
// normalized to plain Go types.
func DashboardFromMap(id string, m map[string]any) *Dashboard {
	d := &Dashboard{ID: id, Widgets: []widget.Widget{}}
	if list, ok := m[FieldWidgets].([]any); ok {
		d.Widgets = widget.FromList(list)
	}
	d.Theme, _ = m[FieldTheme].(string)
	d.LastModifiedBy, _ = m[FieldLastModifiedBy].(string)
	d.UserID, _ = m[FieldUserID].(string)
	d.UserEmail, _ = m[FieldUserEmail].(string)
	d.CreatedAt, _ = m[FieldCreatedAt].(time.Time)
	d.UpdatedAt, _ = m[FieldUpdatedAt].(time.Time)
	return d
}

// IsStale reports whether p was last seen longer than maxAge before now.
// A record that never reported lastSeen is stale.
func (p Presence) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(p.LastSeen) > maxAge
}
