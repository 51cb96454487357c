package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/session"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("dashboard not found")

// DocumentReader is the read side of the dashboard document store.
type DocumentReader interface {
	Get(ctx context.Context, id string) (*document.Dashboard, error)
	ListPresence(ctx context.Context, dashboardID string) ([]document.Presence, error)
}

// SessionLister reports the live sessions bound to a dashboard.
type SessionLister interface {
	Sessions(dashboardID string) []session.Info
}

type DashboardService interface {
	GetDashboard(ctx context.Context, id string) (*document.Dashboard, error)
	GetPresence(ctx context.Context, id string) (*PresenceView, error)
	ExportDashboard(ctx context.Context, id string) (*Export, error)
}

type DashboardServiceImpl struct {
	Documents  DocumentReader
	Sessions   SessionLister
	StaleAfter time.Duration
	Now        func() time.Time
	log        *zap.Logger
}

func NewDashboardService(docs document.Repository, hub *session.Hub, cfg *config.Config, log *zap.Logger) DashboardService {
	return &DashboardServiceImpl{
		Documents:  docs,
		Sessions:   hub,
		StaleAfter: cfg.PresenceStaleAfter,
		Now:        time.Now,
		log:        log,
	}
}

func (s *DashboardServiceImpl) GetDashboard(ctx context.Context, id string) (*document.Dashboard, error) {
	doc, err := s.Documents.Get(ctx, id)
	if errors.Is(err, document.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dashboard %s: %w", id, err)
	}
	return doc, nil
}

// GetPresence lists every stored record. Active users are the online ones
// that are not stale yet.
func (s *DashboardServiceImpl) GetPresence(ctx context.Context, id string) (*PresenceView, error) {
	records, err := s.Documents.ListPresence(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list presence of %s: %w", id, err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })

	now := s.Now()
	active := make([]string, 0, len(records))
	for _, p := range records {
		if p.IsOnline && !p.IsStale(now, s.StaleAfter) {
			active = append(active, p.UserID)
		}
	}

	var sessions []session.Info
	if s.Sessions != nil {
		sessions = s.Sessions.Sessions(id)
	}
	if sessions == nil {
		sessions = []session.Info{}
	}

	return &PresenceView{
		DashboardID: id,
		ActiveUsers: active,
		Records:     records,
		Sessions:    sessions,
		CheckedAt:   now,
	}, nil
}

func (s *DashboardServiceImpl) ExportDashboard(ctx context.Context, id string) (*Export, error) {
	doc, err := s.GetDashboard(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := exportXLSX(doc, s.log)
	if err != nil {
		return nil, fmt.Errorf("export dashboard %s: %w", id, err)
	}
	return &Export{Filename: id + ".xlsx", Data: data}, nil
}
