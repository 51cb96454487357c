package main

import (
	"context"
	"errors"
	"testing"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/geometry"
	"go-dashboard/internal/features/widget"

	"go.uber.org/zap"
)

func seedConfig() *config.Config {
	return &config.Config{CanvasWidth: 1200, CanvasHeight: 800}
}

func TestSeedDashboard(t *testing.T) {
	ctx := context.Background()
	repo := document.NewMemoryRepository()

	doc, err := seedDashboard(ctx, repo, seedConfig(), seedOptions{theme: "dark"}, zap.NewNop())
	if err != nil {
		t.Fatalf("seedDashboard() error = %v", err)
	}
	if doc.ID != "demo-dashboard" || doc.Theme != "dark" || doc.LastModifiedBy != seedWriter {
		t.Errorf("unexpected document %+v", doc)
	}
	if len(doc.Widgets) != len(demoLayout) {
		t.Fatalf("widgets = %d, want %d", len(doc.Widgets), len(demoLayout))
	}
	if doc.CreatedAt.IsZero() {
		t.Error("createdAt not set on a new dashboard")
	}

	items := widget.Items(doc.Widgets)
	for _, it := range items {
		if !geometry.Inside(it.Rect, 1200, 800) {
			t.Errorf("widget %s outside the canvas: %+v", it.ID, it.Rect)
		}
		if geometry.CheckOverlap(it.ID, it.Rect, items) {
			t.Errorf("widget %s overlaps another widget", it.ID)
		}
	}

	if _, err := seedDashboard(ctx, repo, seedConfig(), seedOptions{theme: "light"}, zap.NewNop()); !errors.Is(err, ErrDashboardExists) {
		t.Errorf("expected ErrDashboardExists, got %v", err)
	}

	doc, err = seedDashboard(ctx, repo, seedConfig(), seedOptions{theme: "light", force: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("forced seed error = %v", err)
	}
	if doc.Theme != "light" {
		t.Errorf("forced seed kept theme %q", doc.Theme)
	}
}

func TestSeedUserDashboard(t *testing.T) {
	repo := document.NewMemoryRepository()

	doc, err := seedDashboard(context.Background(), repo, seedConfig(),
		seedOptions{userID: "uid-3", email: "u3@example.com", theme: "light"}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != "dashboard-uid-3" || doc.UserID != "uid-3" || doc.UserEmail != "u3@example.com" {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := seedDashboard(context.Background(), repo, seedConfig(), seedOptions{theme: "sepia"}, zap.NewNop()); err == nil {
		t.Error("expected unknown theme to be rejected")
	}
}
