package dashboard

import (
	"time"

	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/session"
)

// PresenceView combines the stored presence records of a dashboard with the
// sessions this process is serving for it.
type PresenceView struct {
	DashboardID string              `json:"dashboardId"`
	ActiveUsers []string            `json:"activeUsers"`
	Records     []document.Presence `json:"records"`
	Sessions    []session.Info      `json:"sessions"`
	CheckedAt   time.Time           `json:"checkedAt"`
}

// Export is a rendered spreadsheet ready to be sent.
type Export struct {
	Filename string
	Data     []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
