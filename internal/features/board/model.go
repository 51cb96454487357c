package board

import "go-dashboard/internal/features/widget"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// State is the client-visible dashboard. SelectedWidgetID is empty when
// nothing is selected.
type State struct {
	Widgets          []widget.Widget `json:"widgets"`
	SelectedWidgetID string          `json:"selectedWidgetId,omitempty"`
	Theme            Theme           `json:"theme"`
	ActiveUsers      []string        `json:"activeUsers"`
	LastModifiedBy   string          `json:"lastModifiedBy,omitempty"`
	IsLoading        bool            `json:"isLoading"`
}

func InitialState() State {
	return State{
		Widgets:     []widget.Widget{},
		Theme:       ThemeLight,
		ActiveUsers: []string{},
		IsLoading:   true,
	}
}

// Find returns the widget with the given id.
func (s State) Find(id string) (widget.Widget, bool) {
	for _, w := range s.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return widget.Widget{}, false
}

// Intent is a requested state transition. The set of intents is closed.
type Intent interface {
	isIntent()
}

type AddWidget struct{ Widget widget.Widget }

// UpdateWidget shallow-merges Data into the widget with ID.
type UpdateWidget struct {
	ID   string
	Data map[string]any
}

type DeleteWidget struct{ ID string }

type SetSelected struct{ ID string }

type SetTheme struct{ Theme Theme }

type SetWidgets struct{ Widgets []widget.Widget }

type SetActiveUsers struct{ Users []string }

type SetLastModifiedBy struct{ Writer string }

type SetLoading struct{ Loading bool }

type ClearCanvas struct{}

func (AddWidget) isIntent()         {}
func (UpdateWidget) isIntent()      {}
func (DeleteWidget) isIntent()      {}
func (SetSelected) isIntent()       {}
func (SetTheme) isIntent()          {}
func (SetWidgets) isIntent()        {}
func (SetActiveUsers) isIntent()    {}
func (SetLastModifiedBy) isIntent() {}
func (SetLoading) isIntent()        {}
func (ClearCanvas) isIntent()       {}

// TouchesDocument reports whether an intent can change the part of the
// state that is persisted remotely (widgets and theme).
func TouchesDocument(i Intent) bool {
	switch i.(type) {
	case AddWidget, UpdateWidget, DeleteWidget, SetTheme, SetWidgets, ClearCanvas:
		return true
	}
	return false
}
