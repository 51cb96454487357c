package board

import "go-dashboard/internal/features/widget"

// Reduce applies intent to s and returns the next state. It never mutates
// the slices of s. Updates and deletes addressing an unknown id are no-ops.
func Reduce(s State, intent Intent) State {
	switch in := intent.(type) {
	case AddWidget:
		s.Widgets = appendWidget(s.Widgets, in.Widget)

	case UpdateWidget:
		if len(in.Data) == 0 {
			return s
		}
		next := make([]widget.Widget, len(s.Widgets))
		for i, w := range s.Widgets {
			if w.ID == in.ID {
				w = w.Merge(in.Data)
			}
			next[i] = w
		}
		s.Widgets = next

	case DeleteWidget:
		next := make([]widget.Widget, 0, len(s.Widgets))
		for _, w := range s.Widgets {
			if w.ID != in.ID {
				next = append(next, w)
			}
		}
		if len(next) == len(s.Widgets) {
			return s
		}
		s.Widgets = next
		if s.SelectedWidgetID == in.ID {
			s.SelectedWidgetID = ""
		}

	case SetSelected:
		s.SelectedWidgetID = in.ID

	case SetTheme:
		s.Theme = in.Theme

	case SetWidgets:
		s.Widgets = append([]widget.Widget{}, in.Widgets...)

	case SetActiveUsers:
		s.ActiveUsers = append([]string{}, in.Users...)

	case SetLastModifiedBy:
		s.LastModifiedBy = in.Writer

	case SetLoading:
		s.IsLoading = in.Loading

	case ClearCanvas:
		s.Widgets = []widget.Widget{}
		s.SelectedWidgetID = ""
	}
	return s
}

func appendWidget(ws []widget.Widget, w widget.Widget) []widget.Widget {
	next := make([]widget.Widget, 0, len(ws)+1)
	next = append(next, ws...)
	return append(next, w)
}
