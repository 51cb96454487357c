package realtime

import (
	"encoding/json"

	"go-dashboard/internal/features/widget"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the serialized widget list and theme. Two states with
// the same fingerprint are treated as the same document content.
func Fingerprint(widgets []widget.Widget, theme string) uint64 {
	h := xxhash.New()
	if widgets == nil {
		widgets = []widget.Widget{}
	}
	b, err := json.Marshal(widgets)
	if err != nil {
		// Widgets only hold JSON-native values; fall back to the ids.
		for _, w := range widgets {
			_, _ = h.WriteString(w.ID)
		}
	} else {
		_, _ = h.Write(b)
	}
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(theme)
	return h.Sum64()
}

// WidgetsFingerprint hashes only the widget list.
func WidgetsFingerprint(widgets []widget.Widget) uint64 {
	return Fingerprint(widgets, "")
}
