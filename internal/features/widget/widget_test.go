package widget

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func TestNewDefaults(t *testing.T) {
	tests := []struct {
		typ    Type
		width  float64
		height float64
	}{
		{TypeText, 300, 150},
		{TypeChart, 400, 300},
		{TypeTable, 500, 300},
		{TypeButton, 200, 100},
		{TypeWeather, 250, 200},
		{TypeCalendar, 300, 350},
		{TypeImage, 300, 200},
		{TypeRating, 250, 120},
		{TypeRangeSlider, 300, 120},
		{TypeRadioGroup, 250, 200},
		{TypeMicrophone, 200, 150},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			w, err := New(tt.typ, 10, 20)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if w.ID == "" {
				t.Error("expected generated id")
			}
			if w.Type != tt.typ {
				t.Errorf("Type = %q, want %q", w.Type, tt.typ)
			}
			if w.X != 10 || w.Y != 20 {
				t.Errorf("position = (%v, %v), want (10, 20)", w.X, w.Y)
			}
			if w.Width != tt.width || w.Height != tt.height {
				t.Errorf("size = %vx%v, want %vx%v", w.Width, w.Height, tt.width, tt.height)
			}
			if w.Payload == nil || w.Payload.WidgetType() != tt.typ {
				t.Errorf("payload %T does not belong to %q", w.Payload, tt.typ)
			}
		})
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New(Type("sparkline"), 0, 0); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestNewIDsAreUnique(t *testing.T) {
	a, _ := New(TypeText, 0, 0)
	b, _ := New(TypeText, 0, 0)
	if a.ID == b.ID {
		t.Errorf("expected distinct ids, both %q", a.ID)
	}
}

func TestTextDefaults(t *testing.T) {
	w, _ := New(TypeText, 50, 50)
	p := w.Text()
	if p == nil {
		t.Fatal("expected text payload")
	}
	if got := p.HeadingOrDefault(); got != "New Heading" {
		t.Errorf("heading = %q", got)
	}
	if got := p.ContentOrDefault(); got != "Add your text content here..." {
		t.Errorf("content = %q", got)
	}
}

func TestDefaultEmbeddedPayloadsDecode(t *testing.T) {
	log := zap.NewNop()

	chart, _ := New(TypeChart, 0, 0)
	data := chart.Chart().Data(log)
	if len(data.Labels) != 6 || len(data.Datasets) != 1 || data.Datasets[0].Label != "Votes" {
		t.Errorf("unexpected chart data %+v", data)
	}

	table, _ := New(TypeTable, 0, 0)
	td := table.Table().Data(log)
	if len(td.Headers) != 4 || len(td.Rows) != 4 {
		t.Errorf("unexpected table data %+v", td)
	}

	cal, _ := New(TypeCalendar, 0, 0)
	if events := cal.Calendar().EventList(log); len(events) != 3 || events[0].Title != "Team Meeting" {
		t.Errorf("unexpected events %+v", events)
	}

	radio, _ := New(TypeRadioGroup, 0, 0)
	if opts := radio.RadioGroup().OptionList(log); len(opts) != 4 || opts[3] != "Option 4" {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestMalformedEmbeddedPayloadFallsBack(t *testing.T) {
	broken := "{not json"
	log := zap.NewNop()

	chart := &ChartPayload{ChartData: &broken}
	if got := chart.Data(log); len(got.Labels) != len(DefaultChartData().Labels) {
		t.Errorf("expected default chart data, got %+v", got)
	}

	table := &TablePayload{TableData: &broken}
	if got := table.Data(log); len(got.Headers) != 4 {
		t.Errorf("expected default table data, got %+v", got)
	}

	cal := &CalendarPayload{Events: &broken}
	if got := cal.EventList(log); len(got) != 3 {
		t.Errorf("expected default events, got %+v", got)
	}

	radio := &RadioGroupPayload{Options: &broken}
	if got := radio.OptionList(nil); len(got) != 4 {
		t.Errorf("expected default options, got %+v", got)
	}
}

func TestRenderDefaultsForAbsentFields(t *testing.T) {
	if got := (&TextPayload{}).HeadingOrDefault(); got != "Heading" {
		t.Errorf("heading default = %q", got)
	}
	if got := (&RangeSliderPayload{}).ValueOrDefault(); got != 50 {
		t.Errorf("slider default = %v", got)
	}
	if got := (&RadioGroupPayload{}).SelectedOrDefault(); got != "Option 1" {
		t.Errorf("radio default = %q", got)
	}
	if got := (&ChartPayload{}).TitleOrDefault(); got != "Sample Bar Chart" {
		t.Errorf("chart title default = %q", got)
	}
}

func TestJSONRoundTripPreservesUnknownKeys(t *testing.T) {
	raw := `{"id":"w1","type":"rating","x":10,"y":20,"width":250,"height":120,` +
		`"title":"Stars","maxRating":10,"color":"gold","data":{"a":1},"currentRating":"high"}`

	var w Widget
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	p := w.Rating()
	if p == nil {
		t.Fatal("expected rating payload")
	}
	if p.MaxOrDefault() != 10 {
		t.Errorf("maxRating = %v, want 10", p.MaxOrDefault())
	}
	if p.CurrentRating != nil {
		t.Error("expected badly typed currentRating to stay out of the payload")
	}
	if w.Extra["color"] != "gold" || w.Extra["currentRating"] != "high" {
		t.Errorf("unknown keys not preserved: %+v", w.Extra)
	}

	out, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got, want map[string]any
	_ = json.Unmarshal(out, &got)
	_ = json.Unmarshal([]byte(raw), &want)
	for k, v := range want {
		gb, _ := json.Marshal(got[k])
		wb, _ := json.Marshal(v)
		if string(gb) != string(wb) {
			t.Errorf("key %q = %s, want %s", k, gb, wb)
		}
	}
}

func TestFromMapUnknownType(t *testing.T) {
	w := FromMap(map[string]any{"id": "x", "type": "hologram", "x": int64(5), "glow": true})
	if w.Type.Valid() {
		t.Error("expected invalid type")
	}
	if w.Payload != nil {
		t.Errorf("expected no payload, got %T", w.Payload)
	}
	if w.X != 5 {
		t.Errorf("x = %v, want 5", w.X)
	}
	if w.Extra["glow"] != true {
		t.Errorf("expected glow to be preserved, got %+v", w.Extra)
	}
}

func TestMerge(t *testing.T) {
	w, _ := New(TypeText, 0, 0)
	id := w.ID

	tests := []struct {
		name    string
		partial map[string]any
		check   func(t *testing.T, got Widget)
	}{
		{
			name:    "Geometry",
			partial: map[string]any{"x": 40.0, "y": 60.0, "width": 100.0, "height": 80.0},
			check: func(t *testing.T, got Widget) {
				if got.X != 40 || got.Y != 60 || got.Width != 100 || got.Height != 80 {
					t.Errorf("unexpected rect %+v", got.Rect())
				}
				if got.Text().HeadingOrDefault() != "New Heading" {
					t.Error("payload lost on geometry update")
				}
			},
		},
		{
			name:    "Payload Field",
			partial: map[string]any{"heading": "Revenue"},
			check: func(t *testing.T, got Widget) {
				if got.Text().HeadingOrDefault() != "Revenue" {
					t.Errorf("heading = %q", got.Text().HeadingOrDefault())
				}
			},
		},
		{
			name:    "Identity Ignored",
			partial: map[string]any{"id": "other", "type": "chart"},
			check: func(t *testing.T, got Widget) {
				if got.ID != id || got.Type != TypeText {
					t.Errorf("identity changed to %q/%q", got.ID, got.Type)
				}
			},
		},
		{
			name:    "Empty",
			partial: map[string]any{},
			check: func(t *testing.T, got Widget) {
				if got.ID != id || got.X != 0 {
					t.Errorf("unexpected change %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, w.Merge(tt.partial))
		})
	}
}

func TestCatalog(t *testing.T) {
	entries := Catalog()
	if len(entries) != len(Types) {
		t.Fatalf("got %d entries, want %d", len(entries), len(Types))
	}
	counts := map[Category]int{}
	for _, e := range entries {
		counts[e.Category]++
		if e.Label == "" || e.Width == 0 || e.Height == 0 {
			t.Errorf("incomplete entry %+v", e)
		}
	}
	if counts[CategoryBasic] != 3 || counts[CategoryData] != 4 || counts[CategoryInteractive] != 4 {
		t.Errorf("unexpected category split %+v", counts)
	}
}

func TestParseType(t *testing.T) {
	if _, err := ParseType("range-slider"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if _, err := ParseType("slider"); err == nil {
		t.Error("expected error")
	}
}
