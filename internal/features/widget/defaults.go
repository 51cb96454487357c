package widget

import (
	"github.com/google/uuid"
)

type typeInfo struct {
	label    string
	category Category
	width    float64
	height   float64
	payload  func() Payload
}

var catalog = map[Type]typeInfo{
	TypeText: {
		label: "Text", category: CategoryBasic, width: 300, height: 150,
		payload: func() Payload {
			return &TextPayload{
				Heading: strPtr("New Heading"),
				Content: strPtr("Add your text content here..."),
			}
		},
	},
	TypeButton: {
		label: "Button", category: CategoryBasic, width: 200, height: 100,
		payload: func() Payload {
			return &ButtonPayload{Content: strPtr("Click Me")}
		},
	},
	TypeImage: {
		label: "Image", category: CategoryBasic, width: 300, height: 200,
		payload: func() Payload {
			return &ImagePayload{
				ImageURL: strPtr("https://picsum.photos/300/200"),
				AltText:  strPtr("Sample Image"),
				Caption:  strPtr("Image Caption"),
			}
		},
	},
	TypeChart: {
		label: "Chart", category: CategoryData, width: 400, height: 300,
		payload: func() Payload {
			return &ChartPayload{
				ChartTitle: strPtr("Sample Bar Chart"),
				ChartData:  strPtr(mustJSON(DefaultChartData())),
			}
		},
	},
	TypeTable: {
		label: "Table", category: CategoryData, width: 500, height: 300,
		payload: func() Payload {
			return &TablePayload{
				TableTitle: strPtr("Sample Table"),
				TableData:  strPtr(mustJSON(DefaultTableData())),
			}
		},
	},
	TypeWeather: {
		label: "Weather", category: CategoryData, width: 250, height: 200,
		payload: func() Payload {
			return &WeatherPayload{
				City:        strPtr("Bangalore"),
				Temperature: strPtr("Loading..."),
				Condition:   strPtr("Loading..."),
				Humidity:    strPtr("Loading..."),
				WindSpeed:   strPtr("Loading..."),
			}
		},
	},
	TypeCalendar: {
		label: "Calendar", category: CategoryData, width: 300, height: 350,
		payload: func() Payload {
			return &CalendarPayload{
				Title:  strPtr("Calendar"),
				Events: strPtr(mustJSON(DefaultCalendarEvents())),
			}
		},
	},
	TypeRating: {
		label: "Rating", category: CategoryInteractive, width: 250, height: 120,
		payload: func() Payload {
			return &RatingPayload{
				Title:         strPtr("Rate this product"),
				MaxRating:     floatPtr(5),
				CurrentRating: floatPtr(3),
			}
		},
	},
	TypeRangeSlider: {
		label: "Range Slider", category: CategoryInteractive, width: 300, height: 120,
		payload: func() Payload {
			return &RangeSliderPayload{
				Title: strPtr("Volume Control"),
				Min:   floatPtr(0),
				Max:   floatPtr(100),
				Value: floatPtr(50),
				Step:  floatPtr(1),
			}
		},
	},
	TypeRadioGroup: {
		label: "Radio Group", category: CategoryInteractive, width: 250, height: 200,
		payload: func() Payload {
			return &RadioGroupPayload{
				Title:          strPtr("Select your preference"),
				Options:        strPtr(mustJSON(DefaultRadioOptions())),
				SelectedOption: strPtr("Option 1"),
			}
		},
	},
	TypeMicrophone: {
		label: "Microphone", category: CategoryInteractive, width: 200, height: 150,
		payload: func() Payload {
			return &MicrophonePayload{
				Title:         strPtr("Voice Recorder"),
				IsRecording:   boolPtr(false),
				RecordingTime: floatPtr(0),
			}
		},
	},
}

// New builds a widget of type t at (x, y) with the type's default size and
// content and a fresh id.
func New(t Type, x, y float64) (Widget, error) {
	s, ok := catalog[t]
	if !ok {
		return Widget{}, ErrUnknownType
	}
	return Widget{
		ID:      uuid.NewString(),
		Type:    t,
		X:       x,
		Y:       y,
		Width:   s.width,
		Height:  s.height,
		Payload: s.payload(),
		Extra:   map[string]any{"data": map[string]any{}},
	}, nil
}

// DefaultSize returns the width and height a new widget of type t gets.
func DefaultSize(t Type) (width, height float64, ok bool) {
	s, ok := catalog[t]
	return s.width, s.height, ok
}

// Catalog lists every widget type with its palette metadata.
func Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(Types))
	for _, t := range Types {
		s := catalog[t]
		entries = append(entries, CatalogEntry{
			Type:     t,
			Label:    s.label,
			Category: s.category,
			Width:    s.width,
			Height:   s.height,
		})
	}
	return entries
}
