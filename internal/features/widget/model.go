package widget

import (
	"fmt"

	"go-dashboard/internal/features/geometry"
)

type Type string

const (
	TypeText        Type = "text"
	TypeChart       Type = "chart"
	TypeTable       Type = "table"
	TypeButton      Type = "button"
	TypeWeather     Type = "weather"
	TypeCalendar    Type = "calendar"
	TypeImage       Type = "image"
	TypeRating      Type = "rating"
	TypeRangeSlider Type = "range-slider"
	TypeRadioGroup  Type = "radio-group"
	TypeMicrophone  Type = "microphone"
)

// Types lists every supported widget type in sidebar order.
var Types = []Type{
	TypeText, TypeButton, TypeImage,
	TypeChart, TypeTable, TypeWeather, TypeCalendar,
	TypeRating, TypeRangeSlider, TypeRadioGroup, TypeMicrophone,
}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Widget is a positioned element on the canvas. ID and Type never change
// after creation. Payload holds the type-specific fields; Extra keeps any
// stored key this package does not understand so documents written by other
// clients survive a round trip.
type Widget struct {
	ID      string
	Type    Type
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Payload Payload
	Extra   map[string]any
}

func (w Widget) Rect() geometry.Rect {
	return geometry.Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

func (w Widget) Item() geometry.Item {
	return geometry.Item{ID: w.ID, Rect: w.Rect()}
}

// Rects projects widgets onto their rectangles.
func Rects(widgets []Widget) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.Rect())
	}
	return out
}

// Items projects widgets onto id-tagged rectangles.
func Items(widgets []Widget) []geometry.Item {
	out := make([]geometry.Item, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.Item())
	}
	return out
}

// Category groups widget types in the sidebar.
type Category string

const (
	CategoryBasic       Category = "basic"
	CategoryData        Category = "data"
	CategoryInteractive Category = "interactive"
)

// CatalogEntry describes one widget type for palette clients.
type CatalogEntry struct {
	Type     Type     `json:"type"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}
