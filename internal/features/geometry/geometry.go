// Package geometry holds the pure layout rules of the canvas: rectangle
// overlap, collision checks against the current widget set, and the raster
// scan that finds a free spot for a newly dropped widget.
package geometry

const (
	// GridStep is the scan increment, in pixels, on both axes.
	GridStep = 20
	// MaxProbes bounds the placement scan.
	MaxProbes = 1000

	DefaultCanvasWidth  = 1200
	DefaultCanvasHeight = 800
)

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Item is a rectangle owned by a widget.
type Item struct {
	ID string
	Rect
}

// Overlap reports whether a and b share interior area.
// Rectangles that only touch along an edge do not overlap.
func Overlap(a, b Rect) bool {
	return !(a.X+a.Width <= b.X ||
		a.X >= b.X+b.Width ||
		a.Y+a.Height <= b.Y ||
		a.Y >= b.Y+b.Height)
}

// Inside reports whether r lies entirely within a canvas of the given size.
func Inside(r Rect, canvasWidth, canvasHeight float64) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= canvasWidth && r.Y+r.Height <= canvasHeight
}

// FindNonOverlappingPosition scans left to right, top to bottom from the
// candidate's own position and returns the first in-bounds position whose
// rectangle overlaps none of existing. When MaxProbes positions have been
// tried without success the candidate's original position is returned.
func FindNonOverlappingPosition(candidate Rect, existing []Rect, canvasWidth, canvasHeight float64) Point {
	test := candidate
	for attempts := 0; attempts < MaxProbes; attempts++ {
		if Inside(test, canvasWidth, canvasHeight) && !overlapsAny(test, existing) {
			return Point{X: test.X, Y: test.Y}
		}
		test.X += GridStep
		if test.X > canvasWidth-test.Width {
			test.X = 0
			test.Y += GridStep
		}
	}
	return Point{X: candidate.X, Y: candidate.Y}
}

// CheckOverlap reports whether r, proposed for the widget with the given id,
// overlaps any other item. The item carrying id itself is ignored.
func CheckOverlap(id string, r Rect, items []Item) bool {
	for _, it := range items {
		if it.ID == id {
			continue
		}
		if Overlap(r, it.Rect) {
			return true
		}
	}
	return false
}

func overlapsAny(r Rect, others []Rect) bool {
	for _, o := range others {
		if Overlap(r, o) {
			return true
		}
	}
	return false
}
