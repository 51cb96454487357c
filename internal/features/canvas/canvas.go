package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go-dashboard/internal/features/board"
	"go-dashboard/internal/features/geometry"
	"go-dashboard/internal/features/widget"

	"go.uber.org/zap"
)

var ErrInvalidDropPayload = errors.New("invalid drop payload")

// QuickAddX and QuickAddY are where a sidebar click places a new widget
// before the placement search runs.
const (
	QuickAddX = 50
	QuickAddY = 50
)

// DropPayload is the data carried by a sidebar drag.
type DropPayload struct {
	Type string `json:"type"`
}

// Controller turns canvas gestures into store intents. It owns the
// transient overlap flags shown while a rejected move or resize is on
// screen; those flags are never persisted.
type Controller struct {
	store  *board.Store
	width  float64
	height float64
	log    *zap.Logger

	mu          sync.Mutex
	overlapping map[string]struct{}
}

func NewController(store *board.Store, width, height float64, log *zap.Logger) *Controller {
	if width <= 0 {
		width = geometry.DefaultCanvasWidth
	}
	if height <= 0 {
		height = geometry.DefaultCanvasHeight
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:       store,
		width:       width,
		height:      height,
		log:         log,
		overlapping: make(map[string]struct{}),
	}
}

// Drop creates a widget from a drag payload at the drop coordinates, moved
// to the nearest free grid position.
func (c *Controller) Drop(payload []byte, x, y float64) (widget.Widget, error) {
	var p DropPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.log.Warn("Error parsing drop data", zap.Error(err))
		return widget.Widget{}, fmt.Errorf("%w: %v", ErrInvalidDropPayload, err)
	}
	t, err := widget.ParseType(p.Type)
	if err != nil {
		return widget.Widget{}, err
	}
	return c.place(t, x, y)
}

// QuickAdd creates a widget of type t as if it were dropped at the quick-add
// position.
func (c *Controller) QuickAdd(t widget.Type) (widget.Widget, error) {
	if !t.Valid() {
		return widget.Widget{}, fmt.Errorf("%w: %q", widget.ErrUnknownType, t)
	}
	return c.place(t, QuickAddX, QuickAddY)
}

func (c *Controller) place(t widget.Type, x, y float64) (widget.Widget, error) {
	w, err := widget.New(t, x, y)
	if err != nil {
		return widget.Widget{}, err
	}

	existing := widget.Rects(c.store.State().Widgets)
	pos := geometry.FindNonOverlappingPosition(w.Rect(), existing, c.width, c.height)
	w.X, w.Y = pos.X, pos.Y

	c.store.Dispatch(board.AddWidget{Widget: w})
	c.log.Debug("Widget added",
		zap.String("id", w.ID),
		zap.String("type", string(t)),
		zap.Float64("x", w.X),
		zap.Float64("y", w.Y),
	)
	return w, nil
}

// CommitMove applies a finished drag. It reports false when the widget is
// unknown or the new position would overlap another widget; in the latter
// case the widget is flagged as overlapping and the store is left alone.
func (c *Controller) CommitMove(id string, x, y float64) bool {
	w, ok := c.store.State().Find(id)
	if !ok {
		return false
	}
	return c.commit(id, geometry.Rect{X: x, Y: y, Width: w.Width, Height: w.Height})
}

// CommitResize applies a finished resize, which may also move the widget.
func (c *Controller) CommitResize(id string, x, y, width, height float64) bool {
	if _, ok := c.store.State().Find(id); !ok {
		return false
	}
	if width <= 0 || height <= 0 {
		return false
	}
	return c.commit(id, geometry.Rect{X: x, Y: y, Width: width, Height: height})
}

func (c *Controller) commit(id string, r geometry.Rect) bool {
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}

	items := widget.Items(c.store.State().Widgets)
	if geometry.CheckOverlap(id, r, items) {
		c.setOverlapping(id, true)
		c.log.Debug("Rejected overlapping update", zap.String("id", id))
		return false
	}
	c.setOverlapping(id, false)

	c.store.Dispatch(board.UpdateWidget{ID: id, Data: map[string]any{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	}})
	return true
}

// Delete removes a widget, clears the selection and drops its overlap flag.
func (c *Controller) Delete(id string) {
	c.store.Dispatch(board.DeleteWidget{ID: id})
	c.store.Dispatch(board.SetSelected{ID: ""})
	c.setOverlapping(id, false)
}

// DeleteSelected is the delete-key path. It does nothing when no widget is
// selected.
func (c *Controller) DeleteSelected() bool {
	id := c.store.State().SelectedWidgetID
	if id == "" {
		return false
	}
	c.Delete(id)
	return true
}

func (c *Controller) Select(id string) {
	c.store.Dispatch(board.SetSelected{ID: id})
}

// UpdateProperties merges edited fields from the properties panel into the
// widget. Geometry keys go through CommitMove/CommitResize instead.
func (c *Controller) UpdateProperties(id string, data map[string]any) {
	if len(data) == 0 {
		return
	}
	props := make(map[string]any, len(data))
	for k, v := range data {
		switch k {
		case "id", "type", "x", "y", "width", "height":
			continue
		}
		props[k] = v
	}
	if len(props) == 0 {
		return
	}
	c.store.Dispatch(board.UpdateWidget{ID: id, Data: props})
}

func (c *Controller) SetTheme(t board.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	c.store.Dispatch(board.SetTheme{Theme: t})
	return nil
}

func (c *Controller) ClearCanvas() {
	c.store.Dispatch(board.ClearCanvas{})
	c.mu.Lock()
	c.overlapping = make(map[string]struct{})
	c.mu.Unlock()
}

func (c *Controller) IsOverlapping(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.overlapping[id]
	return ok
}

// Overlapping returns the flagged widget ids in sorted order.
func (c *Controller) Overlapping() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.overlapping))
	for id := range c.overlapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Controller) setOverlapping(id string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.overlapping[id] = struct{}{}
		return
	}
	delete(c.overlapping, id)
}
