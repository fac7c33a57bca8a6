// Package mouse maps terminal mouse events onto rendered regions: the close
// marks, buttons, fields and backdrop of the modal stack.
package mouse

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// doubleClickWindow is the longest gap between two clicks on the same
// region that still counts as a double click.
const doubleClickWindow = 400 * time.Millisecond

// Rect is a screen rectangle. W and H are exclusive bounds.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named hit target.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap holds the regions of the last render. Regions added later sit on
// top of earlier ones.
type HitMap struct {
	regions []Region
}

// NewHitMap returns an empty hit map.
func NewHitMap() *HitMap {
	return &HitMap{}
}

// AddRect registers a region.
func (h *HitMap) AddRect(id string, x, y, w, h2 int, data any) {
	h.regions = append(h.regions, Region{ID: id, Rect: Rect{X: x, Y: y, W: w, H: h2}, Data: data})
}

// Test returns the topmost region at (x, y), or nil.
func (h *HitMap) Test(x, y int) *Region {
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			return &h.regions[i]
		}
	}
	return nil
}

// Clear drops every region.
func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

// Regions returns the registered regions in insertion order.
func (h *HitMap) Regions() []Region {
	return h.regions
}

// ActionType classifies a mouse event.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionDoubleClick
	ActionHover
	ActionScrollUp
	ActionScrollDown
	ActionScrollLeft
	ActionScrollRight
	ActionDrag
	ActionDragEnd
)

func (a ActionType) String() string {
	switch a {
	case ActionClick:
		return "click"
	case ActionDoubleClick:
		return "double-click"
	case ActionHover:
		return "hover"
	case ActionScrollUp:
		return "scroll-up"
	case ActionScrollDown:
		return "scroll-down"
	case ActionScrollLeft:
		return "scroll-left"
	case ActionScrollRight:
		return "scroll-right"
	case ActionDrag:
		return "drag"
	case ActionDragEnd:
		return "drag-end"
	}
	return "none"
}

// Action is the outcome of HandleMouse.
type Action struct {
	Type   ActionType
	Region *Region
	X, Y   int
	// DragDX and DragDY are the offsets from the drag start.
	DragDX, DragDY int
}

// ClickResult is the outcome of HandleClick.
type ClickResult struct {
	Region        *Region
	IsDoubleClick bool
}

// Handler tracks click timing and drags on top of a hit map.
type Handler struct {
	HitMap *HitMap

	lastClickID   string
	lastClickTime time.Time

	dragging       bool
	dragRegion     string
	dragStartX     int
	dragStartY     int
	dragStartValue int
}

// NewHandler returns a handler with an empty hit map.
func NewHandler() *Handler {
	return &Handler{HitMap: NewHitMap()}
}

// HandleClick resolves a click at (x, y). A second click on the same region
// within the double-click window is reported once as a double click.
func (h *Handler) HandleClick(x, y int) ClickResult {
	region := h.HitMap.Test(x, y)
	if region == nil {
		h.lastClickID = ""
		return ClickResult{}
	}

	now := time.Now()
	double := region.ID == h.lastClickID && now.Sub(h.lastClickTime) <= doubleClickWindow
	if double {
		h.lastClickID = ""
		h.lastClickTime = time.Time{}
	} else {
		h.lastClickID = region.ID
		h.lastClickTime = now
	}
	return ClickResult{Region: region, IsDoubleClick: double}
}

// StartDrag begins a drag from (x, y) on region. startValue is whatever the
// drag adjusts, such as a scroll offset.
func (h *Handler) StartDrag(x, y int, region string, startValue int) {
	h.dragging = true
	h.dragRegion = region
	h.dragStartX, h.dragStartY = x, y
	h.dragStartValue = startValue
}

func (h *Handler) IsDragging() bool    { return h.dragging }
func (h *Handler) DragRegion() string  { return h.dragRegion }
func (h *Handler) DragStartValue() int { return h.dragStartValue }

// DragDelta returns the offset of (x, y) from the drag start.
func (h *Handler) DragDelta(x, y int) (int, int) {
	return x - h.dragStartX, y - h.dragStartY
}

// EndDrag stops the current drag.
func (h *Handler) EndDrag() {
	h.dragging = false
	h.dragRegion = ""
}

// HandleMouse turns a Bubble Tea mouse message into an Action. Shift turns
// the wheel horizontal.
func (h *Handler) HandleMouse(msg tea.MouseMsg) Action {
	a := Action{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.Type = ActionScrollUp
			if msg.Shift {
				a.Type = ActionScrollLeft
			}
			a.Region = h.HitMap.Test(msg.X, msg.Y)
		case tea.MouseButtonWheelDown:
			a.Type = ActionScrollDown
			if msg.Shift {
				a.Type = ActionScrollRight
			}
			a.Region = h.HitMap.Test(msg.X, msg.Y)
		case tea.MouseButtonWheelLeft:
			a.Type = ActionScrollLeft
		case tea.MouseButtonWheelRight:
			a.Type = ActionScrollRight
		case tea.MouseButtonLeft:
			res := h.HandleClick(msg.X, msg.Y)
			a.Type = ActionClick
			if res.IsDoubleClick {
				a.Type = ActionDoubleClick
			}
			a.Region = res.Region
		}

	case tea.MouseActionMotion:
		if h.dragging {
			a.Type = ActionDrag
			a.DragDX, a.DragDY = h.DragDelta(msg.X, msg.Y)
			return a
		}
		a.Type = ActionHover
		a.Region = h.HitMap.Test(msg.X, msg.Y)

	case tea.MouseActionRelease:
		if h.dragging {
			a.Type = ActionDragEnd
			a.DragDX, a.DragDY = h.DragDelta(msg.X, msg.Y)
			h.EndDrag()
		}
	}
	return a
}

// Clear drops the regions of the last render. Call it before rendering.
func (h *Handler) Clear() {
	h.HitMap.Clear()
}
