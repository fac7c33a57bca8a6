package form

// Tabs is a set of tab panes of which exactly one is shown.
type Tabs struct {
	Labels []string
	Panes  []*Container
	active int
	hidden bool
}

// NewTabs builds a tab set; the first pane starts active.
func NewTabs(labels []string, panes []*Container) *Tabs {
	t := &Tabs{Labels: labels, Panes: panes}
	for _, p := range panes {
		p.SetParent(t)
	}
	t.apply()
	return t
}

// Visible implements field.Visibility for the panes.
func (t *Tabs) Visible() bool { return t != nil && !t.hidden }

// SetVisible hides or shows the whole tab set.
func (t *Tabs) SetVisible(v bool) { t.hidden = !v }

// Len returns the pane count.
func (t *Tabs) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Panes)
}

// ActiveIndex returns the index of the shown pane.
func (t *Tabs) ActiveIndex() int { return t.active }

// Active returns the shown pane, or nil when there are no panes.
func (t *Tabs) Active() *Container {
	if t.Len() == 0 {
		return nil
	}
	return t.Panes[t.active]
}

// Select shows pane i. Out of range indexes are ignored.
func (t *Tabs) Select(i int) {
	if i < 0 || i >= len(t.Panes) {
		return
	}
	t.active = i
	t.apply()
}

// SelectLabel shows the pane with the given label and reports whether one
// was found.
func (t *Tabs) SelectLabel(label string) bool {
	for i, l := range t.Labels {
		if l == label {
			t.Select(i)
			return true
		}
	}
	return false
}

func (t *Tabs) apply() {
	for i, p := range t.Panes {
		p.SetVisible(i == t.active)
	}
}
