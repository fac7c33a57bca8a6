package monitor

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/adminui/internal/logging"
	"github.com/marcus/adminui/internal/pagedef"
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/modal"
	"github.com/marcus/adminui/pkg/console/page"
	modalview "github.com/marcus/adminui/pkg/monitor/modal"
	"github.com/marcus/adminui/pkg/monitor/mouse"
)

type testModel struct {
	Model
	disp   *Dispatcher
	copied *string
}

func newTestModel(t *testing.T) testModel {
	t.Helper()
	d := pagedef.Demo()
	disp := NewDispatcher()
	p := page.New(page.Options{
		BaseURL:    "http://demo.local",
		HTTPClient: &http.Client{Transport: d.Transport()},
		Dispatch:   disp.Dispatch,
		Logger:     logging.Discard(),
	})
	if _, err := pagedef.Build(p, d); err != nil {
		t.Fatalf("Build: %v", err)
	}
	var links []Link
	for _, l := range d.Links {
		links = append(links, Link{Label: l.Label, URL: l.URL})
	}
	copied := new(string)
	m := New(p, Options{
		Title:      d.Title,
		Links:      links,
		Source:     d.Source(),
		Dispatcher: disp,
		Logger:     logging.Discard(),
		Clipboard:  func(s string) error { *copied = s; return nil },
	})
	tm := testModel{Model: m, disp: disp, copied: copied}
	tm.send(t, tea.WindowSizeMsg{Width: 100, Height: 30})
	return tm
}

// send runs msg through Update and keeps the resulting model.
func (tm *testModel) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := tm.Model.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	tm.Model = model
	return cmd
}

func (tm *testModel) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		tm.send(t, keyMsg(k))
	}
}

// settle waits for in-flight requests and delivers their continuations.
func (tm *testModel) settle(t *testing.T) {
	t.Helper()
	tm.page.AJAX.Wait()
	for {
		select {
		case fn := <-tm.disp.ch:
			tm.send(t, DispatchMsg{fn: fn})
		default:
			return
		}
	}
}

func (tm *testModel) focus(t *testing.T, id string) {
	t.Helper()
	tm.View()
	v := tm.activeView()
	v.SetFocus(id)
	if v.FocusID() != id {
		t.Fatalf("cannot focus %q", id)
	}
}

func (tm *testModel) screen() string {
	return ansi.Strip(tm.View())
}

func keyMsg(k string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"backspace": tea.KeyBackspace,
		"ctrl+s":    tea.KeyCtrlS,
		"ctrl+c":    tea.KeyCtrlC,
	}
	if t, ok := special[k]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestViewRendersPage(t *testing.T) {
	tm := newTestModel(t)
	out := tm.screen()

	for _, want := range []string{"Edit Product", "General", "Shipping", "Name", "Smartphone X", "(none selected)"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(out, "Weight") {
		t.Error("fields of the inactive tab should not render")
	}
	if strings.Contains(out, "Download URL") {
		t.Error("download url is hidden for Physical products")
	}
	if lines := strings.Split(tm.View(), "\n"); len(lines) != 30 {
		t.Errorf("view has %d lines, want 30", len(lines))
	}
}

func TestChooseOptionRunsRules(t *testing.T) {
	tm := newTestModel(t)
	tm.focus(t, "field:type")

	tm.press(t, "right")
	body := tm.page.Body
	if got := field.ExtractValue(body.Find("#type")); got.String() != "Digital" {
		t.Fatalf("type = %v, want Digital", got)
	}
	if !body.Find("#download_url").Visible() {
		t.Error("download url should show for Digital")
	}
	if !strings.Contains(tm.screen(), "Download URL") {
		t.Error("view should show the download url row")
	}

	tm.press(t, "left")
	if got := field.ExtractValue(body.Find("#type")); got.String() != "Physical" {
		t.Errorf("type = %v, want Physical", got)
	}
}

func TestTabCyclesFocus(t *testing.T) {
	tm := newTestModel(t)
	tm.focus(t, "field:name")

	tm.press(t, "tab")
	if got := tm.activeView().FocusID(); got != "field:type" {
		t.Errorf("focus after tab = %q, want field:type", got)
	}
	tm.press(t, "shift+tab")
	if got := tm.activeView().FocusID(); got != "field:name" {
		t.Errorf("focus after shift+tab = %q, want field:name", got)
	}
}

func TestEditTextField(t *testing.T) {
	tm := newTestModel(t)
	tm.focus(t, "field:name")

	tm.press(t, "enter")
	if tm.editing == nil {
		t.Fatal("enter should start editing")
	}
	tm.press(t, "!", "enter")
	if tm.editing != nil {
		t.Fatal("enter should commit")
	}
	if got, _ := tm.page.Body.Find("#name").Text(); got != "Smartphone X!" {
		t.Errorf("name = %q", got)
	}

	tm.press(t, "enter", "?", "esc")
	if got, _ := tm.page.Body.Find("#name").Text(); got != "Smartphone X!" {
		t.Errorf("esc should discard the edit, name = %q", got)
	}
}

func TestClearField(t *testing.T) {
	tm := newTestModel(t)
	tm.focus(t, "field:name")
	tm.press(t, "backspace")
	if got, _ := tm.page.Body.Find("#name").Text(); got != "" {
		t.Errorf("name = %q, want empty", got)
	}
}

func TestSwitchTabs(t *testing.T) {
	tm := newTestModel(t)
	tm.press(t, "]")
	if tm.page.Tabs.ActiveIndex() != 1 {
		t.Fatalf("active tab = %d, want 1", tm.page.Tabs.ActiveIndex())
	}
	if out := tm.screen(); !strings.Contains(out, "Weight") || strings.Contains(out, "Smartphone X") {
		t.Error("view should show the Shipping fields only")
	}
	tm.press(t, "[")
	if tm.page.Tabs.ActiveIndex() != 0 {
		t.Errorf("active tab = %d, want 0", tm.page.Tabs.ActiveIndex())
	}
}

func TestLookupSelectsCandidate(t *testing.T) {
	tm := newTestModel(t)
	tm.focus(t, "field:category")

	tm.press(t, "enter")
	if tm.picker == nil {
		t.Fatal("enter on a foreign key should open the lookup")
	}
	if len(tm.picker.items) != 3 {
		t.Fatalf("Physical candidates = %d, want 3", len(tm.picker.items))
	}
	if !strings.Contains(tm.screen(), "Select Category") {
		t.Error("lookup overlay should render")
	}

	tm.press(t, "Char")
	if len(tm.picker.items) != 1 || tm.picker.items[0].Label != "Chargers" {
		t.Fatalf("filtered items = %+v", tm.picker.items)
	}
	tm.press(t, "enter")

	cat := tm.page.Body.Find("#category")
	if tm.picker != nil {
		t.Error("selecting should close the lookup")
	}
	if cat.ForeignKey().Display != "Chargers" || field.ExtractValue(cat).String() != "12" {
		t.Errorf("category = %q/%v", cat.ForeignKey().Display, field.ExtractValue(cat))
	}
}

func TestLookupRequiresParent(t *testing.T) {
	tm := newTestModel(t)
	field.SetValue(tm.page.Body.Find("#type"), field.Null)
	tm.focus(t, "field:category")

	tm.press(t, "enter")
	if tm.picker != nil {
		t.Fatal("lookup should not open without a type")
	}
	if !tm.StatusIsError || !strings.Contains(tm.StatusMessage, "parent") {
		t.Errorf("status = %q", tm.StatusMessage)
	}
}

func TestOpenLinkShowsModal(t *testing.T) {
	tm := newTestModel(t)
	tm.press(t, "o")
	if tm.picker == nil || len(tm.picker.items) != 5 {
		t.Fatal("o should list the page links")
	}

	tm.press(t, "enter")
	if tm.page.Modals.Len() != 1 || !tm.page.Modals.Current().Placeholder() {
		t.Fatal("a loading placeholder should show while the link loads")
	}
	tm.settle(t)

	e := tm.page.Modals.Current()
	if e == nil || e.Content.Title != "Add SKU" {
		t.Fatalf("modal = %+v", e)
	}
	out := tm.screen()
	for _, want := range []string{"Add SKU", "×", "SKU code", "Save"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	tm.press(t, "esc")
	if tm.page.Modals.Len() != 0 {
		t.Error("esc should close the modal")
	}
}

func TestStackedModals(t *testing.T) {
	tm := newTestModel(t)
	tm.press(t, "?")
	tm.press(t, "o", "down", "enter")
	tm.settle(t)

	entries := tm.page.Modals.Modals()
	if len(entries) != 2 {
		t.Fatalf("stack = %d, want 2", len(entries))
	}
	if entries[0].Interactive() || !entries[1].Interactive() {
		t.Error("only the top modal should be interactive")
	}
	if entries[1].Content.Title != "Pricing help" {
		t.Errorf("top = %q", entries[1].Content.Title)
	}
	if !strings.Contains(tm.screen(), "Sale price overrides") {
		t.Error("top modal body should render")
	}

	tm.press(t, "esc")
	if tm.page.Modals.Len() != 1 || !tm.page.Modals.Current().Interactive() {
		t.Error("closing the top should bring the help modal back to front")
	}
}

func TestSubmitModalForm(t *testing.T) {
	tm := newTestModel(t)
	tm.page.Modals.ShowLink(tm.ctx, "/admin/product/1/sku/add", nil, nil)
	tm.settle(t)

	e := tm.page.Modals.Current()
	e.ActiveContainer().Find("#sku").Type("SKU-1")
	tm.press(t, "ctrl+s")
	if !e.LoaderVisible {
		t.Error("submit should show the progress indicator")
	}
	tm.settle(t)

	if e.Content.Title != "Saved" || !strings.Contains(strings.Join(e.Content.Body, " "), "sku=SKU-1") {
		t.Errorf("after submit: %q %v", e.Content.Title, e.Content.Body)
	}
}

func TestSubmitPageValidation(t *testing.T) {
	tm := newTestModel(t)
	field.SetValue(tm.page.Body.Find("#name"), field.Null)

	tm.press(t, "ctrl+s")
	if !tm.StatusIsError {
		t.Error("missing required name should block the submit")
	}
	if tm.page.Modals.Len() != 0 {
		t.Error("nothing should be posted")
	}
}

func TestForbiddenLinkShowsMessage(t *testing.T) {
	tm := newTestModel(t)
	tm.page.Modals.ShowLink(tm.ctx, "/admin/product/1/delete", nil, nil)
	tm.settle(t)

	top := tm.page.Modals.Current()
	if top == nil || top.Content.Title != "Error" {
		t.Fatalf("top modal = %+v, want the error message", top)
	}
	if !strings.Contains(tm.screen(), "permission") {
		t.Error("forbidden message should render")
	}
}

func TestResizeDebounce(t *testing.T) {
	tm := newTestModel(t)
	tm.press(t, "?")
	e := tm.page.Modals.Current()
	before := e.BodyMaxHeight

	cmd := tm.send(t, tea.WindowSizeMsg{Width: 100, Height: 50})
	if cmd == nil {
		t.Fatal("resize should schedule a settle tick")
	}
	if e.BodyMaxHeight != before {
		t.Error("max height should not change before the debounce elapses")
	}
	stale := tm.page.Modals.Resize(tm.page.Modals.Viewport())
	tm.send(t, ResizeSettledMsg{Gen: stale - 1})
	if e.BodyMaxHeight != before {
		t.Error("a stale settle should be ignored")
	}
	tm.send(t, ResizeSettledMsg{Gen: stale})
	if e.BodyMaxHeight <= before {
		t.Errorf("max height = %d, want more than %d", e.BodyMaxHeight, before)
	}
}

func TestMouseClosesModal(t *testing.T) {
	tm := newTestModel(t)
	tm.press(t, "?")
	tm.View()

	var x, y int
	found := false
	for _, r := range tm.mouse.HitMap.Regions() {
		if r.ID == modalview.ActionClose {
			x, y, found = r.Rect.X, r.Rect.Y, true
		}
	}
	if !found {
		t.Fatal("close mark should register a region")
	}
	tm.send(t, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if tm.page.Modals.Len() != 0 {
		t.Error("clicking × should close the modal")
	}
}

func TestDragScrollbar(t *testing.T) {
	tm := newTestModel(t)
	var body []string
	for i := range 60 {
		body = append(body, "entry "+strconv.Itoa(i))
	}
	tm.page.Modals.ShowElement(&modal.Content{Title: "Audit log", Body: body}, nil, nil)
	tm.View()

	var bar *mouse.Region
	for _, r := range tm.mouse.HitMap.Regions() {
		if r.ID == modalview.RegionScrollbar {
			bar = &r
		}
	}
	if bar == nil {
		t.Fatal("a long body should register a scrollbar")
	}
	x, y := bar.Rect.X, bar.Rect.Y

	tm.send(t, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if tm.page.Modals.Len() != 1 {
		t.Fatal("pressing the scrollbar should not close the modal")
	}
	tm.send(t, tea.MouseMsg{X: x, Y: y + 3, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	scrolled := tm.activeView().Scroll()
	if scrolled <= 3 {
		t.Errorf("scroll = %d, want the body moved by more than the drag", scrolled)
	}
	tm.send(t, tea.MouseMsg{X: x, Y: y + 3, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if tm.mouse.IsDragging() {
		t.Error("release should end the drag")
	}

	tm.View()
	if got := tm.activeView().Scroll(); got != scrolled {
		t.Errorf("scroll after render = %d, want %d", got, scrolled)
	}
}

func TestCopyValues(t *testing.T) {
	tm := newTestModel(t)
	cmd := tm.send(t, keyMsg("y"))
	if cmd == nil {
		t.Fatal("y should return a copy command")
	}
	tm.send(t, cmd())

	if !strings.Contains(*tm.copied, "- **name:** `Smartphone X`") {
		t.Errorf("copied = %q", *tm.copied)
	}
	if tm.StatusMessage != "Copied form values" {
		t.Errorf("status = %q", tm.StatusMessage)
	}
}

func TestEditorFinished(t *testing.T) {
	tm := newTestModel(t)
	desc := tm.page.Body.Find("#description")

	tm.send(t, EditorFinishedMsg{Field: desc, Content: "A better phone.\n"})
	if got, _ := desc.Text(); got != "A better phone." {
		t.Errorf("description = %q", got)
	}

	tm.send(t, EditorFinishedMsg{Field: desc, Error: errors.New("exit status 1")})
	if !tm.StatusIsError {
		t.Error("editor failure should set an error status")
	}
}

func TestQuit(t *testing.T) {
	tm := newTestModel(t)
	cmd := tm.send(t, keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}
