package field

import "testing"

type hiddenOwner struct{ visible bool }

func (o hiddenOwner) Visible() bool { return o.visible }

func opts(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

func TestExtractValuePrecedence(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		want  Value
	}{
		{"nil field", nil, Null},
		{"no inputs", New("empty", WithKind(KindHidden)), Null},
		{
			"checked radio beats select",
			New("f", WithRadios("b", opts("a", "b")...), WithSelect(Some("x"), opts("x")...)),
			Some("b"),
		},
		{
			"unchecked radio falls through to select",
			New("f", WithRadios("", opts("a", "b")...), WithSelect(Some("x"), opts("x")...)),
			Some("x"),
		},
		{
			"select beats text",
			New("f", WithSelect(Some("x"), opts("x")...), WithText("typed")),
			Some("x"),
		},
		{
			"empty select falls through to text",
			New("f", WithSelect(Null, opts("x")...), WithText("typed")),
			Some("typed"),
		},
		{
			"empty text is still a value",
			New("f", WithText(""), WithHiddenValue(Some("h"))),
			Some(""),
		},
		{
			"hidden value last",
			New("f", WithHiddenValue(Some("h"))),
			Some("h"),
		},
		{
			"foreign key id",
			New("f", WithForeignKey(ForeignKey{NoneSelected: "(none)"}, Some("42"))),
			Some("42"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractValue(tt.field)
			if !got.Equal(tt.want) {
				t.Errorf("ExtractValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSetValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		value string
	}{
		{"text", New("t", WithText("old")), "new"},
		{"select", New("s", WithSelect(Some("a"), opts("a", "b")...)), "b"},
		{"radio", New("r", WithRadios("a", opts("a", "b")...)), "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetValue(tt.field, Some(tt.value))
			if got := ExtractValue(tt.field); !got.Equal(Some(tt.value)) {
				t.Errorf("round trip = %#v, want %q", got, tt.value)
			}
		})
	}
}

func TestSetValueNullClearsInputs(t *testing.T) {
	cleared := 0
	f := New("f",
		WithRadios("a", opts("a", "b")...),
		WithForeignKey(ForeignKey{
			Display:      "Widget",
			NoneSelected: "(none selected)",
			OnClear:      func(*Field) { cleared++ },
		}, Some("7")),
	)

	SetValue(f, Null)

	if v := f.CheckedRadio(); v.Valid() {
		t.Errorf("radio still checked: %#v", v)
	}
	if cleared != 1 {
		t.Errorf("foreign key clear ran %d times, want 1", cleared)
	}
	if got := f.ForeignKey().Display; got != "(none selected)" {
		t.Errorf("display = %q, want none selected text", got)
	}
	if got := ExtractValue(f); got.Valid() {
		t.Errorf("ExtractValue after clear = %#v, want Null", got)
	}
}

func TestSetValueNullClearsText(t *testing.T) {
	f := New("t", WithText("abc"))
	SetValue(f, Null)
	if s, _ := f.Text(); s != "" {
		t.Errorf("text = %q, want empty", s)
	}
}

func TestSetValueFiresChange(t *testing.T) {
	f := New("t", WithText(""))
	var seen []string
	f.Subscribe(func(f *Field) { seen = append(seen, ExtractValue(f).String()) })

	SetValue(f, Some("x"))
	SetValue(f, Some("x"))

	if len(seen) != 2 || seen[0] != "x" {
		t.Errorf("notifications = %v, want two with value x", seen)
	}
}

func TestSelectIgnoresUnknownOption(t *testing.T) {
	f := New("s", WithSelect(Some("a"), opts("a")...))
	SetValue(f, Some("zzz"))
	if got := f.SelectedOption(); got.Valid() {
		t.Errorf("selected = %#v, want Null for unknown option", got)
	}
}

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	f := New("t", WithText(""))
	var order []int
	f.Subscribe(func(*Field) { order = append(order, 1) })
	remove := f.Subscribe(func(*Field) { order = append(order, 2) })
	f.Subscribe(func(*Field) { order = append(order, 3) })

	f.Change()
	remove()
	f.Change()

	want := []int{1, 2, 3, 1, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if f.Subscribers() != 2 {
		t.Errorf("Subscribers() = %d, want 2", f.Subscribers())
	}
}

func TestChangeIsNotReentrant(t *testing.T) {
	f := New("t", WithText(""))
	calls := 0
	f.Subscribe(func(f *Field) {
		calls++
		SetValue(f, Some("again"))
	})

	f.Change()

	if calls != 1 {
		t.Errorf("subscriber ran %d times, want 1", calls)
	}
}

func TestVisibleFollowsOwner(t *testing.T) {
	f := New("f")
	if !f.Visible() {
		t.Fatal("new field should be visible")
	}

	f.SetOwner(hiddenOwner{visible: false})
	if f.Visible() {
		t.Error("field in hidden owner should not be visible")
	}

	f.SetOwner(hiddenOwner{visible: true})
	f.Toggle(false)
	if f.Visible() {
		t.Error("toggled-off field should not be visible")
	}
}

func TestMatches(t *testing.T) {
	f := New("weight", WithName("fields['weight'].value"), WithClasses("autosize"))

	cases := []struct {
		locator string
		want    bool
	}{
		{"#weight", true},
		{"#height", false},
		{".autosize", true},
		{".redactor", false},
		{"fields['weight'].value", true},
		{"weight", true},
	}
	for _, c := range cases {
		if got := f.Matches(c.locator); got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.locator, got, c.want)
		}
	}
}
