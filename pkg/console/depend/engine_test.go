package depend

import (
	"testing"

	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lifecycle"
)

func typeOptions() []field.Option {
	return []field.Option{
		{Value: "", Label: "(choose)"},
		{Value: "Physical", Label: "Physical"},
		{Value: "Digital", Label: "Digital"},
	}
}

func productForm(initialType string) (*form.Container, *field.Field, *field.Field) {
	typ := field.New("type", field.WithSelect(field.Some(initialType), typeOptions()...))
	weight := field.New("weight", field.WithText("12kg"))
	return form.New("com.example.catalog.Product", "body", typ, weight), typ, weight
}

func TestProductWeightScenario(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)

	actions := 0
	e.RegisterVisibilityRule("Product", "#type", "#weight", Literal("Physical"), Options{
		ClearChildData: true,
		AdditionalChangeAction: func(parent, child *field.Field, shouldShow bool, v field.Value) {
			actions++
		},
	})

	c, typ, weight := productForm("Digital")
	lc.InitializeFields(c)

	if weight.Visible() {
		t.Error("weight should be hidden for Digital")
	}
	if actions != 0 {
		t.Errorf("change action ran %d times during initialization, want 0", actions)
	}
	if got, _ := weight.Text(); got != "12kg" {
		t.Errorf("initialization must not clear child, got %q", got)
	}

	typ.Choose("Physical")
	if !weight.Visible() {
		t.Error("weight should be visible for Physical")
	}
	if got, _ := weight.Text(); got != "12kg" {
		t.Errorf("non-empty parent must not clear child, got %q", got)
	}

	typ.Choose("")
	if weight.Visible() {
		t.Error("weight should be hidden for empty type")
	}
	if got, _ := weight.Text(); got != "" {
		t.Errorf("child value = %q, want cleared", got)
	}
	if actions != 2 {
		t.Errorf("change action ran %d times, want 2", actions)
	}
}

func TestLiteralPredicateNeverMatchesNull(t *testing.T) {
	if Literal("").Eval(field.Null, nil) {
		t.Error("Null should not equal the empty literal")
	}
	if !Literal("").Eval(field.Some(""), nil) {
		t.Error("empty value should equal the empty literal")
	}
}

func TestFuncPredicateReceivesContainer(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)

	var gotContainer *form.Container
	e.RegisterVisibilityRule("Product", "#type", "#weight", Func(func(v field.Value, c *form.Container) bool {
		gotContainer = c
		return v.String() == "Digital"
	}), Options{})

	c, _, weight := productForm("Digital")
	lc.InitializeFields(c)

	if gotContainer != c {
		t.Error("predicate should receive the container being initialized")
	}
	if !weight.Visible() {
		t.Error("weight should be visible when predicate returns true")
	}
}

func TestHiddenParentHidesChild(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)
	e.RegisterVisibilityRule("Product", "#type", "#weight", Literal("Physical"), Options{})

	c, typ, weight := productForm("Physical")
	typ.Toggle(false)
	lc.InitializeFields(c)

	if weight.Visible() {
		t.Error("child of a hidden parent should be hidden")
	}
}

func TestMissingParentHidesChild(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)
	e.RegisterVisibilityRule("Product", "#nope", "#weight", Literal("Physical"), Options{})

	c, _, weight := productForm("Physical")
	lc.InitializeFields(c)

	if weight.Visible() {
		t.Error("child of a missing parent should be hidden")
	}
}

func TestRuleIgnoresOtherFormClasses(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)
	e.RegisterVisibilityRule("Category", "#type", "#weight", Literal("Physical"), Options{})

	c, typ, weight := productForm("Digital")
	lc.InitializeFields(c)

	if !weight.Visible() {
		t.Error("rule for another class should not touch the child")
	}
	if typ.Subscribers() != 0 {
		t.Errorf("parent has %d subscribers, want 0", typ.Subscribers())
	}
}

func TestRunActionOnInitialization(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)

	var shown []bool
	e.RegisterVisibilityRule("Product", "#type", "#weight", Literal("Physical"), Options{
		AdditionalChangeAction: func(parent, child *field.Field, shouldShow bool, v field.Value) {
			if parent == nil || child == nil {
				t.Error("action should receive both fields")
			}
			shown = append(shown, shouldShow)
		},
		RunActionOnInitialization: true,
	})

	c, _, _ := productForm("Physical")
	lc.InitializeFields(c)

	if len(shown) != 1 || !shown[0] {
		t.Errorf("actions = %v, want [true]", shown)
	}
}

func TestResetDropsBindings(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)
	e.RegisterVisibilityRule("Product", "#type", "#weight", Literal("Physical"), Options{})

	c, typ, _ := productForm("Digital")
	lc.InitializeFields(c)
	lc.InitializeFields(c)
	if typ.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", typ.Subscribers())
	}

	c.Reset()
	lc.InitializeFields(c)
	if typ.Subscribers() != 1 {
		t.Errorf("subscribers after reset = %d, want 1", typ.Subscribers())
	}
}

func TestFilterRuleRegistry(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)

	e.RegisterFilterRule("Product", "#category", "subcategory", "parentCategory", FilterOptions{})

	r, ok := e.LookupFilterRule("Product", "subcategory")
	if !ok {
		t.Fatal("filter rule not found")
	}
	if r.Parent != "#category" || r.ChildPropertyName != "parentCategory" {
		t.Errorf("rule = %+v", r)
	}
	if _, ok := e.LookupFilterRule("Product", "other"); ok {
		t.Error("unexpected rule for other child")
	}
	if _, ok := e.FilterRuleFor("com.example.catalog.Product", "subcategory"); !ok {
		t.Error("FilterRuleFor should match by class substring")
	}
	if len(e.Rules()) != 0 {
		t.Error("filter rule without ParentFieldRequired should not add a visibility rule")
	}
}

func TestFilterRuleParentRequired(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)
	e.RegisterFilterRule("Product", "#category", "subcategory", "parentCategory", FilterOptions{ParentFieldRequired: true})

	category := field.New("category", field.WithSelect(field.Null, field.Option{Value: "Electronics"}))
	cleared := 0
	sub := field.New("subcategory", field.WithForeignKey(field.ForeignKey{
		NoneSelected: "(none)",
		OnClear:      func(*field.Field) { cleared++ },
	}, field.Null))
	c := form.New("com.example.catalog.Product", "body", category, sub)
	lc.InitializeFields(c)

	if sub.Visible() {
		t.Error("lookup should be hidden while parent is empty")
	}

	category.Choose("Electronics")
	if !sub.Visible() {
		t.Error("lookup should be visible once parent has a value")
	}
	sub.SelectForeignKey("5", "Laptops")

	category.Choose("")
	if sub.Visible() {
		t.Error("lookup should hide again")
	}
	if v, _ := sub.HiddenValue(); v.Valid() {
		t.Errorf("lookup value = %#v, want cleared", v)
	}
	if cleared != 1 {
		t.Errorf("foreign key clear ran %d times, want 1", cleared)
	}
}

func TestParentOnInactiveTab(t *testing.T) {
	lc := lifecycle.New()
	e := New(lc, nil)
	e.RegisterVisibilityRule("Product", "#type", "#weight", Literal("Physical"), Options{})

	typ := field.New("type", field.WithSelect(field.Some("Physical"), field.Option{Value: "Physical"}, field.Option{Value: "Digital"}))
	weight := field.New("weight", field.WithText("3"))
	general, shipping := form.New("Product", "General", typ), form.New("Product", "Shipping", weight)
	tabs := form.NewTabs([]string{"General", "Shipping"}, []*form.Container{general, shipping})
	whole := form.New("Product", "form")
	whole.Add(typ)
	whole.Add(weight)
	typ.SetOwner(general)
	weight.SetOwner(shipping)
	tabs.Select(1)

	lc.InitializeFields(whole)

	if !weight.Visible() {
		t.Error("a parent on an inactive tab should still show the child")
	}
}
