package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marcus/adminui/pkg/console/ajax"
	"github.com/marcus/adminui/pkg/console/depend"
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lookup"
	"github.com/marcus/adminui/pkg/console/modal"
)

func newProductBody() *form.Container {
	return form.New("com.example.catalog.Product", "/admin/product",
		field.New("type", field.WithName("type"), field.WithSelect(field.Some("Physical"),
			field.Option{Value: "Physical"}, field.Option{Value: "Digital"})),
		field.New("weight", field.WithName("weight"), field.WithText("3")),
	)
}

func TestProductWeightScenario(t *testing.T) {
	p := New(Options{})
	p.Rules.RegisterVisibilityRule("Product", "#type", "#weight", depend.Literal("Physical"), depend.Options{ClearChildData: true})

	body := newProductBody()
	p.SetBody(body, nil)
	p.InitializeFields(nil)

	weight := body.Find("#weight")
	if !weight.Visible() {
		t.Fatal("weight should be visible for Physical")
	}

	body.Find("#type").Choose("Digital")
	if weight.Visible() {
		t.Error("weight should hide for Digital")
	}
	if got := field.ExtractValue(weight); !got.Equal(field.Some("3")) {
		t.Errorf("weight = %#v, non-empty parent must not clear the child", got)
	}

	body.Find("#type").Choose("Physical")
	if !weight.Visible() {
		t.Error("weight should show again for Physical")
	}
}

func TestInitializeFieldsIdempotent(t *testing.T) {
	p := New(Options{})
	runs := 0
	p.Lifecycle.AddInitializationHandler(func(*form.Container) { runs++ })

	body := newProductBody()
	p.SetBody(body, nil)
	p.InitializeFields(nil)
	p.InitializeFields(body)

	if runs != 1 {
		t.Errorf("init handlers ran %d times, want 1", runs)
	}
}

func TestActiveTab(t *testing.T) {
	p := New(Options{})
	body := form.New("X", "body")
	p.SetBody(body, nil)
	if p.ActiveTab() != body {
		t.Error("without tabs the body is active")
	}

	general, pricing := form.New("X", "General"), form.New("X", "Pricing")
	tabs := form.NewTabs([]string{"General", "Pricing"}, []*form.Container{general, pricing})
	p.SetBody(body, tabs)
	tabs.SelectLabel("Pricing")
	if p.ActiveTab() != pricing {
		t.Error("selected tab should be active")
	}
	if p.Modals.ActiveContainer() != pricing {
		t.Error("modal manager should fall back to the page tab")
	}
}

func TestModalErrorHandler(t *testing.T) {
	msgs := modal.DefaultMessages()
	tests := []struct {
		name      string
		failure   ajax.Failure
		wantTitle string
		wantBody  string
	}{
		{"forbidden", ajax.Failure{Status: http.StatusForbidden, Body: "<div>x</div>"}, msgs.Error, msgs.Forbidden},
		{"single element", ajax.Failure{Status: 500, Body: "\n <div><h3>Validation</h3><p>Name is required</p></div>\n"}, "Validation", "Name is required"},
		{"two elements", ajax.Failure{Status: 500, Body: "<div>a</div><div>b</div>"}, msgs.Error, msgs.ErrorOccurred},
		{"transport", ajax.Failure{Err: context.DeadlineExceeded}, msgs.Error, msgs.ErrorOccurred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Options{})
			f := tt.failure
			p.ModalErrorHandler(&f)

			e := p.Modals.Current()
			if e == nil {
				t.Fatal("no modal shown")
			}
			if e.Content.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", e.Content.Title, tt.wantTitle)
			}
			if len(e.Content.Body) == 0 || e.Content.Body[0] != tt.wantBody {
				t.Errorf("body = %v, want %q", e.Content.Body, tt.wantBody)
			}
		})
	}
}

const addProduct = `<div class="modal">
  <div class="modal-header"><h3>Add Product</h3></div>
  <div class="modal-body">
    <form action="/admin/product/add" method="POST">
      <input type="hidden" name="ceilingEntityClassname" value="com.example.catalog.Product">
      <div class="field-box" id="type"><select name="type"><option value="Physical">Physical</option><option value="Digital">Digital</option></select></div>
      <div class="field-box" id="weight"><input type="text" name="weight" value=""></div>
      <div class="entity-form-actions"><button type="submit">Save</button></div>
    </form>
  </div>
</div>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/product/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = r.ParseForm()
			_, _ = w.Write([]byte(`<div><h3>Saved</h3><p>` + r.PostForm.Get("type") + `/` + r.PostForm.Get("weight") + `</p></div>`))
			return
		}
		_, _ = w.Write([]byte(addProduct))
	})
	mux.HandleFunc("/admin/secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/admin/expired", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<form action="/admin/login_admin_post"></form>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestShowLinkEndToEnd(t *testing.T) {
	srv := newServer(t)
	p := New(Options{BaseURL: srv.URL})
	p.Rules.RegisterVisibilityRule("Product", "#type", "#weight", depend.Literal("Physical"), depend.Options{ClearChildData: true})

	p.Modals.ShowLink(context.Background(), "/admin/product/add", nil, nil)
	p.AJAX.Wait()

	e := p.Modals.Current()
	if p.Modals.Len() != 1 || e.Loading || e.Content.Title != "Add Product" {
		t.Fatalf("len=%d loading=%v title=%q", p.Modals.Len(), e.Loading, e.Content.Title)
	}
	c := e.ActiveContainer()
	if c == nil || !c.Initialized() {
		t.Fatal("modal form should be initialized")
	}
	weight := c.Find("#weight")
	if !weight.Visible() {
		t.Error("weight should show for the default Physical option")
	}
	c.Find("#type").Choose("Digital")
	if weight.Visible() {
		t.Error("weight should hide for Digital")
	}
}

func TestForbiddenNavigation(t *testing.T) {
	srv := newServer(t)
	p := New(Options{BaseURL: srv.URL})

	p.Modals.ShowLink(context.Background(), "/admin/secret", nil, nil)
	p.AJAX.Wait()

	if p.Modals.Len() != 1 {
		t.Fatalf("Len() = %d, want the placeholder replaced by the error", p.Modals.Len())
	}
	if body := p.Modals.Current().Content.Body; len(body) == 0 || body[0] != modal.DefaultMessages().Forbidden {
		t.Errorf("body = %v", body)
	}
}

func TestSessionTimeoutRedirect(t *testing.T) {
	srv := newServer(t)
	var redirected string
	p := New(Options{
		BaseURL:  srv.URL,
		Location: func() string { return "/admin/product" },
		Redirect: func(target string) { redirected = target },
	})

	p.Modals.NavigateTo(context.Background(), "/admin/expired")
	p.AJAX.Wait()

	if redirected != "/admin/product?sessionTimeout=true" {
		t.Errorf("redirect = %q", redirected)
	}
	if e := p.Modals.Current(); e == nil || !e.Loading {
		t.Error("the stopped continuation should leave the placeholder loading")
	}
}

func TestSubmit(t *testing.T) {
	srv := newServer(t)
	p := New(Options{BaseURL: srv.URL})
	p.Lifecycle.AddValidationSubmitHandler(func(c *form.Container) bool {
		v := field.ExtractValue(c.Find("#weight"))
		return !c.Find("#weight").Visible() || !v.IsEmpty()
	})

	c, err := modal.ParseFragment(addProduct)
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	e := p.Modals.ShowElement(c, nil, nil)

	if p.Submit(context.Background()) {
		t.Fatal("empty weight should fail validation")
	}

	c.Form.Find("#weight").Type("7")
	if !p.Submit(context.Background()) {
		t.Fatal("submit should post")
	}
	p.AJAX.Wait()

	if e.Content.Title != "Saved" || !strings.Contains(strings.Join(e.Content.Body, " "), "Physical/7") {
		t.Errorf("after submit: title=%q body=%v", e.Content.Title, e.Content.Body)
	}
	if !e.SubmitVisible || e.LoaderVisible {
		t.Error("submit control should be restored")
	}
}

func TestLookupUsesPageRules(t *testing.T) {
	p := New(Options{})
	p.Rules.RegisterFilterRule("Product", "#type", "category", "type", depend.FilterOptions{})
	body := form.New("com.example.catalog.Product", "body",
		field.New("type", field.WithSelect(field.Some("Digital"), field.Option{Value: "Physical"}, field.Option{Value: "Digital"})),
		field.New("category", field.WithForeignKey(field.ForeignKey{}, field.Null)),
	)
	src := lookup.StaticSource{"category": {
		{ID: "1", Label: "Phones", Properties: map[string]string{"type": "Physical"}},
		{ID: "2", Label: "Ebooks", Properties: map[string]string{"type": "Digital"}},
	}}

	got, err := p.Lookup(src).Search(context.Background(), body, "category", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("results = %+v", got)
	}
}

func TestValues(t *testing.T) {
	c := form.New("X", "/save",
		field.New("name", field.WithText("Phone")),
		field.New("category", field.WithForeignKey(field.ForeignKey{}, field.Null)),
		field.New("status", field.WithName("status"), field.WithRadios("A", field.Option{Value: "A"})),
	)
	v := Values(c)
	if v.Get("name") != "Phone" || v.Get("status") != "A" || v.Has("category") {
		t.Errorf("Values = %v", v)
	}
}

func TestSubmitBody(t *testing.T) {
	srv := newServer(t)
	p := New(Options{BaseURL: srv.URL})
	required := true
	p.Lifecycle.AddValidationSubmitHandler(func(*form.Container) bool { return !required })

	if p.SubmitBody(context.Background()) {
		t.Fatal("no body should not post")
	}
	p.SetBody(form.New("com.example.catalog.Product", "/admin/product/add",
		field.New("type", field.WithSelect(field.Some("Digital"), field.Option{Value: "Physical"}, field.Option{Value: "Digital"})),
		field.New("weight", field.WithText("3")),
	), nil)

	if p.SubmitBody(context.Background()) {
		t.Fatal("failed validation should not post")
	}
	required = false
	if !p.SubmitBody(context.Background()) {
		t.Fatal("valid body should post")
	}
	p.AJAX.Wait()

	e := p.Modals.Current()
	if e == nil || e.Content.Title != "Saved" || !strings.Contains(strings.Join(e.Content.Body, " "), "Digital/3") {
		t.Fatalf("response modal = %+v", e)
	}
}
