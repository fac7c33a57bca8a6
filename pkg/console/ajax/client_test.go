package ajax

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetDeliversBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Errorf("missing X-Requested-With header")
		}
		_, _ = w.Write([]byte("<div>" + r.URL.Path + "</div>"))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	var got string
	c.Get(context.Background(), "/admin/product/1", func(body string) { got = body })
	c.Wait()

	if got != "<div>/admin/product/1</div>" {
		t.Errorf("body = %q", got)
	}
}

func TestFailuresReachErrorHandler(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		forbidden bool
	}{
		{"forbidden", http.StatusForbidden, true},
		{"server error", http.StatusInternalServerError, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<div>nope</div>"))
			}))
			defer srv.Close()

			c := New(WithBaseURL(srv.URL))
			var failure *Failure
			c.SetDefaultErrorHandler(func(f *Failure) { failure = f })
			called := false
			c.Get(context.Background(), "/x", func(string) { called = true })
			c.Wait()

			if called {
				t.Error("success continuation ran on failure")
			}
			if failure == nil {
				t.Fatal("error handler not called")
			}
			if failure.Status != tt.status || failure.Body != "<div>nope</div>" {
				t.Errorf("failure = %+v", failure)
			}
			if failure.Forbidden() != tt.forbidden {
				t.Errorf("Forbidden() = %v", failure.Forbidden())
			}
			if errors.Is(failure, ErrForbidden) != tt.forbidden {
				t.Errorf("errors.Is(ErrForbidden) = %v", !tt.forbidden)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New(WithBaseURL(base), WithTimeout(time.Second))
	var failure *Failure
	c.SetDefaultErrorHandler(func(f *Failure) { failure = f })
	c.Get(context.Background(), "/x", nil)
	c.Wait()

	if failure == nil || failure.Err == nil || failure.Status != 0 {
		t.Errorf("failure = %+v", failure)
	}
}

func TestPreCallbackStopsContinuation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	var order []string
	c.AddPreCallbackHandler(func(string) bool { order = append(order, "first"); return false })
	c.AddPreCallbackHandler(func(string) bool { order = append(order, "second"); return true })
	c.Get(context.Background(), "/x", func(string) { order = append(order, "success") })
	c.Wait()

	if len(order) != 1 || order[0] != "first" {
		t.Errorf("order = %v, want [first]", order)
	}
}

func TestConcurrentGetsShareRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte("shared"))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var bodies []string
	c := New(WithBaseURL(srv.URL), WithDispatcher(func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}))
	for i := 0; i < 3; i++ {
		c.Get(context.Background(), "/same", func(b string) { bodies = append(bodies, b) })
	}
	// Give the goroutines time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	c.Wait()

	if len(bodies) != 3 {
		t.Fatalf("continuations = %d, want 3", len(bodies))
	}
	if n := hits.Load(); n < 1 || n > 3 {
		t.Errorf("server hits = %d", n)
	}
}

func TestPostSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		_, _ = w.Write([]byte("saved " + r.PostForm.Get("name")))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	var got string
	c.Post(context.Background(), "/save", url.Values{"name": {"Phone"}}, func(b string) { got = b }, nil)
	c.Wait()

	if got != "saved Phone" {
		t.Errorf("body = %q", got)
	}
}

func TestPostOwnErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	defaultCalled := false
	c.SetDefaultErrorHandler(func(*Failure) { defaultCalled = true })
	var own *Failure
	c.Post(context.Background(), "/save", url.Values{}, nil, func(f *Failure) { own = f })
	c.Wait()

	if defaultCalled || own == nil || own.Status != http.StatusBadRequest {
		t.Errorf("default=%v own=%+v", defaultCalled, own)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"http://example.com/admin/", "product/1", "http://example.com/admin/product/1"},
		{"http://example.com/admin/", "/other", "http://example.com/other"},
		{"http://example.com/admin/", "https://else.org/x", "https://else.org/x"},
		{"", "/plain", "/plain"},
	}
	for _, tt := range tests {
		got, err := New(WithBaseURL(tt.base)).Resolve(tt.ref)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.ref, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}
