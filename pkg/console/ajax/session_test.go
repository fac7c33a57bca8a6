package ajax

import "testing"

func TestSessionTimeout(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		location string
		want     string
	}{
		{"login form", `<form action="/admin/login_admin_post" method="post"></form>`, "/admin/product", "/admin/product?sessionTimeout=true"},
		{"existing query", `<div><form action="login_admin_post"></form></div>`, "/admin/product?page=2", "/admin/product?page=2&sessionTimeout=true"},
		{"mentioned in text", `<p>login_admin_post</p>`, "/admin", ""},
		{"ordinary fragment", `<div class="modal"></div>`, "/admin", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redirected := ""
			h := SessionTimeout(func() string { return tt.location }, func(target string) { redirected = target })

			cont := h(tt.body)
			if cont != (tt.want == "") {
				t.Errorf("continue = %v", cont)
			}
			if redirected != tt.want {
				t.Errorf("redirect = %q, want %q", redirected, tt.want)
			}
		})
	}
}
