package ajax

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// loginAction identifies the login form the server returns in place of the
// requested fragment once the session has expired.
const loginAction = "login_admin_post"

// SessionTimeout returns a pre-callback handler that recognizes a login form
// in a response body. It sends the user back to the current location with
// sessionTimeout=true appended and stops the continuation.
func SessionTimeout(location func() string, redirect func(target string)) PreCallbackHandler {
	return func(body string) bool {
		if !strings.Contains(body, loginAction) || !hasLoginForm(body) {
			return true
		}
		loc := location()
		sep := "?"
		if strings.Contains(loc, "?") {
			sep = "&"
		}
		redirect(loc + sep + "sessionTimeout=true")
		return false
	}
}

func hasLoginForm(body string) bool {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return false
	}
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			for _, a := range n.Attr {
				if a.Key == "action" && strings.Contains(a.Val, loginAction) {
					found = true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
