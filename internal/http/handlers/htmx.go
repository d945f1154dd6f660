package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v5"
)

// htmx request and response headers.
const (
	hxRequestHeader  = "HX-Request"
	hxTargetHeader   = "HX-Target"
	hxRedirectHeader = "HX-Redirect"
)

func isHX(c *echo.Context) bool {
	if c == nil || c.Request() == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.Request().Header.Get(hxRequestHeader)), "true")
}

// isHXTarget reports whether an htmx request swaps the element with id target.
func isHXTarget(c *echo.Context, target string) bool {
	if !isHX(c) {
		return false
	}
	got := strings.TrimPrefix(strings.TrimSpace(c.Request().Header.Get(hxTargetHeader)), "#")
	return strings.EqualFold(got, strings.TrimSpace(target))
}

// redirect sends the browser to url: HX-Redirect for htmx requests, 303 otherwise.
func redirect(c *echo.Context, url string) error {
	addVary(c, hxRequestHeader)
	if isHX(c) {
		c.Response().Header().Set(hxRedirectHeader, url)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, url)
}

// addVary merges values into the Vary header, keeping one canonical token
// per header name. A wildcard replaces everything.
func addVary(c *echo.Context, values ...string) {
	if c == nil || len(values) == 0 {
		return
	}
	header := c.Response().Header()

	var tokens []string
	for _, line := range append(header.Values(echo.HeaderVary), values...) {
		for _, token := range strings.Split(line, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if token == "*" {
				header.Set(echo.HeaderVary, "*")
				return
			}
			token = http.CanonicalHeaderKey(token)
			if !slices.Contains(tokens, token) {
				tokens = append(tokens, token)
			}
		}
	}
	if len(tokens) > 0 {
		header.Set(echo.HeaderVary, strings.Join(tokens, ", "))
	}
}
