package views

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
)

const htmxScriptURL = "https://unpkg.com/htmx.org@2.0.4"

var navItems = []struct {
	Label string
	Href  string
}{
	{Label: "Images", Href: "/"},
	{Label: "Backup integrations", Href: "/integrations/backups"},
}

// Layout wraps body in the page shell.
func Layout(data viewmodels.LayoutData, body templ.Component) templ.Component {
	return component(func(m *markup) {
		title := strings.TrimSpace(data.Title)
		if title == "" {
			title = "Vulnerability console"
		} else {
			title += " | Vulnerability console"
		}

		m.raw("<!DOCTYPE html>")
		m.open("html", "lang", "en")
		m.open("head")
		m.raw(`<meta charset="utf-8">`)
		m.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		m.open("meta", "name", "csrf-token", "content", data.CSRFToken)
		m.elem("title", title)
		m.open("script", "src", htmxScriptURL)
		m.close("script")
		m.open("link", "rel", "stylesheet", "href", "/static/app.css")
		m.close("head")

		m.open("body", "hx-boost", "true", "hx-headers", `{"X-CSRF-Token": "`+data.CSRFToken+`"}`)
		m.open("nav", "class", "app-nav")
		m.open("ul")
		for _, item := range navItems {
			m.open("li")
			if current := AriaCurrent(data.ActivePath, item.Href); current != "" {
				m.elem("a", item.Label, "href", item.Href, "aria-current", current)
			} else {
				m.elem("a", item.Label, "href", item.Href)
			}
			m.close("li")
		}
		m.close("ul")
		m.close("nav")

		if data.Toast != nil {
			destructive := IsAlertDestructive(data.Toast.Category)
			m.open("div", "class", "toast toast-"+data.Toast.Category,
				"role", AlertRole(destructive),
				"aria-live", AlertAriaLive(destructive),
			)
			m.elem("strong", data.Toast.Title)
			if data.Toast.Description != "" {
				m.elem("p", data.Toast.Description)
			}
			m.close("div")
		}

		m.open("main", "class", "app-main")
		m.render(body)
		m.close("main")
		m.close("body")
		m.close("html")
	})
}

// HomePage is the image lookup form.
func HomePage(data viewmodels.HomeViewData) templ.Component {
	return Layout(data.Layout, component(func(m *markup) {
		m.elem("h1", "Image vulnerabilities")
		m.elem("p", "Review and triage vulnerability data scanned on an image")
		m.open("form", "method", "get", "action", "/images", "class", "image-lookup")
		m.elem("label", "Image ID", "for", "image-id")
		m.open("input", "id", "image-id", "name", "id", "type", "text", "value", data.ImageID, "placeholder", "sha256:...")
		m.elem("button", "Show vulnerabilities", "type", "submit")
		if data.Error != "" {
			m.elem("p", data.Error, "class", "field-error", "role", "alert")
		}
		m.close("form")
	}))
}

// ErrorPage renders a full page holding a single message.
func ErrorPage(layout viewmodels.LayoutData, title, message string) templ.Component {
	return Layout(layout, component(func(m *markup) {
		m.open("section", "class", "empty-state")
		m.elem("h1", title)
		if message != "" {
			m.elem("p", message)
		}
		m.elem("a", "Back to images", "href", "/")
		m.close("section")
	}))
}
