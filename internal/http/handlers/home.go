package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
	"github.com/vulnconsole/vulnconsole/internal/http/views"
)

// HandleHome renders the image lookup form.
func (h *Handlers) HandleHome(c *echo.Context) error {
	if c.Request().URL.Path != "/" {
		return RenderNotFound(c)
	}
	return h.RenderComponent(c, views.HomePage(viewmodels.HomeViewData{
		Layout: h.LayoutData(c, "Images"),
	}))
}

// HandleImageLookup redirects ?id= to the vulnerabilities page of that image.
func (h *Handlers) HandleImageLookup(c *echo.Context) error {
	imageID := strings.TrimSpace(c.QueryParam("id"))
	if imageID == "" {
		c.Response().WriteHeader(http.StatusBadRequest)
		return h.RenderComponent(c, views.HomePage(viewmodels.HomeViewData{
			Layout: h.LayoutData(c, "Images"),
			Error:  "Image ID is required",
		}))
	}
	return c.Redirect(http.StatusSeeOther, imageVulnerabilitiesPath(imageID))
}

func imageVulnerabilitiesPath(imageID string) string {
	return "/images/" + url.PathEscape(imageID) + "/vulnerabilities"
}
