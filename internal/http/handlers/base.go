// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/config"
	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
	"github.com/vulnconsole/vulnconsole/internal/http/views"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg      config.Config
	Sessions *scs.SessionManager
	Fetcher  *vulns.Fetcher
	Backups  *backups.Service
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	return layoutData(c, title)
}

func layoutData(c *echo.Context, title string) viewmodels.LayoutData {
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return viewmodels.LayoutData{
		Title:      title,
		CSRFToken:  csrfToken,
		RequestID:  requestIDFrom(c),
		ActivePath: c.Request().URL.Path,
		Toast:      popFlashToast(c),
	}
}

func requestIDFrom(c *echo.Context) string {
	id, _ := c.Get(ContextKeyRequestID).(string)
	return id
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	return renderStatus(c, http.StatusOK, component)
}

// renderStatus buffers component so a failed render can still answer with
// an error page instead of a truncated body.
func renderStatus(c *echo.Context, status int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.Request().Context(), &buf); err != nil {
		return renderInternalError(c, fmt.Errorf("render: %w", err))
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// RenderError logs err and answers with a generic message carrying the
// request reference. The error text never reaches the client.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	return renderInternalError(c, err)
}

func renderInternalError(c *echo.Context, err error) error {
	requestID := requestIDFrom(c)
	req := c.Request()
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := internalErrorMessage(requestID)
	if isHX(c) {
		return c.String(http.StatusInternalServerError, msg)
	}
	var buf bytes.Buffer
	page := views.ErrorPage(layoutData(c, "Error"), "Something went wrong", msg)
	if renderErr := page.Render(req.Context(), &buf); renderErr != nil {
		return c.String(http.StatusInternalServerError, msg)
	}
	return c.HTMLBlob(http.StatusInternalServerError, buf.Bytes())
}

func internalErrorMessage(requestID string) string {
	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	return fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
}

// RenderNotFound answers 404: a page for browsers, plain text for htmx.
func RenderNotFound(c *echo.Context) error {
	const msg = "404 page not found"
	if isHX(c) {
		return c.String(http.StatusNotFound, msg)
	}
	return renderStatus(c, http.StatusNotFound, views.ErrorPage(layoutData(c, "Not found"), "Page not found", msg))
}

// HandleHealthz reports liveness.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
