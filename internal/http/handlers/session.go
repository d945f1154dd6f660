package handlers

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

const (
	sessionKeyViewerID     = "viewer_id"
	sessionKeyTestedPrefix = "backups_tested:"

	anonymousViewer = "anonymous"
)

// viewerID returns the id that scopes fetch state to one browser session,
// minting it on first use.
func (h *Handlers) viewerID(c *echo.Context) string {
	if h.Sessions == nil {
		return anonymousViewer
	}
	ctx := c.Request().Context()
	if id := h.Sessions.GetString(ctx, sessionKeyViewerID); id != "" {
		return id
	}
	id := uuid.NewString()
	h.Sessions.Put(ctx, sessionKeyViewerID, id)
	return id
}

func testedSessionKey(kind, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = "new"
	}
	return sessionKeyTestedPrefix + kind + ":" + id
}

// testedFingerprint returns the fingerprint of the configuration that last
// passed a connection test in this session for the given form.
func (h *Handlers) testedFingerprint(c *echo.Context, kind, id string) string {
	if h.Sessions == nil {
		return ""
	}
	return h.Sessions.GetString(c.Request().Context(), testedSessionKey(kind, id))
}

func (h *Handlers) setTestedFingerprint(c *echo.Context, kind, id, fingerprint string) {
	if h.Sessions == nil {
		return
	}
	ctx := c.Request().Context()
	if fingerprint == "" {
		h.Sessions.Remove(ctx, testedSessionKey(kind, id))
		return
	}
	h.Sessions.Put(ctx, testedSessionKey(kind, id), fingerprint)
}
