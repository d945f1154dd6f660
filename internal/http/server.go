package httpapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/config"
	"github.com/vulnconsole/vulnconsole/internal/http/handlers"
	"github.com/vulnconsole/vulnconsole/internal/logging"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
	"github.com/vulnconsole/vulnconsole/web"
)

const maxRequestIDLength = 128

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// Dependencies are the services the handlers run on.
type Dependencies struct {
	Sessions *scs.SessionManager
	Fetcher  *vulns.Fetcher
	Backups  *backups.Service
	Logger   *slog.Logger
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, deps Dependencies) (*EchoServer, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("http server requires a fetcher")
	}
	if deps.Backups == nil {
		return nil, errors.New("http server requires a backup integration service")
	}

	h := &handlers.Handlers{
		Cfg:      cfg,
		Sessions: deps.Sessions,
		Fetcher:  deps.Fetcher,
		Backups:  deps.Backups,
	}
	e := echo.New()
	e.Logger = logging.OrDiscard(deps.Logger)

	es := &EchoServer{h: h, e: e}
	e.HTTPErrorHandler = es.httpErrorHandler
	es.registerMiddleware()
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerMiddleware() {
	es.e.Use(requestID)
	es.e.Use(middleware.Recover())
	es.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			requestID, _ := c.Get(handlers.ContextKeyRequestID).(string)
			attrs := []any{
				"request_id", requestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				es.e.Logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			es.e.Logger.Info("request", attrs...)
			return nil
		},
	}))
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	app := es.e.Group("")
	app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   es.h.Cfg.SessionCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	app.GET("/", es.h.HandleHome)
	app.GET("/images", es.h.HandleImageLookup)
	app.GET("/images/:id/vulnerabilities", es.h.HandleImageVulnerabilities)
	app.GET("/integrations/backups", es.h.HandleBackupIntegrations)
	app.GET("/integrations/backups/:kind/create", es.h.HandleBackupCreate)
	app.GET("/integrations/backups/:kind/edit/:id", es.h.HandleBackupEdit)
	app.POST("/integrations/backups/:kind/validate", es.h.HandleBackupValidate)
	app.POST("/integrations/backups/:kind/test", es.h.HandleBackupTest)
	app.POST("/integrations/backups/:kind/save", es.h.HandleBackupSave)
	app.POST("/integrations/backups/:id/delete", es.h.HandleBackupDelete)

	es.e.StaticFS("/static", web.Static())
}

// Handler returns the root handler, with session loading when sessions are configured.
func (es *EchoServer) Handler() http.Handler {
	if es.h.Sessions == nil {
		return es.e
	}
	return es.h.Sessions.LoadAndSave(es.e)
}

// requestID reuses a sane incoming X-Request-ID or mints one.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" || len(id) > maxRequestIDLength || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		c.Set(handlers.ContextKeyRequestID, id)
		return next(c)
	}
}

func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	if err == nil {
		return
	}
	status := httpStatusFromError(err)
	switch {
	case status == http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	case status >= http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	default:
		_ = c.String(status, http.StatusText(status))
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != 0 {
		return httpErr.Code
	}
	var coder statusCoder
	if errors.As(err, &coder) {
		if code := coder.StatusCode(); code != 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}
