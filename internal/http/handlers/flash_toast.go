package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
)

const (
	flashToastCookieName = "vc_toast"
	flashToastMaxAge     = 30
)

// setFlashToast stores a toast shown by the next rendered page.
func setFlashToast(c *echo.Context, category, title, description string) {
	toast, ok := cleanToast(viewmodels.ToastViewData{Category: category, Title: title, Description: description})
	if !ok {
		return
	}
	payload, err := json.Marshal(toast)
	if err != nil {
		return
	}
	c.SetCookie(toastCookie(base64.RawURLEncoding.EncodeToString(payload), flashToastMaxAge))
}

// popFlashToast returns the pending toast, if any, and clears it.
func popFlashToast(c *echo.Context) *viewmodels.ToastViewData {
	cookie, err := c.Cookie(flashToastCookieName)
	if err != nil || cookie == nil {
		return nil
	}

	expired := toastCookie("", -1)
	expired.Expires = time.Unix(0, 0)
	c.SetCookie(expired)

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var toast viewmodels.ToastViewData
	if err := json.Unmarshal(raw, &toast); err != nil {
		return nil
	}
	toast, ok := cleanToast(toast)
	if !ok {
		return nil
	}
	return &toast
}

func toastCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashToastCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func cleanToast(toast viewmodels.ToastViewData) (viewmodels.ToastViewData, bool) {
	switch category := strings.ToLower(strings.TrimSpace(toast.Category)); category {
	case "success", "error", "warning", "info":
		toast.Category = category
	default:
		toast.Category = "info"
	}
	toast.Title = strings.TrimSpace(toast.Title)
	toast.Description = strings.TrimSpace(toast.Description)
	return toast, toast.Title != "" || toast.Description != ""
}
