package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mahabub-bd/purepac-admin/internal/middleware"
	"github.com/mahabub-bd/purepac-admin/internal/pkg"
)

type errorFormat int

const (
	errorJSON errorFormat = iota
	errorPage
	errorToast
)

// negotiateErrorFormat picks how a failed request is answered. htmx swaps
// must not replace the current region with an error page, so they get a
// toast. An explicit JSON Accept wins over the browser-style wildcard.
func negotiateErrorFormat(c *gin.Context) errorFormat {
	if middleware.IsHTMX(c) {
		return errorToast
	}
	accept := strings.ToLower(strings.TrimSpace(c.GetHeader("Accept")))
	switch {
	case strings.Contains(accept, "text/html"):
		return errorPage
	case strings.Contains(accept, "application/json"):
		return errorJSON
	case accept == "" || strings.Contains(accept, "*/*"):
		return errorPage
	}
	return errorJSON
}

// renderError answers a request the router itself rejected (unknown route or
// method). Handler-level failures go through admin's own error mapping.
func renderError(c *gin.Context, code int, message string) {
	switch negotiateErrorFormat(c) {
	case errorToast:
		c.Header("HX-Reswap", "none")
		middleware.SetToast(c, toastMessage(message), middleware.ToastError)
		c.AbortWithStatus(code)
	case errorPage:
		renderErrorPage(c, code)
	default:
		c.JSON(code, pkg.Response{Code: code, Message: message})
	}
}

// renderErrorPage renders errors/<code>.html, or errors/500.html for codes
// without a page of their own. Engines without an HTML renderer panic in
// c.HTML; those get a plain status line instead.
func renderErrorPage(c *gin.Context, code int) {
	defer func() {
		if recover() != nil {
			c.Data(code, "text/plain; charset=utf-8", fmt.Appendf(nil, "%d %s", code, http.StatusText(code)))
		}
	}()

	page := fmt.Sprintf("errors/%d.html", code)
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError:
	default:
		page = "errors/500.html"
	}
	c.HTML(code, page, gin.H{"Code": code, "RequestID": middleware.GetRequestID(c)})
}

func toastMessage(s string) string {
	if s == "" {
		return "Something went wrong."
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
