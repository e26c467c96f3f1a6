package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"

	// csrfFormMemory is how much of a multipart form is held in memory while
	// looking for the token; file parts beyond it spill to disk.
	csrfFormMemory = 8 << 20
)

// Messages shown when a console mutation is refused.
const (
	csrfMissingMessage = "Your session token is missing. Reload the page and try again."
	csrfInvalidMessage = "Your session token has expired. Reload the page and try again."
)

// CSRF protects the console's page routes with a signed double-submit token.
//
// Token format: hex(nonce) + "." + base64url(HMAC-SHA256(nonce, secret))
//
// Safe requests get a token cookie and the token is put in the gin context,
// where the layout and forms pick it up (the X-CSRF-Token header for htmx,
// a hidden field for plain forms). Mutating requests must carry the same token in the
// "_csrf_token" form field or the header. Rejections from htmx answer with an
// error toast and no swap, so the current page stays intact; other clients get
// a 403 JSON body.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "csrf secret is required",
			})
		}
	}

	secure := gin.Mode() == gin.ReleaseMode
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token, err := c.Cookie(csrfCookieName)
			if err != nil || !validToken(token, secret) {
				token, err = generateToken(secret)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    http.StatusInternalServerError,
						"message": "failed to generate csrf token",
					})
					return
				}
				setCSRFCookie(c, token, secure)
			}
			c.Set(csrfContextKey, token)
			c.Next()

		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			cookieToken, err := c.Cookie(csrfCookieName)
			if err != nil || cookieToken == "" {
				rejectCSRF(c, csrfMissingMessage)
				return
			}

			requestToken := c.GetHeader(csrfHeaderName)
			if requestToken == "" {
				requestToken, err = formToken(c.Request)
				if IsBodyTooLarge(err) {
					rejectTooLarge(c)
					return
				}
			}
			if requestToken == "" {
				rejectCSRF(c, csrfMissingMessage)
				return
			}

			if !validToken(cookieToken, secret) || !tokensMatch(cookieToken, requestToken) {
				rejectCSRF(c, csrfInvalidMessage)
				return
			}

			c.Set(csrfContextKey, cookieToken)
			c.Next()

		default:
			c.Next()
		}
	}
}

func rejectCSRF(c *gin.Context, message string) {
	rejectWith(c, http.StatusForbidden, message)
}

func rejectWith(c *gin.Context, status int, message string) {
	if IsHTMX(c) {
		c.Header("HX-Reswap", "none")
		SetToast(c, message, ToastError)
		c.AbortWithStatus(status)
		return
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// formToken reads the token field from a urlencoded or multipart body. The
// parsed form stays on the request for the handler.
func formToken(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(csrfFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", err
	}
	return r.PostFormValue(csrfFormField), nil
}

// GetCSRFToken returns the token the CSRF middleware stored for this request,
// or "" outside a protected route.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}

func generateToken(secret string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	nonceHex := hex.EncodeToString(nonce)
	return nonceHex + "." + signNonce(nonceHex, secret), nil
}

func signNonce(nonce, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// validToken reports whether token is well formed and signed with secret.
func validToken(token, secret string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(signNonce(nonce, secret))) == 1
}

func tokensMatch(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func setCSRFCookie(c *gin.Context, token string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
