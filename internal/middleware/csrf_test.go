package middleware

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const testCSRFSecret = "console-csrf-secret-for-tests"

func csrfRouter() *gin.Engine {
	r := gin.New()
	r.Use(CSRF(testCSRFSecret))
	r.GET("/brands/new", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	ok := func(c *gin.Context) { c.String(http.StatusOK, "saved") }
	r.POST("/brands", ok)
	r.PATCH("/brands/:id", ok)
	r.DELETE("/brands/:id", ok)
	return r
}

func csrfCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	return nil
}

// issueToken fetches a form page and returns the token from the context and
// the cookie.
func issueToken(t *testing.T, r *gin.Engine) (string, string) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/brands/new", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	c := csrfCookie(w)
	if c == nil {
		t.Fatal("no csrf cookie issued")
	}
	return w.Body.String(), c.Value
}

func TestCSRF_IssuesToken(t *testing.T) {
	r := csrfRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/brands/new", nil))

	c := csrfCookie(w)
	if c == nil {
		t.Fatal("no csrf cookie issued")
	}
	if c.Value != w.Body.String() {
		t.Errorf("cookie %q != context token %q", c.Value, w.Body.String())
	}
	if !validToken(c.Value, testCSRFSecret) {
		t.Error("issued token fails signature check")
	}
	if c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie attributes = HttpOnly %t, Path %q, SameSite %v", c.HttpOnly, c.Path, c.SameSite)
	}
}

func TestCSRF_ReusesValidCookie(t *testing.T) {
	r := csrfRouter()
	_, cookie := issueToken(t, r)

	tests := []struct {
		name      string
		cookie    string
		wantReuse bool
	}{
		{"valid cookie kept", cookie, true},
		{"garbage replaced", "garbage", false},
		{"foreign signature replaced", strings.Split(cookie, ".")[0] + ".AAAA", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/brands/new", nil)
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			fresh := csrfCookie(w)
			if tt.wantReuse {
				if fresh != nil || w.Body.String() != tt.cookie {
					t.Errorf("token was reissued for a valid cookie")
				}
				return
			}
			if fresh == nil || !validToken(fresh.Value, testCSRFSecret) {
				t.Errorf("expected a freshly signed token, got %+v", fresh)
			}
		})
	}
}

func TestCSRF_Mutations(t *testing.T) {
	r := csrfRouter()
	_, token := issueToken(t, r)
	_, other := issueToken(t, r)

	tests := []struct {
		name       string
		method     string
		path       string
		cookie     string
		header     string
		formToken  string
		wantStatus int
	}{
		{"form field", http.MethodPost, "/brands", token, "", token, http.StatusOK},
		{"header", http.MethodPatch, "/brands/7", token, token, "", http.StatusOK},
		{"delete via header", http.MethodDelete, "/brands/7", token, token, "", http.StatusOK},
		{"no cookie", http.MethodPost, "/brands", "", token, "", http.StatusForbidden},
		{"no request token", http.MethodPost, "/brands", token, "", "", http.StatusForbidden},
		{"token from another session", http.MethodPost, "/brands", token, other, "", http.StatusForbidden},
		{"forged pair", http.MethodDelete, "/brands/7", "abc.def", "abc.def", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.formToken != "" {
				body = strings.NewReader(url.Values{csrfFormField: {tt.formToken}, "name": {"Acme"}}.Encode())
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusForbidden {
				var resp struct {
					Code    int    `json:"code"`
					Message string `json:"message"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Code != http.StatusForbidden || resp.Message == "" {
					t.Errorf("rejection body = %s", w.Body.String())
				}
			}
		})
	}
}

func TestCSRF_HTMXRejectionToasts(t *testing.T) {
	r := csrfRouter()

	req := httptest.NewRequest(http.MethodDelete, "/brands/7", nil)
	req.Header.Set("HX-Request", "true")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "stale.token"})
	req.Header.Set(csrfHeaderName, "stale.token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d; want 403", w.Code)
	}
	if got := w.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("HX-Reswap = %q; want none", got)
	}
	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "showToast") || !strings.Contains(trigger, "expired") {
		t.Errorf("HX-Trigger = %q", trigger)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q; want empty", w.Body.String())
	}
}

func TestCSRF_OversizedFormBody(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(func(*gin.Context) int64 { return 1 << 10 }), CSRF(testCSRFSecret))
	r.GET("/brands/new", func(c *gin.Context) { c.String(http.StatusOK, GetCSRFToken(c)) })
	r.POST("/brands", func(c *gin.Context) { c.String(http.StatusOK, "saved") })
	_, token := issueToken(t, r)

	form := url.Values{csrfFormField: {token}, "notes": {strings.Repeat("x", 4<<10)}}
	req := httptest.NewRequest(http.MethodPost, "/brands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = -1
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d; want 413 (body %s)", w.Code, w.Body.String())
	}
}

func TestCSRF_MultipartFormField(t *testing.T) {
	r := csrfRouter()
	_, token := issueToken(t, r)

	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Acme")
	_ = mw.WriteField(csrfFormField, token)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/brands", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestCSRF_EmptySecret(t *testing.T) {
	r := gin.New()
	r.Use(CSRF("  "))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "unreachable") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", w.Code)
	}
}

func TestGetCSRFToken_Unprotected(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetCSRFToken(c); got != "" {
		t.Errorf("GetCSRFToken() = %q; want empty", got)
	}
}

func TestValidToken(t *testing.T) {
	good, err := generateToken(testCSRFSecret)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		token string
		want  bool
	}{
		{good, true},
		{"", false},
		{"nodot", false},
		{".sig", false},
		{"nonce.", false},
		{good + "x", false},
	}
	for _, tt := range tests {
		if got := validToken(tt.token, testCSRFSecret); got != tt.want {
			t.Errorf("validToken(%q) = %t; want %t", tt.token, got, tt.want)
		}
	}
	if validToken(good, "another-secret") {
		t.Error("token validated under a different secret")
	}
}
