package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

// newResponseTestContext creates a gin context backed by an httptest.ResponseRecorder.
func newResponseTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

// newResponseTestContextWithBody creates a gin context with a JSON request body.
func newResponseTestContextWithBody(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	c, w := newResponseTestContext("/")
	Success(c, map[string]string{"status": "ok"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Code != http.StatusOK || resp.Message != "success" || resp.Data == nil {
		t.Errorf("unexpected envelope %+v", resp)
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", domain.NewAppError(domain.CodeNotFound, "activity entry not found", nil), http.StatusNotFound, "activity entry not found"},
		{"validation", domain.NewAppError(domain.CodeValidation, "bad input", nil), http.StatusBadRequest, "bad input"},
		{"upstream rejection", domain.NewUpstreamError(http.StatusConflict, "Brand already exists"), http.StatusConflict, "Brand already exists"},
		{"backend unavailable", domain.NewAppError(domain.CodeUnavailable, "backend unavailable", errors.New("dial tcp: refused")), http.StatusBadGateway, "bad gateway"},
		{"internal hides details", domain.NewAppError(domain.CodeInternal, "database error", errors.New("disk I/O")), http.StatusInternalServerError, "internal server error"},
		{"plain error", errors.New("something broke"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContext("/")
			Error(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			resp := decodeResponse(t, w)
			if resp.Code != tt.status || resp.Message != tt.message {
				t.Errorf("envelope = %+v, want code %d message %q", resp, tt.status, tt.message)
			}
			if resp.Data != nil {
				t.Errorf("expected nil data, got %v", resp.Data)
			}
		})
	}
}

func TestList(t *testing.T) {
	c, w := newResponseTestContext("/")
	List(c, listing.NewPage([]string{"a", "b"}, 12, 2))

	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", resp.Data)
	}
	if items, _ := data["data"].([]any); len(items) != 2 {
		t.Errorf("data = %v", data["data"])
	}
	if data["total"] != float64(12) || data["totalPages"] != float64(6) {
		t.Errorf("totals = %v/%v", data["total"], data["totalPages"])
	}
}

func TestBindAndValidate_InvalidJSON(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"invalid json`)

	var input struct {
		Resource string `json:"resource" binding:"required"`
	}
	if BindAndValidate(c, &input) {
		t.Error("expected BindAndValidate to return false for invalid JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if resp := decodeResponse(t, w); resp.Message != "bad request" {
		t.Errorf("expected message %q, got %q", "bad request", resp.Message)
	}
}

func TestBindAndValidate_FieldMessages(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"resource":"","keep":3}`)

	var input struct {
		Resource string `json:"resource" binding:"required"`
		Keep     int    `json:"keep" binding:"min=10"`
	}
	if BindAndValidate(c, &input) {
		t.Fatal("expected BindAndValidate to return false")
	}

	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Message != "validation error" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Errors["resource"] != "This field is required." {
		t.Errorf("resource error = %q", resp.Errors["resource"])
	}
	if resp.Errors["keep"] != "Must be at least 10." {
		t.Errorf("keep error = %q", resp.Errors["keep"])
	}
}

func TestBindAndValidate_QueryUsesFormTags(t *testing.T) {
	c, w := newResponseTestContext("/?page=-1")

	var input struct {
		Page int `form:"page" binding:"omitempty,min=1"`
	}
	if BindAndValidate(c, &input) {
		t.Fatal("expected BindAndValidate to return false")
	}

	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := resp.Errors["page"]; !ok {
		t.Errorf("expected an error keyed by the form tag, got %v", resp.Errors)
	}
}

func TestBindAndValidate_ValidInput(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"resource":"brands"}`)

	var input struct {
		Resource string `json:"resource" binding:"required"`
	}
	if !BindAndValidate(c, &input) {
		t.Fatal("expected BindAndValidate to return true for valid input")
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body on success, got %q", w.Body.String())
	}
	if input.Resource != "brands" {
		t.Errorf("Resource = %q", input.Resource)
	}
}
