package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/validation"
)

// Response is the JSON envelope of every /api/v1 answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse replaces Data with per-field messages keyed by the
// field's json (or form) name.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

// Success answers 200 with data.
func Success(c *gin.Context, data any) { ok(c, data) }

// List answers 200 with one listing page (data, total, totalPages).
func List(c *gin.Context, page any) { ok(c, page) }

// Error answers with the status HTTPStatusCode assigns to err. Messages of
// codes that are not operator-facing are replaced by the status text.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	c.JSON(status, Response{
		Code:    status,
		Message: domain.DisplayMessage(err, strings.ToLower(http.StatusText(status))),
	})
}

// BindAndValidate binds the body or query string into obj. On failure it has
// already answered 400 and returns false.
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	err := c.ShouldBind(obj)
	if err == nil {
		return true
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: "bad request"})
		return false
	}

	names := fieldNames(obj)
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, found := names[fe.StructField()]
		if !found {
			name = strings.ToLower(fe.Field())
		}
		if _, dup := fields[name]; !dup {
			fields[name] = validation.Message(fe)
		}
	}
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fields,
	})
	return false
}

// fieldNames maps obj's struct field names to the name clients used: the
// json tag for bodies, the form tag for query structs.
func fieldNames(obj any) map[string]string {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	names := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		for _, key := range []string{"json", "form"} {
			if name := tagName(f.Tag.Get(key)); name != "" {
				names[f.Name] = name
				break
			}
		}
	}
	return names
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
