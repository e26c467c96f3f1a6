// Package validation checks admin form input before anything is sent to the
// backend. Field rules use go-playground/validator tags plus the storefront's
// own predicates; failures come back as a field name to message map.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mahabub-bd/purepac-admin/internal/catalog"
)

// Custom validator tags.
const (
	TagMobile  = "bdmobile"
	TagPercent = "percent"
	TagSlug    = "slug"
	TagSKU     = "sku"
)

// MobilePrefix is the country calling code every customer number carries.
const MobilePrefix = "880"

const mobileDigits = 13

const percentMessage = "Percentage must be between 1 and 100."

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	skuPattern  = regexp.MustCompile(`^[A-Z0-9]+(?:-[A-Z0-9]+)*$`)
)

// FormError is the key under which errors not tied to a single field are kept.
const FormError = "_"

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if msg == "" {
		return
	}
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Any reports whether at least one message was recorded.
func (fe FieldErrors) Any() bool { return len(fe) > 0 }

// Error implements error so FieldErrors can travel as a validation cause.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// Validator wraps a validator instance with the custom tags registered.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := Register(v); err != nil {
		panic(fmt.Sprintf("validation: register custom tags: %v", err))
	}
	return &Validator{v: v}
}

// Register adds the custom tags to v. The app calls it on gin's binding engine
// too so bound request structs can use them.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagMobile:  func(fl validator.FieldLevel) bool { return IsMobile(fl.Field().String()) },
		TagPercent: validatePercent,
		TagSlug:    func(fl validator.FieldLevel) bool { return slugPattern.MatchString(fl.Field().String()) },
		TagSKU:     func(fl validator.FieldLevel) bool { return skuPattern.MatchString(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Engine exposes the underlying validator.
func (v *Validator) Engine() *validator.Validate { return v.v }

// Var validates a single value against rules and returns the message for the
// first failing rule, or "" when the value is valid.
func (v *Validator) Var(value any, rules string) string {
	if strings.TrimSpace(rules) == "" {
		return ""
	}
	err := v.v.Var(value, rules)
	if err == nil {
		return ""
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return Message(ve[0])
	}
	return "Invalid value."
}

// FromBindError converts a binding or validation error into field messages.
// dst is the bound struct pointer; its form tags name the fields.
func FromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out.Add(fieldKey(dst, fe.StructField()), Message(fe))
		}
		return out
	}

	out[FormError] = "The submitted form is invalid."
	return out
}

// Message renders a validator failure for operators.
func Message(fe validator.FieldError) string {
	numeric := isNumericKind(fe.Kind())
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	case "min", "gte":
		if numeric {
			return "Must be at least " + fe.Param() + "."
		}
		return "Must be at least " + fe.Param() + " characters."
	case "max", "lte":
		if numeric {
			return "Must be at most " + fe.Param() + "."
		}
		return "Must be at most " + fe.Param() + " characters."
	case "gt":
		return "Must be greater than " + fe.Param() + "."
	case "oneof":
		return "Choose one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "numeric", "number":
		return "Enter a number."
	case TagMobile:
		return "Enter a Bangladeshi mobile number starting with +880 (13 digits)."
	case TagPercent:
		return percentMessage
	case TagSlug:
		return "Use lower-case letters, digits and single hyphens."
	case TagSKU:
		return "Use upper-case letters, digits and single hyphens."
	default:
		return "Invalid value."
	}
}

// IsMobile reports whether s is a mobile number in the national format:
// an optional "+", then 13 digits starting with 880.
func IsMobile(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if len(s) != mobileDigits || !strings.HasPrefix(s, MobilePrefix) {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsPercent reports whether v is a usable percentage, 1 through 100.
func IsPercent(v float64) bool {
	return v >= 1 && v <= 100
}

// DiscountValue checks a discount or coupon amount against its type and
// returns a message, or "" when valid.
func DiscountValue(discountType string, value float64) string {
	switch strings.ToUpper(strings.TrimSpace(discountType)) {
	case catalog.DiscountPercentage:
		if !IsPercent(value) {
			return percentMessage
		}
	case catalog.DiscountFixed:
		if value <= 0 {
			return "Fixed amount must be greater than 0."
		}
	default:
		return "Unknown discount type."
	}
	return ""
}

// DateRange checks that end does not precede start. Missing dates are left to
// the required rule.
func DateRange(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	if end.Before(start) {
		return "End date must not be before the start date."
	}
	return ""
}

func validatePercent(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch {
	case f.CanFloat():
		return IsPercent(f.Float())
	case f.CanInt():
		return IsPercent(float64(f.Int()))
	case f.CanUint():
		return IsPercent(float64(f.Uint()))
	case f.Kind() == reflect.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(f.String()), 64)
		return err == nil && IsPercent(v)
	}
	return false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t == nil {
		return strings.ToLower(structField)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	f, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	tag, _, _ := strings.Cut(f.Tag.Get("form"), ",")
	if tag == "" || tag == "-" {
		return strings.ToLower(structField)
	}
	return tag
}
