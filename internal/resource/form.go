package resource

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/catalog"
	"github.com/mahabub-bd/purepac-admin/internal/validation"
)

// Values holds submitted form values, one per field.
type Values map[string]string

// ValuesFrom keeps the first value of each form key, trimmed.
func ValuesFrom(form url.Values) Values {
	out := make(Values, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			out[k] = strings.TrimSpace(vs[0])
		}
	}
	return out
}

// Float parses a numeric value.
func (v Values) Float(name string) (float64, bool) {
	f, err := strconv.ParseFloat(v[name], 64)
	return f, err == nil
}

// Date parses a date value.
func (v Values) Date(name string) time.Time {
	t, _ := catalog.ParseDate(v[name])
	return t
}

// Validate checks submitted values against the field rules and the
// definition's cross-field check. uploads names the file fields that carry a
// file. Nothing here touches the network.
func (d Definition) Validate(v *validation.Validator, values Values, uploads map[string]bool, creating bool) validation.FieldErrors {
	errs := validation.FieldErrors{}
	for _, f := range d.FormFields(creating) {
		if msg := f.validate(v, values, uploads, creating); msg != "" {
			errs.Add(f.Name, msg)
		}
	}
	if d.Check != nil {
		for field, msg := range d.Check(values) {
			errs.Add(field, msg)
		}
	}
	return errs
}

func (f Field) validate(v *validation.Validator, values Values, uploads map[string]bool, creating bool) string {
	raw := values[f.Name]
	switch f.Type {
	case FieldFile:
		if creating && hasRule(f.Rules, "required") && !uploads[f.Name] {
			return "This field is required."
		}
		return ""
	case FieldCheckbox:
		return ""
	case FieldNumber:
		if raw == "" {
			return v.Var(raw, f.Rules)
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "Enter a number."
		}
		return v.Var(n, f.Rules)
	case FieldSelect:
		if raw != "" && len(f.Options) > 0 && !hasOption(f.Options, raw) {
			return "Choose one of the listed options."
		}
		return v.Var(raw, f.Rules)
	case FieldDate:
		if raw != "" {
			if _, ok := catalog.ParseDate(raw); !ok {
				return "Enter a valid date."
			}
		}
		return v.Var(raw, f.Rules)
	default:
		return v.Var(raw, f.Rules)
	}
}

// Payload converts validated values into the JSON body for create or update.
// File fields are skipped; the caller adds attachment ids under each field's
// ForeignKey. Empty optional values are omitted on create and sent as null on
// update so they can be cleared.
func (d Definition) Payload(values Values, creating bool) map[string]any {
	payload := make(map[string]any, len(d.Fields))
	for _, f := range d.FormFields(creating) {
		raw, present := values[f.Name]
		switch f.Type {
		case FieldFile:
			continue
		case FieldCheckbox:
			payload[f.Name] = present && raw != "" && raw != "false" && raw != "0"
			continue
		}

		if raw == "" {
			if !creating && present && f.Type != FieldPassword {
				payload[f.Name] = nil
			}
			continue
		}

		switch {
		case f.Type == FieldNumber:
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				payload[f.Name] = n
			}
		case f.Type == FieldSelect && f.Reference != nil:
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				payload[f.Name] = n
			} else {
				payload[f.Name] = raw
			}
		default:
			payload[f.Name] = raw
		}
	}
	if d.Prepare != nil {
		d.Prepare(payload, creating)
	}
	return payload
}

// FormValues reads the editable values of rec for prefilling the edit form.
func (d Definition) FormValues(rec backend.Record) Values {
	out := Values{}
	for _, f := range d.FormFields(false) {
		if f.Type == FieldFile || f.Type == FieldPassword {
			continue
		}
		val := rec.Get(f.path())
		switch f.Type {
		case FieldCheckbox:
			if rec.Bool(f.path()) {
				out[f.Name] = "true"
			}
		case FieldDate:
			if t, ok := catalog.ParseDate(backend.Stringify(val)); ok {
				out[f.Name] = t.Format(dateOnly)
			}
		default:
			out[f.Name] = backend.Stringify(val)
		}
	}
	return out
}

// DiscountCheck validates a discount type/value pair and its date window.
// When optional is set, an empty type means "no discount" and skips the check.
func DiscountCheck(typeField, valueField, startField, endField string, optional bool) Check {
	return func(values Values) validation.FieldErrors {
		errs := validation.FieldErrors{}
		typ := values[typeField]
		if typ == "" && optional {
			return errs
		}
		if typ != "" {
			value, ok := values.Float(valueField)
			if !ok {
				errs.Add(valueField, "Enter a number.")
			} else {
				errs.Add(valueField, validation.DiscountValue(typ, value))
			}
		}
		errs.Add(endField, validation.DateRange(values.Date(startField), values.Date(endField)))
		return errs
	}
}

func hasRule(rules, name string) bool {
	for _, r := range strings.Split(rules, ",") {
		if strings.TrimSpace(r) == name {
			return true
		}
	}
	return false
}

func hasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
