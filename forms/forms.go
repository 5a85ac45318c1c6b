// Package forms turns submitted HTML forms into the JSON bodies sent
// upstream. Each resource declares its fields once; decoding coerces
// numbers and dates, applies the declared rules and checks date ordering.
package forms

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/validation"
)

type Kind string

const (
	Text     Kind = "text"
	Email    Kind = "email"
	Tel      Kind = "tel"
	Integer  Kind = "integer"
	Decimal  Kind = "decimal"
	Date     Kind = "date"
	DateTime Kind = "datetime"
	TextArea Kind = "textarea"
	Select   Kind = "select"
	Password Kind = "password"
)

// InputType is the HTML input type used to render k.
func (k Kind) InputType() string {
	switch k {
	case Integer, Decimal:
		return "number"
	case DateTime:
		return "datetime-local"
	case TextArea, Select:
		return ""
	default:
		return string(k)
	}
}

type Option struct {
	Value string
	Label string
}

// Field describes one form input. Name is also the JSON key upstream.
type Field struct {
	Name  string
	Label string // i18n key
	Kind  Kind
	// Rules uses validator tags, e.g. "required,email" or "gte=1".
	Rules   string
	Options []Option
	// After names a date field this one must be strictly later than.
	After string
	// OptionalOnUpdate drops "required" when editing; used for passwords.
	OptionalOnUpdate bool
	Hint             string
}

// Required reports whether the field carries the required rule.
func (f Field) Required() bool { return hasRule(f.Rules, "required") }

func hasRule(rules, name string) bool {
	for _, r := range strings.Split(rules, ",") {
		if strings.TrimSpace(r) == name {
			return true
		}
	}
	return false
}

func (f Field) rules(update bool) string {
	if !update || !f.OptionalOnUpdate {
		return f.Rules
	}
	kept := make([]string, 0, 2)
	for _, r := range strings.Split(f.Rules, ",") {
		if r = strings.TrimSpace(r); r != "" && r != "required" {
			kept = append(kept, r)
		}
	}
	return strings.Join(kept, ",")
}

// Mode tells Decode whether the form creates or edits a record.
type Mode int

const (
	Create Mode = iota
	Update
)

// Decode validates values against fields and returns the coerced body.
// Empty optional fields are left out of a create body. On update a field
// submitted empty is sent as null so the stored value is cleared, except
// for fields marked OptionalOnUpdate, where empty means unchanged.
func Decode(fields []Field, values url.Values, mode Mode) (map[string]any, validation.Violations) {
	body := make(map[string]any, len(fields))
	v := make(validation.Violations)
	times := make(map[string]time.Time)

	for _, f := range fields {
		raw := strings.TrimSpace(values.Get(f.Name))
		rules := f.rules(mode == Update)
		if raw == "" {
			if hasRule(rules, "required") {
				v.Add(f.Name, "required")
				continue
			}
			if _, sent := values[f.Name]; sent && mode == Update && !f.OptionalOnUpdate && f.Kind != Password {
				body[f.Name] = nil
			}
			continue
		}

		switch f.Kind {
		case Integer:
			n, err := strconv.Atoi(raw)
			if err != nil {
				v.Add(f.Name, "invalid_number")
				continue
			}
			validation.Rules(f.Name, n, rules, v)
			body[f.Name] = n
		case Decimal:
			d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
			if err != nil {
				v.Add(f.Name, "invalid_number")
				continue
			}
			validation.Rules(f.Name, d.InexactFloat64(), rules, v)
			body[f.Name] = json.Number(d.String())
		case Date, DateTime:
			t, err := models.ParseTime(raw)
			if err != nil {
				v.Add(f.Name, "invalid_date")
				continue
			}
			times[f.Name] = t
			if f.Kind == Date {
				body[f.Name] = t.Format(models.DateLayout)
			} else {
				body[f.Name] = t.Format(models.DateTimeLayout)
			}
		case Select:
			if !hasOption(f.Options, raw) {
				v.Add(f.Name, "invalid_choice")
				continue
			}
			body[f.Name] = raw
		default:
			validation.Rules(f.Name, raw, rules, v)
			body[f.Name] = raw
		}
	}

	for _, f := range fields {
		if f.After == "" {
			continue
		}
		end, okEnd := times[f.Name]
		start, okStart := times[f.After]
		if okEnd && okStart && !end.After(start) {
			v.Add(f.Name, "must_be_after")
		}
	}

	return body, v
}

func hasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Values renders record as form values for fields, so an edit form can be
// prefilled. Passwords are never echoed back.
func Values(fields []Field, record any) url.Values {
	out := url.Values{}
	b, err := json.Marshal(record)
	if err != nil {
		return out
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return out
	}
	for _, f := range fields {
		if f.Kind == Password {
			continue
		}
		raw, ok := m[f.Name]
		if !ok || raw == nil {
			continue
		}
		s := scalar(raw)
		if s == "" {
			continue
		}
		switch f.Kind {
		case Date:
			if t, err := models.ParseTime(s); err == nil {
				s = t.Format(models.DateLayout)
			}
		case DateTime:
			if t, err := models.ParseTime(s); err == nil {
				s = t.Format(models.InputDateTimeLayout)
			}
		}
		out.Set(f.Name, s)
	}
	return out
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
