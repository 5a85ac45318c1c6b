// Package validation collects form violations as field -> message code pairs.
// Message codes are translated by the i18n package.
package validation

import (
	"errors"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Rules checks value against a validator tag string such as
// "required,email" and records the first failing rule for field.
func Rules(field string, value any, rules string, v Violations) {
	if rules == "" {
		return
	}
	err := engine().Var(value, rules)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Kind() == reflect.String && (fe.Tag() == "min" || fe.Tag() == "len") {
			v.Add(field, "too_short")
			return
		}
		v.Add(field, codeFor(fe.Tag()))
		return
	}
	v.Add(field, "invalid_format")
}

func codeFor(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "invalid_email"
	case "gt", "gte", "min":
		return "must_be_positive"
	case "oneof":
		return "invalid_choice"
	case "numeric", "number":
		return "invalid_number"
	default:
		return "invalid_format"
	}
}
