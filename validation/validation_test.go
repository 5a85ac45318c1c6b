package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		value any
		rules string
		want  string
	}{
		{name: "valid email", value: "staff@example.com", rules: "required,email"},
		{name: "bad email", value: "nope", rules: "required,email", want: "invalid_email"},
		{name: "missing", value: "", rules: "required,email", want: "required"},
		{name: "optional empty", value: "", rules: "omitempty,email"},
		{name: "below minimum", value: 0, rules: "gte=1", want: "must_be_positive"},
		{name: "choice", value: "chef", rules: "oneof=admin manager staff", want: "invalid_choice"},
		{name: "no rules", value: "", rules: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := make(Violations)
			Rules("field", tc.value, tc.rules, v)
			if tc.want == "" {
				assert.True(t, v.Empty(), "unexpected violations: %v", v)
				return
			}
			assert.Equal(t, tc.want, v["field"])
		})
	}
}

func TestAdd_KeepsFirstViolation(t *testing.T) {
	v := make(Violations)
	v.Add("end", "required")
	v.Add("end", "must_be_after")
	assert.Equal(t, "required", v["end"])
}
