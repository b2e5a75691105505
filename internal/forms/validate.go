package forms

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ReasonCode classifies a validation failure.
type ReasonCode string

const (
	MissingField  ReasonCode = "missing_field"
	InvalidFormat ReasonCode = "invalid_format"
)

// Reason describes one field-level validation failure.
type Reason struct {
	Code  ReasonCode `json:"code"`
	Field string     `json:"field"`
}

func (r Reason) String() string {
	switch r.Code {
	case MissingField:
		return fmt.Sprintf("%s is required", r.Field)
	case InvalidFormat:
		if r.Field == FieldEmail {
			return "email must be a valid email address"
		}
		return fmt.Sprintf("%s has an invalid format", r.Field)
	default:
		return fmt.Sprintf("%s is invalid", r.Field)
	}
}

// Result is the outcome of Validate: either a normalized submission or the
// ordered list of reasons it was rejected.
type Result struct {
	Submission *Normalized
	Reasons    []Reason
}

// Valid reports whether the submission passed validation.
func (r Result) Valid() bool {
	return len(r.Reasons) == 0 && r.Submission != nil
}

// Message joins every reason into one human readable sentence.
func (r Result) Message() string {
	parts := make([]string, 0, len(r.Reasons))
	for _, reason := range r.Reasons {
		parts = append(parts, reason.String())
	}
	return strings.Join(parts, "; ")
}

// One @, a dot somewhere after it with text on both sides, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld. Any Unicode
// space rejects the address; \s in the pattern only covers ASCII.
func ValidEmail(s string) bool {
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	return emailPattern.MatchString(s)
}

// Validate checks raw against the schema for kind. Every missing required
// field is reported, not only the first one.
func Validate(kind Kind, raw Submission) Result {
	if !kind.Valid() {
		return Result{Reasons: []Reason{{Code: InvalidFormat, Field: "kind"}}}
	}
	specs := schemas[kind]

	values := make(map[string]string, len(raw)+len(specs))
	for name, value := range raw {
		values[name] = strings.TrimSpace(value)
	}

	var reasons []Reason
	provided := make(map[string]bool, len(specs))
	for _, spec := range specs {
		value := values[spec.name]
		if value != "" {
			provided[spec.name] = true
			continue
		}
		if spec.required {
			reasons = append(reasons, Reason{Code: MissingField, Field: spec.name})
			continue
		}
		values[spec.name] = spec.fallback
	}

	if email := values[FieldEmail]; email != "" && !ValidEmail(email) {
		reasons = append(reasons, Reason{Code: InvalidFormat, Field: FieldEmail})
	}

	if len(reasons) > 0 {
		return Result{Reasons: reasons}
	}
	return Result{Submission: &Normalized{kind: kind, values: values, provided: provided}}
}
