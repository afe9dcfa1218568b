package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/openbb/platform-core/internal/openbberr"
)

// Validator checks (and may rewrite) a coerced field value. It returns the
// value to keep, or a FieldError describing the rejection.
type Validator func(field string, v any) (any, *openbberr.FieldError)

// SingleValue rejects scalar string values containing list separators.
// Callers that want multiple values must use a list-typed field instead.
func SingleValue() Validator {
	return func(field string, v any) (any, *openbberr.FieldError) {
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		if strings.ContainsAny(s, ",;") {
			return nil, &openbberr.FieldError{
				Field:   field,
				Message: "multiple values are not allowed; pass a single value",
			}
		}
		return v, nil
	}
}

// MinLength rejects strings shorter than n.
func MinLength(n int) Validator {
	return func(field string, v any) (any, *openbberr.FieldError) {
		s := cast.ToString(v)
		if len(s) < n {
			return nil, &openbberr.FieldError{
				Field:   field,
				Message: fmt.Sprintf("must be at least %d characters", n),
			}
		}
		return v, nil
	}
}

// Regex rejects strings that do not match the pattern. The pattern is
// compiled once at schema construction.
func Regex(pattern string) Validator {
	re := regexp.MustCompile(pattern)
	return func(field string, v any) (any, *openbberr.FieldError) {
		s := cast.ToString(v)
		if !re.MatchString(s) {
			return nil, &openbberr.FieldError{
				Field:   field,
				Message: fmt.Sprintf("must match %s", pattern),
			}
		}
		return v, nil
	}
}

// UpperCase rewrites string values to upper case. Never rejects.
func UpperCase() Validator {
	return func(field string, v any) (any, *openbberr.FieldError) {
		if s, ok := v.(string); ok {
			return strings.ToUpper(s), nil
		}
		return v, nil
	}
}

// InChoices rejects values outside the allowed set.
func InChoices(choices ...string) Validator {
	set := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		set[c] = struct{}{}
	}
	return func(field string, v any) (any, *openbberr.FieldError) {
		s := cast.ToString(v)
		if _, ok := set[s]; !ok {
			return nil, &openbberr.FieldError{
				Field:   field,
				Message: fmt.Sprintf("must be one of %s", strings.Join(choices, ", ")),
			}
		}
		return v, nil
	}
}
