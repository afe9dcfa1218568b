// Package coerce projects a user-supplied parameter map onto the schema of
// the chosen provider: recognized fields are coerced and validated, unknown
// fields are dropped with a warning, and every field error is reported in a
// single ValidationFailed aggregate.
package coerce

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/openbb/platform-core/internal/compose"
	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/provider"
	"github.com/openbb/platform-core/internal/schema"
)

// WarningCategory is the category attached to coercion warnings.
const WarningCategory = "OpenBBWarning"

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

// Coerced is the validated parameter set for one provider, ready to hand
// to the provider's fetcher. Only keys defined by the provider's merged
// schema appear in Params.
type Coerced struct {
	Params   map[string]any
	Warnings []provider.Warning
}

// Coerce validates raw parameters against the merged schema for the chosen
// provider. Coercion is idempotent: feeding Params back in yields an equal
// set with no warnings beyond the original ones.
func Coerce(m *compose.Merged, providerName string, raw map[string]any) (*Coerced, error) {
	out := &Coerced{Params: make(map[string]any, len(raw))}
	var fieldErrs []openbberr.FieldError

	recognized := make(map[string]schema.Field)
	order := make([]string, 0, len(m.Standard.Fields))
	for _, f := range m.Standard.Fields {
		recognized[f.Name] = f
		order = append(order, f.Name)
	}
	for _, f := range m.ExtrasFor(providerName) {
		if _, dup := recognized[f.Name]; !dup {
			order = append(order, f.Name)
		}
		recognized[f.Name] = f
	}

	for _, name := range order {
		field := recognized[name]
		value, present := raw[name]

		if !present || value == nil {
			if field.Default != nil {
				out.Params[name] = field.Default
				continue
			}
			if !field.Optional {
				fieldErrs = append(fieldErrs, openbberr.FieldError{
					Field:   name,
					Message: "required parameter is missing",
				})
			}
			continue
		}

		coerced, err := coerceValue(field, value)
		if err != nil {
			fieldErrs = append(fieldErrs, openbberr.FieldError{Field: name, Message: err.Error()})
			continue
		}

		rejected := false
		for _, validate := range field.Validators {
			v, ferr := validate(name, coerced)
			if ferr != nil {
				fieldErrs = append(fieldErrs, *ferr)
				rejected = true
				break
			}
			coerced = v
		}
		if !rejected {
			out.Params[name] = coerced
		}
	}

	// Unknown fields are dropped; explicitly set ones earn a warning.
	var unused []string
	for name := range raw {
		if _, ok := recognized[name]; !ok {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	for _, name := range unused {
		out.Warnings = append(out.Warnings, provider.Warning{
			Category: WarningCategory,
			Message:  fmt.Sprintf("parameter %q is not used by provider %q and was ignored", name, providerName),
		})
	}

	if len(fieldErrs) > 0 {
		return nil, openbberr.Validation(fieldErrs)
	}
	return out, nil
}

func coerceValue(field schema.Field, value any) (any, error) {
	switch field.Kind {
	case schema.KindString, schema.KindSymbol:
		return cast.ToStringE(value)

	case schema.KindInt:
		return cast.ToIntE(value)

	case schema.KindFloat:
		return cast.ToFloat64E(value)

	case schema.KindBool:
		return cast.ToBoolE(value)

	case schema.KindDate:
		return coerceTime(value, dateLayout)

	case schema.KindDateTime:
		return coerceTime(value, dateTimeLayout)

	case schema.KindEnum:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, err
		}
		for _, c := range field.Choices {
			if s == c {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(field.Choices, ", "))

	case schema.KindList:
		return coerceList(field, value)

	default:
		return nil, fmt.Errorf("unsupported field kind %q", field.Kind)
	}
}

func coerceTime(value any, layout string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(layout, v)
		if err != nil {
			return nil, fmt.Errorf("must be a %s value", layout)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("must be a %s value", layout)
	}
}

// coerceList accepts a slice or a comma-separated string and coerces each
// element to the declared element kind.
func coerceList(field schema.Field, value any) (any, error) {
	elemField := schema.Field{Name: field.Name, Kind: field.Elem, Choices: field.Choices}
	if elemField.Kind == "" {
		elemField.Kind = schema.KindString
	}

	var items []any
	switch v := value.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		return nil, fmt.Errorf("must be a list or comma-separated string")
	}

	out := make([]any, len(items))
	for i, item := range items {
		coerced, err := coerceValue(elemField, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %s", i, err.Error())
		}
		out[i] = coerced
	}
	return out, nil
}
