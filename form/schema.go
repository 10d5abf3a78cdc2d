package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format date values are entered in.
const DateLayout = "2006-01-02"

// CompiledField is one rule of a validation schema.
type CompiledField struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// Schema is the compiled form of a unified field set: the enabled
// fields in display order, ready to validate a submission against.
type Schema struct {
	Fields []CompiledField `json:"fields"`
}

// Compile turns a unified field set into its validation schema.
// Compilation is pure and deterministic: structurally equal sets yield
// structurally equal schemas. A field with a type outside the closed
// set fails with ErrUnsupportedFieldType rather than being dropped.
func Compile(set Set) (Schema, error) {
	enabled := set.Enabled()
	schema := Schema{Fields: make([]CompiledField, 0, len(enabled))}
	for _, f := range enabled {
		if !f.Type.Valid() {
			return Schema{}, fmt.Errorf("%w: %q (field %q)", ErrUnsupportedFieldType, f.Type, f.Key)
		}
		schema.Fields = append(schema.Fields, CompiledField{
			Key:         f.Key,
			Label:       f.Label,
			Type:        f.Type,
			Required:    f.Required,
			Placeholder: f.Placeholder,
			Description: f.Description,
			Options:     append([]string(nil), f.Options...),
		})
	}
	return schema, nil
}

// Defaults builds the initial value map of a unified field set: empty
// strings for text-like and number fields (numbers stay unparsed until
// submission), false for checkboxes, and today's date for the builtin
// date field. The clock is injected so the walk stays deterministic.
func Defaults(set Set, today time.Time) (map[string]any, error) {
	values := make(map[string]any)
	for _, f := range set.Enabled() {
		switch f.Type {
		case TypeText, TypeTextarea, TypeNumber, TypeSelect, TypeRadio:
			values[f.Key] = ""
		case TypeCheckbox:
			values[f.Key] = false
		case TypeDate:
			if f.SourceKey == "date" {
				values[f.Key] = today.Format(DateLayout)
			} else {
				values[f.Key] = ""
			}
		default:
			return nil, fmt.Errorf("%w: %q (field %q)", ErrUnsupportedFieldType, f.Type, f.Key)
		}
	}
	return values, nil
}

// ValidationErrors maps field keys to what is wrong with their value.
// It is a normal decision outcome, rendered back to the student.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for key, msg := range e {
		parts = append(parts, key+": "+msg)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Validate checks submitted values against the schema. Values outside
// the schema are ignored; a nil return means the submission passed.
//
// select and radio values are deliberately not checked for membership
// in the options list: an administrator may edit options after a client
// already loaded the field list, and a stale but honest value is still
// acceptable.
func (s Schema) Validate(values map[string]any) error {
	errs := ValidationErrors{}
	for _, f := range s.Fields {
		if msg := validateValue(f, values[f.Key]); msg != "" {
			errs[f.Key] = msg
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateValue(f CompiledField, v any) string {
	switch f.Type {
	case TypeText, TypeTextarea, TypeSelect, TypeRadio:
		str, ok := stringValue(v)
		if !ok {
			return "must be text"
		}
		if f.Required && str == "" {
			return "required"
		}

	case TypeNumber:
		switch n := v.(type) {
		case nil:
			if f.Required {
				return "required"
			}
		case string:
			if n == "" {
				if f.Required {
					return "required"
				}
				return ""
			}
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
				return "must be a number"
			}
		case float64:
			if math.IsInf(n, 0) || math.IsNaN(n) {
				return "must be a number"
			}
		default:
			return "must be a number"
		}

	case TypeDate:
		str, ok := stringValue(v)
		if !ok {
			return "must be a date"
		}
		if str == "" {
			if f.Required {
				return "required"
			}
			return ""
		}
		// The string stays opaque beyond parseability: no timezone
		// normalization happens at this layer.
		if f.Required && !parseableDate(str) {
			return "must be a valid date (" + DateLayout + ")"
		}

	case TypeCheckbox:
		switch b := v.(type) {
		case nil:
			if f.Required {
				return "must be checked"
			}
		case bool:
			if f.Required && !b {
				return "must be checked"
			}
		default:
			return "must be a boolean"
		}
	}
	return ""
}

func stringValue(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	str, ok := v.(string)
	return str, ok
}

func parseableDate(s string) bool {
	if _, err := time.Parse(DateLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
