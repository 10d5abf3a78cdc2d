package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileDeterministic(t *testing.T) {
	custom := []Field{{Key: "club", Label: "Club", Type: TypeText, Required: true}}

	first, err := Merge(custom, []string{"date", "name"})
	require.NoError(t, err)
	second, err := Merge(custom, []string{"date", "name"})
	require.NoError(t, err)

	s1, err := Compile(first)
	require.NoError(t, err)
	s2, err := Compile(second)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	today := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	d1, err := Defaults(first, today)
	require.NoError(t, err)
	d2, err := Defaults(second, today)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestCompileRequiredFields(t *testing.T) {
	set, err := Merge(
		[]Field{{Key: "club", Label: "Club", Type: TypeText, Required: true}},
		[]string{"date", "name"},
	)
	require.NoError(t, err)

	schema, err := Compile(set)
	require.NoError(t, err)

	// club is ordered after name
	keys := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"date", "name", "club"}, keys)

	err = schema.Validate(map[string]any{})
	require.Error(t, err)
	fieldErrs := ValidationErrors{}
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)

	assert.NoError(t, schema.Validate(map[string]any{
		"date": "2024-05-01",
		"name": "Sato",
		"club": "chess",
	}))
}

func TestCompileUnsupportedType(t *testing.T) {
	set := Set{{Key: "volume", Label: "Volume", Type: FieldType("slider"), Enabled: true}}

	_, err := Compile(set)
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
	_, err = Defaults(set, time.Now())
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
}

func TestValidateByType(t *testing.T) {
	field := func(typ FieldType, required bool) Schema {
		return Schema{Fields: []CompiledField{{Key: "f", Label: "F", Type: typ, Required: required}}}
	}

	tests := []struct {
		name    string
		schema  Schema
		value   any
		absent  bool
		wantErr bool
	}{
		{name: "required text present", schema: field(TypeText, true), value: "hi"},
		{name: "required text empty", schema: field(TypeText, true), value: "", wantErr: true},
		{name: "required text absent", schema: field(TypeText, true), absent: true, wantErr: true},
		{name: "optional text empty", schema: field(TypeTextarea, false), value: ""},
		{name: "text wrong type", schema: field(TypeText, false), value: 12.0, wantErr: true},

		{name: "number from string", schema: field(TypeNumber, true), value: "42"},
		{name: "number from json number", schema: field(TypeNumber, true), value: 42.5},
		{name: "number unparseable", schema: field(TypeNumber, false), value: "forty", wantErr: true},
		{name: "number required empty", schema: field(TypeNumber, true), value: "", wantErr: true},
		{name: "number optional empty", schema: field(TypeNumber, false), value: ""},
		{name: "number optional absent", schema: field(TypeNumber, false), absent: true},

		{name: "required date parseable", schema: field(TypeDate, true), value: "2024-05-01"},
		{name: "required date rfc3339", schema: field(TypeDate, true), value: "2024-05-01T09:00:00Z"},
		{name: "required date garbage", schema: field(TypeDate, true), value: "yesterday-ish", wantErr: true},
		{name: "required date empty", schema: field(TypeDate, true), value: "", wantErr: true},
		// optional dates stay opaque strings
		{name: "optional date garbage", schema: field(TypeDate, false), value: "yesterday-ish"},
		{name: "optional date empty", schema: field(TypeDate, false), value: ""},

		{name: "required select present", schema: field(TypeSelect, true), value: "chess"},
		{name: "required select empty", schema: field(TypeSelect, true), value: "", wantErr: true},
		{name: "required radio present", schema: field(TypeRadio, true), value: "yes"},

		{name: "required checkbox true", schema: field(TypeCheckbox, true), value: true},
		{name: "required checkbox false", schema: field(TypeCheckbox, true), value: false, wantErr: true},
		{name: "required checkbox absent", schema: field(TypeCheckbox, true), absent: true, wantErr: true},
		{name: "optional checkbox absent", schema: field(TypeCheckbox, false), absent: true},
		{name: "optional checkbox false", schema: field(TypeCheckbox, false), value: false},
		{name: "checkbox wrong type", schema: field(TypeCheckbox, false), value: "on", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[string]any{}
			if !tt.absent {
				values["f"] = tt.value
			}
			err := tt.schema.Validate(values)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// A select value outside the configured options passes: administrators
// may edit options after a client cached the field list, and the stale
// value is accepted on purpose.
func TestValidateSelectIgnoresOptionMembership(t *testing.T) {
	schema := Schema{Fields: []CompiledField{{
		Key:      "club",
		Label:    "Club",
		Type:     TypeSelect,
		Required: true,
		Options:  []string{"chess", "band"},
	}}}

	assert.NoError(t, schema.Validate(map[string]any{"club": "astronomy"}))
}

func TestDefaults(t *testing.T) {
	set, err := Merge(
		[]Field{
			{Key: "club", Label: "Club", Type: TypeText},
			{Key: "agree", Label: "Agree", Type: TypeCheckbox},
			{Key: "seat", Label: "Seat", Type: TypeNumber},
			{Key: "birthday", Label: "Birthday", Type: TypeDate},
		},
		[]string{"date", "name"},
	)
	require.NoError(t, err)

	today := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	defaults, err := Defaults(set, today)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"date":     "2024-05-01", // the canonical date field gets today
		"name":     "",
		"club":     "",
		"agree":    false,
		"seat":     "", // numbers stay unparsed until submission
		"birthday": "", // only the builtin date field is prefilled
	}, defaults)
}
