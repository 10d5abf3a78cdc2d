package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogKeys(t *testing.T) {
	assert.Equal(t,
		[]string{"date", "class_name", "student_id", "grade", "name", "department", "feedback"},
		CatalogKeys())
}

func TestLookup(t *testing.T) {
	f, err := Lookup("grade")
	require.NoError(t, err)
	assert.Equal(t, OriginBuiltin, f.Origin)
	assert.Equal(t, "grade", f.SourceKey)
	assert.Equal(t, TypeSelect, f.Type)
	assert.NotEmpty(t, f.Options)

	_, err = Lookup("homeroom")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestLookupReturnsACopy(t *testing.T) {
	f, err := Lookup("grade")
	require.NoError(t, err)
	f.Options[0] = "mutated"
	f.Label = "mutated"

	again, err := Lookup("grade")
	require.NoError(t, err)
	assert.Equal(t, "1", again.Options[0])
	assert.Equal(t, "Grade", again.Label)
}
