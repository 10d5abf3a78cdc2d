package form

import "fmt"

// The builtin catalog: the fixed descriptors every course form may
// enable. Keys are stable; catalog position doubles as default order.
var catalog = []Field{
	{Key: "date", Label: "Date", Type: TypeDate, Required: true},
	{Key: "class_name", Label: "Class", Type: TypeText, Required: true, Placeholder: "e.g. Algorithms II"},
	{Key: "student_id", Label: "Student ID", Type: TypeText, Required: true},
	{Key: "grade", Label: "Grade", Type: TypeSelect, Required: true, Options: []string{"1", "2", "3", "4"}},
	{Key: "name", Label: "Name", Type: TypeText, Required: true},
	{Key: "department", Label: "Department", Type: TypeText, Required: false},
	{Key: "feedback", Label: "Feedback", Type: TypeTextarea, Required: false, Placeholder: "Questions or comments about today's class"},
}

// CatalogKeys returns the builtin keys in catalog order.
func CatalogKeys() []string {
	keys := make([]string, len(catalog))
	for i, f := range catalog {
		keys[i] = f.Key
	}
	return keys
}

// Lookup instantiates the builtin descriptor for key. The returned
// field is a copy tagged with its origin and source key; mutating it
// never touches the catalog.
func Lookup(key string) (Field, error) {
	for i, f := range catalog {
		if f.Key == key {
			f.Origin = OriginBuiltin
			f.SourceKey = f.Key
			f.Order = i
			f.Options = append([]string(nil), f.Options...)
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func catalogIndex(key string) int {
	for i, f := range catalog {
		if f.Key == key {
			return i
		}
	}
	return -1
}
