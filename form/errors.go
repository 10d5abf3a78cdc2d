package form

import "errors"

var (
	// ErrUnknownKey is returned when a builtin key is requested that the
	// catalog does not define.
	ErrUnknownKey = errors.New("unknown builtin field key")

	// ErrDuplicateFieldKey is returned when a merge would produce two
	// fields with the same key. The admin UI namespaces custom keys, but
	// the merger still defends the invariant.
	ErrDuplicateFieldKey = errors.New("duplicate field key")

	// ErrUnsupportedFieldType is returned by the compiler for a type
	// outside the closed set. A field is never silently dropped.
	ErrUnsupportedFieldType = errors.New("unsupported field type")
)
