package form

// FieldType is the closed set of renderable input types.
// SchemaCompiler switches over it exhaustively; adding a member means
// touching every switch that consumes it.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeSelect   FieldType = "select"
	TypeRadio    FieldType = "radio"
	TypeCheckbox FieldType = "checkbox"
)

// Valid reports whether t is one of the supported input types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeDate, TypeSelect, TypeRadio, TypeCheckbox:
		return true
	}
	return false
}

// HasOptions reports whether fields of this type carry an options list.
func (t FieldType) HasOptions() bool {
	return t == TypeSelect || t == TypeRadio
}

type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginCustom  Origin = "custom"
)

// Field describes one entry of a course form.
//
// Key is unique within a unified field set. Order positions the field
// among enabled fields; ties break by insertion order. Builtin fields
// keep the catalog key they were instantiated from in SourceKey, so a
// renamed custom field can never collide with them.
type Field struct {
	Key         string    `json:"key" validate:"required"`
	Label       string    `json:"label" validate:"required"`
	Type        FieldType `json:"type" validate:"required"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Order       int       `json:"order"`
	Origin      Origin    `json:"origin,omitempty"`
	SourceKey   string    `json:"sourceKey,omitempty"`
	Enabled     bool      `json:"enabled"`
}

// Config is the persisted form configuration of one course: the
// administrator's custom fields plus the subset of builtin catalog keys
// currently switched on. It is stored as an opaque JSON blob and must
// round-trip losslessly.
type Config struct {
	CustomFields       []Field  `json:"customFields"`
	EnabledBuiltinKeys []string `json:"enabledBuiltinKeys"`
}

// DefaultConfig is the state a fresh course starts in: every builtin
// field enabled, no custom fields.
func DefaultConfig() Config {
	return Config{
		CustomFields:       []Field{},
		EnabledBuiltinKeys: CatalogKeys(),
	}
}
