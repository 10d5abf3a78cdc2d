package form

import "fmt"

// The Config operations below are pure: they return a modified copy and
// leave the receiver alone, so callers can re-merge and persist only
// after every invariant check passed.

func (c Config) clone() Config {
	out := Config{
		CustomFields:       append([]Field(nil), c.CustomFields...),
		EnabledBuiltinKeys: append([]string(nil), c.EnabledBuiltinKeys...),
	}
	return out
}

// EnableBuiltin switches a catalog field on. Enabling an already
// enabled key is a no-op.
func (c Config) EnableBuiltin(key string) (Config, error) {
	if catalogIndex(key) < 0 {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	out := c.clone()
	for _, k := range out.EnabledBuiltinKeys {
		if k == key {
			return out, nil
		}
	}
	out.EnabledBuiltinKeys = append(out.EnabledBuiltinKeys, key)
	return out, nil
}

// DisableBuiltin switches a catalog field off. The field drops out of
// the live order sequence but stays retrievable for re-enabling.
func (c Config) DisableBuiltin(key string) (Config, error) {
	if catalogIndex(key) < 0 {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	out := c.clone()
	keys := out.EnabledBuiltinKeys[:0]
	for _, k := range out.EnabledBuiltinKeys {
		if k != key {
			keys = append(keys, k)
		}
	}
	out.EnabledBuiltinKeys = keys
	return out, nil
}

// AddCustomField appends a custom field. The key must not collide with
// an existing custom field or an enabled builtin, and the type must be
// a member of the closed set — a malformed field never reaches the
// store.
func (c Config) AddCustomField(f Field) (Config, error) {
	if !f.Type.Valid() {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFieldType, f.Type)
	}
	out := c.clone()
	f.Origin = OriginCustom
	f.SourceKey = ""
	f.Enabled = true
	if !f.Type.HasOptions() {
		f.Options = nil
	}
	// Place after every existing custom field.
	f.Order = 0
	for _, cf := range out.CustomFields {
		if cf.Order >= f.Order {
			f.Order = cf.Order + 1
		}
	}
	out.CustomFields = append(out.CustomFields, f)
	if _, err := out.Merge(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// UpdateCustomField replaces the custom field stored under key. A key
// rename is allowed as long as the new key stays unique.
func (c Config) UpdateCustomField(key string, f Field) (Config, error) {
	out := c.clone()
	idx := -1
	for i, cf := range out.CustomFields {
		if cf.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if !f.Type.Valid() {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFieldType, f.Type)
	}
	f.Origin = OriginCustom
	f.SourceKey = ""
	f.Enabled = true
	if !f.Type.HasOptions() {
		f.Options = nil
	}
	f.Order = out.CustomFields[idx].Order
	out.CustomFields[idx] = f
	if _, err := out.Merge(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// RemoveCustomField deletes a custom field outright. Custom fields have
// no disabled-but-retained state: the administrator can re-create them.
func (c Config) RemoveCustomField(key string) (Config, error) {
	out := c.clone()
	fields := out.CustomFields[:0]
	found := false
	for _, cf := range out.CustomFields {
		if cf.Key == key {
			found = true
			continue
		}
		fields = append(fields, cf)
	}
	if !found {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	out.CustomFields = fields
	return out, nil
}

// ReorderFields applies the key sequence to the merged set and persists
// what the config can carry: the custom fields' relative order.
// Builtins always render in catalog position, so only their presence in
// keys affects where customs land between merges.
func (c Config) ReorderFields(keys []string) (Config, error) {
	set, err := c.Merge()
	if err != nil {
		return Config{}, err
	}
	set = Reorder(set, keys)

	orders := make(map[string]int, len(set))
	for _, f := range set {
		orders[f.Key] = f.Order
	}

	out := c.clone()
	for i := range out.CustomFields {
		if o, ok := orders[out.CustomFields[i].Key]; ok {
			out.CustomFields[i].Order = o
		}
	}
	return out, nil
}
