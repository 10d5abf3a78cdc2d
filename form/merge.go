package form

import (
	"fmt"
	"sort"
)

// Set is a unified field set: every builtin catalog field (enabled or
// not) followed by the course's custom fields, with contiguous Order
// values over the enabled subset.
type Set []Field

// Enabled returns the enabled fields sorted by Order.
func (s Set) Enabled() []Field {
	out := make([]Field, 0, len(s))
	for _, f := range s {
		if f.Enabled {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Merge combines enabled builtin fields with the course's custom fields
// into one unified field set.
//
// Builtins appear in catalog order; disabled ones are retained with
// Enabled=false so they can be re-enabled later, but take no part in
// the order sequence. Custom fields follow, keeping their own relative
// order (an explicit Order set by a reorder wins over slice position),
// and are always enabled: a removed custom field is deleted from the
// config outright rather than kept disabled.
//
// Key uniqueness is defended here even though the admin UI namespaces
// custom keys: a custom field colliding with an enabled builtin or with
// another custom field fails with ErrDuplicateFieldKey.
func Merge(custom []Field, enabledBuiltinKeys []string) (Set, error) {
	enabled := make(map[string]bool, len(enabledBuiltinKeys))
	for _, key := range enabledBuiltinKeys {
		if catalogIndex(key) < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		enabled[key] = true
	}

	set := make(Set, 0, len(catalog)+len(custom))
	order := 0
	for _, f := range catalog {
		field, _ := Lookup(f.Key)
		field.Enabled = enabled[f.Key]
		if field.Enabled {
			field.Order = order
			order++
		}
		set = append(set, field)
	}

	// Stable sort keeps insertion order for fields that never got an
	// explicit Order from a reorder.
	sorted := append([]Field(nil), custom...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	seen := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		if enabled[f.Key] || seen[f.Key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFieldKey, f.Key)
		}
		seen[f.Key] = true

		f.Origin = OriginCustom
		f.SourceKey = ""
		f.Enabled = true
		f.Order = order
		order++
		set = append(set, f)
	}

	return set, nil
}

// Merge builds the unified field set of this configuration.
func (c Config) Merge() (Set, error) {
	return Merge(c.CustomFields, c.EnabledBuiltinKeys)
}

// Reorder re-assigns Order over the enabled fields of set, following
// the given key sequence: a field found in keys gets the 0-based index
// of its appearance; fields left out keep their previous relative order
// and are appended after the listed ones. Partial reorder requests are
// therefore safe. Unknown keys are ignored, disabled fields are left
// untouched.
func Reorder(set Set, keys []string) Set {
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, ok := pos[k]; !ok {
			pos[k] = i
		}
	}

	enabled := set.Enabled()
	rank := func(f Field) int {
		if p, ok := pos[f.Key]; ok {
			return p
		}
		return len(keys) + f.Order
	}
	sort.SliceStable(enabled, func(i, j int) bool { return rank(enabled[i]) < rank(enabled[j]) })

	orders := make(map[string]int, len(enabled))
	for i, f := range enabled {
		orders[f.Key] = i
	}

	out := make(Set, len(set))
	copy(out, set)
	for i, f := range out {
		if o, ok := orders[f.Key]; ok && f.Enabled {
			out[i].Order = o
		}
	}
	return out
}
