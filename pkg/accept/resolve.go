package accept

import (
	"slices"
	"strings"
)

// ResolvePresetKey returns the key of the preset s refers to.
//
// An absent Spec, an unknown key, an empty mapping and a mapping that
// matches no preset all resolve to DefaultKey. Mappings are matched against
// the preset table in declaration order; the first structural match wins.
func ResolvePresetKey(s Spec) Key {
	switch s.kind {
	case specKey:
		if IsPreset(s.key) {
			return Key(s.key)
		}
		return DefaultKey
	case specMapping:
		if len(s.mapping) == 0 {
			return DefaultKey
		}
		want := canonicalize(s.mapping)
		for _, p := range presets {
			if canonicalize(p.Accept).equal(want) {
				return p.Key
			}
		}
		return DefaultKey
	default:
		return DefaultKey
	}
}

// Effective returns the mapping a drop zone configured with s enforces: an
// explicit non-empty mapping as given, otherwise the resolved preset's.
func Effective(s Spec) Mapping {
	if s.kind == specMapping && len(s.mapping) > 0 {
		return s.mapping.Clone()
	}
	m, _ := Lookup(ResolvePresetKey(s))
	return m
}

// canonical is a Mapping flattened for comparison: the sorted MIME keys
// joined with commas, and for each key its sorted extensions joined the
// same way. Duplicates survive the join.
type canonical struct {
	types string
	exts  map[string]string
}

func canonicalize(m Mapping) canonical {
	c := canonical{
		types: strings.Join(m.Types(), ","),
		exts:  make(map[string]string, len(m)),
	}
	for mime, exts := range m {
		sorted := slices.Clone(exts)
		slices.Sort(sorted)
		c.exts[mime] = strings.Join(sorted, ",")
	}
	return c
}

func (c canonical) equal(o canonical) bool {
	if c.types != o.types {
		return false
	}
	for mime, exts := range c.exts {
		if o.exts[mime] != exts {
			return false
		}
	}
	return true
}
