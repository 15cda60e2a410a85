package accept

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type specKind uint8

const (
	specNone specKind = iota
	specKey
	specMapping
)

// Spec is the caller's accepted-file-types configuration. The zero value is
// the absent Spec.
type Spec struct {
	kind    specKind
	key     string
	mapping Mapping
}

// None returns the absent Spec.
func None() Spec { return Spec{} }

// FromKey returns a Spec naming a preset. The key is not validated here;
// unknown keys resolve to DefaultKey.
func FromKey(key string) Spec { return Spec{kind: specKey, key: key} }

// FromMapping returns a Spec holding an explicit mapping. A nil mapping is
// kept as an empty mapping, not as the absent Spec.
func FromMapping(m Mapping) Spec {
	if m == nil {
		m = Mapping{}
	}
	return Spec{kind: specMapping, mapping: m.Clone()}
}

// IsNone reports whether the Spec is absent.
func (s Spec) IsNone() bool { return s.kind == specNone }

// Key returns the preset key carried by the Spec, if it is a key Spec.
func (s Spec) Key() (string, bool) {
	return s.key, s.kind == specKey
}

// Mapping returns a copy of the explicit mapping, if it is a mapping Spec.
func (s Spec) Mapping() (Mapping, bool) {
	if s.kind != specMapping {
		return nil, false
	}
	return s.mapping.Clone(), true
}

// String implements fmt.Stringer.
func (s Spec) String() string {
	switch s.kind {
	case specKey:
		return s.key
	case specMapping:
		return "{" + s.mapping.Attr() + "}"
	default:
		return "<none>"
	}
}

// MarshalJSON encodes the absent Spec as null, a key Spec as a string and a
// mapping Spec as an object.
func (s Spec) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case specKey:
		return json.Marshal(s.key)
	case specMapping:
		return json.Marshal(s.mapping.Clone())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string or an object of string arrays.
func (s *Spec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = None()
	case data[0] == '"':
		var key string
		if err := json.Unmarshal(data, &key); err != nil {
			return err
		}
		*s = FromKey(key)
	case data[0] == '{':
		var m Mapping
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("accept: mapping: %w", err)
		}
		*s = FromMapping(m)
	default:
		return fmt.Errorf("accept: expected string or object, got %s", data)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler with the same shapes as JSON.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*s = None()
			return nil
		}
		*s = FromKey(value.Value)
	case yaml.MappingNode:
		var m Mapping
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("accept: mapping: %w", err)
		}
		*s = FromMapping(m)
	default:
		return fmt.Errorf("accept: line %d: expected string or mapping", value.Line)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Spec) MarshalYAML() (any, error) {
	switch s.kind {
	case specKey:
		return s.key, nil
	case specMapping:
		return map[string][]string(s.mapping.Clone()), nil
	default:
		return nil, nil
	}
}

// Parse reads a Spec from a command-line or query value: empty and "null"
// are the absent Spec, a value starting with '{' or '"' is decoded as JSON,
// and anything else is taken as a preset key.
func Parse(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None(), nil
	}
	if s[0] != '{' && s[0] != '"' && s != "null" {
		return FromKey(s), nil
	}
	var spec Spec
	if err := json.Unmarshal([]byte(s), &spec); err != nil {
		return None(), err
	}
	return spec, nil
}
