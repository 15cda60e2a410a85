package accept

import (
	"slices"

	"github.com/samber/lo"
)

// Key identifies a preset.
type Key string

const (
	KeyAllImages    Key = "image/*"
	KeyJPEG         Key = "image/jpeg"
	KeyPNG          Key = "image/png"
	KeyWebP         Key = "image/webp"
	KeyGIF          Key = "image/gif"
	KeyPDF          Key = "application/pdf"
	KeyImagesAndPDF Key = "images-and-pdf"

	// DefaultKey is returned whenever a Spec resolves to nothing else.
	DefaultKey = KeyAllImages
)

// Mapping maps a MIME type pattern to the file extensions accepted for it.
// An empty extension list accepts any extension for that type.
type Mapping map[string][]string

// Clone returns a deep copy of m. Nil extension lists become empty lists.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for mime, exts := range m {
		out[mime] = append([]string{}, exts...)
	}
	return out
}

// Types returns the MIME keys of m in sorted order.
func (m Mapping) Types() []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// Preset is a named acceptance rule.
type Preset struct {
	Key    Key     `json:"key"`
	Label  string  `json:"label"`
	Accept Mapping `json:"accept"`
}

// presets is in declaration order; resolution walks it front to back and the
// first structural match wins.
var presets = []Preset{
	{KeyAllImages, "All images", Mapping{"image/*": {}}},
	{KeyJPEG, "JPEG only", Mapping{"image/jpeg": {".jpeg", ".jpg"}}},
	{KeyPNG, "PNG only", Mapping{"image/png": {".png"}}},
	{KeyWebP, "WebP only", Mapping{"image/webp": {".webp"}}},
	{KeyGIF, "GIF only", Mapping{"image/gif": {".gif"}}},
	{KeyPDF, "PDF only", Mapping{"application/pdf": {".pdf"}}},
	{KeyImagesAndPDF, "Images and PDF", Mapping{
		"image/*":         {},
		"application/pdf": {".pdf"},
	}},
}

var presetIndex = func() map[Key]int {
	idx := make(map[Key]int, len(presets))
	for i, p := range presets {
		idx[p.Key] = i
	}
	return idx
}()

// Presets returns a copy of the preset table in declaration order.
func Presets() []Preset {
	return lo.Map(presets, func(p Preset, _ int) Preset {
		p.Accept = p.Accept.Clone()
		return p
	})
}

// Keys returns the preset keys in declaration order.
func Keys() []Key {
	return lo.Map(presets, func(p Preset, _ int) Key { return p.Key })
}

// Labels returns the display label of every preset, keyed by preset key.
func Labels() map[Key]string {
	out := make(map[Key]string, len(presets))
	for _, p := range presets {
		out[p.Key] = p.Label
	}
	return out
}

// IsPreset reports whether key names a preset.
func IsPreset(key string) bool {
	_, ok := presetIndex[Key(key)]
	return ok
}

// Lookup returns a copy of the preset's mapping.
func Lookup(key Key) (Mapping, bool) {
	i, ok := presetIndex[key]
	if !ok {
		return nil, false
	}
	return presets[i].Accept.Clone(), true
}

// Label returns the display label for key, or the default preset's label
// when key is unknown.
func Label(key Key) string {
	if i, ok := presetIndex[key]; ok {
		return presets[i].Label
	}
	return presets[presetIndex[DefaultKey]].Label
}
