// Package accept holds the accepted-file-type presets used by the dropzone
// widgets and resolves caller configuration back to a preset key.
//
// A drop zone is configured with a Spec, which is either absent, the key of
// a preset, or an explicit MIME-type to extensions Mapping:
//
//	accept.FromKey("images-and-pdf")
//	accept.FromMapping(accept.Mapping{"image/png": {".png"}})
//
// ResolvePresetKey maps any Spec to one of the seven preset keys. It never
// fails: unknown keys, empty mappings and mappings that match no preset all
// resolve to DefaultKey ("image/*").
//
// # Matching
//
// Mappings are compared structurally. MIME keys are compared as a sorted,
// comma-joined list, and so is each key's extension list. Order never
// matters. Case does, and duplicate extensions are kept, so
// {"image/jpeg": [".jpg", ".jpg", ".jpeg"]} does not match the JPEG preset.
//
// File filtering (Mapping.Allows) follows browser accept semantics instead:
// extensions and MIME types are compared case-insensitively.
package accept
