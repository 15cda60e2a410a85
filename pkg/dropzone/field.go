package dropzone

import (
	"sync"

	"github.com/vango-dev/dropzone/pkg/accept"
	"github.com/vango-dev/dropzone/pkg/vdom"
)

// DefaultMaxSize is the per-file size limit when none is configured.
const DefaultMaxSize int64 = 50 << 20

// FieldOption configures a Field.
type FieldOption func(*fieldConfig)

// fieldKind selects the list layout.
type fieldKind uint8

const (
	kindFile fieldKind = iota
	kindImage
)

type fieldConfig struct {
	kind       fieldKind
	name       string
	label      string
	spec       accept.Spec
	multiple   bool
	maxFiles   int
	maxSize    int64
	minSize    int64
	className  string
	uploadURL  string
	value      []FileInfo
	dragActive bool
	onChange   func([]FileInfo)
}

func defaultFieldConfig() fieldConfig {
	return fieldConfig{
		name:    "file",
		maxSize: DefaultMaxSize,
	}
}

// FieldName sets the input name and id.
func FieldName(name string) FieldOption {
	return func(c *fieldConfig) {
		c.name = name
	}
}

// FieldLabel sets the visible label.
func FieldLabel(label string) FieldOption {
	return func(c *fieldConfig) {
		c.label = label
	}
}

// FieldAccept sets the accepted file types.
func FieldAccept(spec accept.Spec) FieldOption {
	return func(c *fieldConfig) {
		c.spec = spec
	}
}

// FieldMultiple allows selecting more than one file.
func FieldMultiple(multiple bool) FieldOption {
	return func(c *fieldConfig) {
		c.multiple = multiple
	}
}

// FieldMaxFiles caps the number of files when multiple is set.
func FieldMaxFiles(n int) FieldOption {
	return func(c *fieldConfig) {
		c.maxFiles = n
	}
}

// FieldMaxSize sets the per-file size limit in bytes. Zero or less removes it.
func FieldMaxSize(n int64) FieldOption {
	return func(c *fieldConfig) {
		c.maxSize = n
	}
}

// FieldMinSize sets the minimum file size in bytes.
func FieldMinSize(n int64) FieldOption {
	return func(c *fieldConfig) {
		c.minSize = n
	}
}

// FieldClass adds classes to the outer wrapper.
func FieldClass(className string) FieldOption {
	return func(c *fieldConfig) {
		c.className = className
	}
}

// FieldUploadURL sets the endpoint the client posts file bytes to.
func FieldUploadURL(url string) FieldOption {
	return func(c *fieldConfig) {
		c.uploadURL = url
	}
}

// FieldValue sets the initial selection.
func FieldValue(files []FileInfo) FieldOption {
	return func(c *fieldConfig) {
		c.value = append([]FileInfo(nil), files...)
	}
}

// FieldDragActive renders the drop root in its active state.
func FieldDragActive(active bool) FieldOption {
	return func(c *fieldConfig) {
		c.dragActive = active
	}
}

// FieldOnChange sets the callback invoked with the new selection.
func FieldOnChange(fn func([]FileInfo)) FieldOption {
	return func(c *fieldConfig) {
		c.onChange = fn
	}
}

func asImages() FieldOption {
	return func(c *fieldConfig) {
		c.kind = kindImage
	}
}

// Field is a drop zone instance. It is safe for concurrent use.
type Field struct {
	mu       sync.Mutex
	cfg      fieldConfig
	policy   Policy
	files    []FileInfo
	rejected []Rejection
	drag     bool
}

// NewField creates a file drop zone.
func NewField(opts ...FieldOption) *Field {
	cfg := defaultFieldConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	policy := PolicyFor(cfg.spec, cfg.multiple, cfg.maxFiles, cfg.maxSize)
	policy.MinSize = cfg.minSize
	return &Field{
		cfg:    cfg,
		policy: policy,
		files:  cfg.value,
		drag:   cfg.dragActive,
	}
}

// NewImageField creates a drop zone that lays out its selection as a
// preview grid.
func NewImageField(opts ...FieldOption) *Field {
	return NewField(append(opts, asImages())...)
}

// Name returns the field name.
func (f *Field) Name() string { return f.cfg.name }

// Policy returns the filter applied to dropped files.
func (f *Field) Policy() Policy { return f.policy }

// PresetKey returns the preset the field's accept configuration resolves to.
func (f *Field) PresetKey() accept.Key { return accept.ResolvePresetKey(f.cfg.spec) }

// Files returns a copy of the current selection.
func (f *Field) Files() []FileInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FileInfo(nil), f.files...)
}

// Rejected returns the rejections from the last drop.
func (f *Field) Rejected() []Rejection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Rejection(nil), f.rejected...)
}

// DragActive reports whether files are being dragged over the field.
func (f *Field) DragActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drag
}

// Drop filters files and replaces the selection with the accepted ones. The
// change callback runs on every drop, even when nothing was accepted.
func (f *Field) Drop(files []FileInfo) []Rejection {
	accepted, rejected := f.policy.Filter(files)

	f.mu.Lock()
	f.files = accepted
	f.rejected = rejected
	f.drag = false
	f.mu.Unlock()

	f.notify(accepted)
	return rejected
}

// Remove drops every file named name from the selection.
func (f *Field) Remove(name string) {
	f.mu.Lock()
	kept := make([]FileInfo, 0, len(f.files))
	for _, file := range f.files {
		if file.Name != name {
			kept = append(kept, file)
		}
	}
	f.files = kept
	f.rejected = nil
	f.mu.Unlock()

	f.notify(kept)
}

// Attach records where selected files were stored. Entries are matched to
// the selection by name, and their non-empty TempID and URL are copied over.
// Names not in the selection are ignored. It reports how many files changed.
func (f *Field) Attach(stored []FileInfo) int {
	byName := make(map[string]FileInfo, len(stored))
	for _, s := range stored {
		byName[s.Name] = s
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i, file := range f.files {
		s, ok := byName[file.Name]
		if !ok {
			continue
		}
		if s.TempID != "" {
			file.TempID = s.TempID
		}
		if s.URL != "" {
			file.URL = s.URL
		}
		f.files[i] = file
		n++
	}
	return n
}

// SetDragActive records whether files are being dragged over the field.
func (f *Field) SetDragActive(active bool) {
	f.mu.Lock()
	f.drag = active
	f.mu.Unlock()
}

func (f *Field) notify(files []FileInfo) {
	if f.cfg.onChange != nil {
		f.cfg.onChange(append([]FileInfo(nil), files...))
	}
}

// Render implements vdom.Component.
func (f *Field) Render() *vdom.VNode {
	f.mu.Lock()
	st := fieldState{
		files:    append([]FileInfo(nil), f.files...),
		rejected: append([]Rejection(nil), f.rejected...),
		drag:     f.drag,
	}
	f.mu.Unlock()
	return renderField(f.cfg, f.policy, st)
}

type fieldState struct {
	files    []FileInfo
	rejected []Rejection
	drag     bool
}
