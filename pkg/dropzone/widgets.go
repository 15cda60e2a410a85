package dropzone

import (
	"fmt"
	"strconv"

	"github.com/vango-dev/dropzone/pkg/accept"
	. "github.com/vango-dev/dropzone/pkg/vdom"
)

const (
	rootClass     = "mt-2 flex justify-center rounded-md border border-dashed px-6 py-20 transition-colors duration-200"
	activeClass   = "border-primary bg-primary/10 ring-2 ring-primary/20"
	inactiveClass = "border-border"
)

// FileUpload renders a file drop zone with a list of the selected files.
func FileUpload(opts ...FieldOption) *VNode {
	return NewField(opts...).Render()
}

// ImageUpload renders an image drop zone with a preview grid.
func ImageUpload(opts ...FieldOption) *VNode {
	return NewImageField(opts...).Render()
}

// PresetSelect renders a select of the accept presets with the one spec
// resolves to selected.
func PresetSelect(name string, spec accept.Spec) *VNode {
	current := accept.ResolvePresetKey(spec)
	return Select(
		ID(name),
		Name(name),
		Class("rounded-md border border-border px-3 py-2"),
		Range(accept.Presets(), func(p accept.Preset, _ int) *VNode {
			return Option(
				Value(string(p.Key)),
				Selected(p.Key == current),
				p.Label,
			)
		}),
	)
}

func renderField(cfg fieldConfig, policy Policy, st fieldState) *VNode {
	return Div(
		Class("dropzone-field", cfg.className),
		Data("dropzone", cfg.name),
		If(cfg.label != "", Label(For(cfg.name), Class("font-medium"), cfg.label)),
		dropRoot(cfg, policy, st.drag),
		helperText(cfg, policy),
		rejectionList(st.rejected),
		IfElse(cfg.kind == kindImage, previewGrid(st.files), fileList(st.files)),
	)
}

func dropRoot(cfg fieldConfig, policy Policy, drag bool) *VNode {
	state := inactiveClass
	if drag {
		state = activeClass
	}

	return Div(
		Class(state, rootClass),
		Role("presentation"),
		TabIndex(0),
		Data("dropzone-root", ""),
		Data("drag-active", strconv.FormatBool(drag)),
		Data("accept", policy.Accept.Attr()),
		Data("multiple", strconv.FormatBool(policy.Multiple)),
		AttrIf(policy.MaxFiles > 0, Data("max-files", strconv.Itoa(policy.MaxFiles))),
		AttrIf(policy.MaxSize > 0, Data("max-size", strconv.FormatInt(policy.MaxSize, 10))),
		AttrIf(cfg.uploadURL != "", Data("upload-url", cfg.uploadURL)),
		Div(
			Span(Class("icon icon-file mx-auto h-12 w-12 text-muted-foreground/80"), AriaHidden(true)),
			Div(
				Class("mt-4 flex text-muted-foreground"),
				P("Drag and drop or"),
				Label(
					For(cfg.name),
					Class("relative cursor-pointer rounded-sm pl-1 font-medium text-primary hover:text-primary/80 hover:underline hover:underline-offset-4"),
					Span("choose file(s)"),
					Input(
						ID(cfg.name),
						Name(cfg.name),
						Type("file"),
						Class("sr-only"),
						Accept(policy.Accept.Attr()),
						Multiple(policy.Multiple),
					),
				),
				P(Class("text-pretty pl-1"), "to upload"),
			),
		),
	)
}

func helperText(cfg fieldConfig, policy Policy) *VNode {
	return P(
		Class("text-pretty mt-2 text-sm leading-5 text-muted-foreground sm:flex sm:items-center sm:justify-between"),
		Span(acceptedText(cfg.spec, policy.Accept)),
		If(policy.MaxSize > 0, Span(Class("pl-1 sm:pl-0"), "Max. size per file: "+FormatSize(policy.MaxSize))),
	)
}

// acceptedText names the preset when the effective mapping is one, and lists
// the raw types otherwise.
func acceptedText(spec accept.Spec, effective accept.Mapping) string {
	if len(effective) == 0 {
		return "All file types are allowed to upload."
	}
	key := accept.ResolvePresetKey(spec)
	if preset, ok := accept.Lookup(key); ok && preset.Attr() == effective.Attr() {
		return "Accepted: " + accept.Label(key)
	}
	return "Accepted: " + effective.Attr()
}

func rejectionList(rejected []Rejection) *VNode {
	if len(rejected) == 0 {
		return nil
	}
	return Ul(
		Role("alert"),
		Class("mt-2 space-y-1 text-sm text-destructive"),
		Range(rejected, func(r Rejection, _ int) *VNode {
			msg := r.File.Name
			for _, e := range r.Errors {
				msg += ": " + e.Message
			}
			return Li(Data("code", string(r.Errors[0].Code)), msg)
		}),
	)
}

func fileList(files []FileInfo) *VNode {
	if len(files) == 0 {
		return nil
	}
	return Ul(
		Role("list"),
		Class("mt-4 space-y-4"),
		Range(files, func(f FileInfo, _ int) *VNode {
			return Li(
				Data("file", f.Name),
				AttrIf(f.TempID != "", Data("temp-id", f.TempID)),
				Class("relative"),
				Div(
					Class("card relative p-4"),
					Div(Class("absolute right-4 top-1/2 -translate-y-1/2"), removeButton(f.Name)),
					Div(
						Class("flex items-center space-x-3 p-0"),
						Span(
							Class("flex h-10 w-10 shrink-0 items-center justify-center rounded-md bg-muted"),
							Span(Class("icon icon-file h-5 w-5 text-foreground"), AriaHidden(true)),
						),
						Div(
							P(Class("text-pretty font-medium text-foreground"), f.Name),
							P(Class("text-pretty mt-0.5 text-sm text-muted-foreground"), fmt.Sprintf("%d bytes", f.Size)),
						),
					),
				),
			)
		}),
	)
}

func previewGrid(files []FileInfo) *VNode {
	if len(files) == 0 {
		return nil
	}
	return Ul(
		Role("list"),
		Class("mt-4 grid grid-cols-2 gap-4 sm:grid-cols-3"),
		Range(files, func(f FileInfo, _ int) *VNode {
			return Li(
				Data("file", f.Name),
				AttrIf(f.TempID != "", Data("temp-id", f.TempID)),
				Class("relative overflow-hidden rounded-md border border-border"),
				IfElse(f.URL != "",
					Img(Src(f.URL), Alt(f.Name), Loading("lazy"), Class("aspect-square w-full object-cover")),
					Span(Class("icon icon-image flex aspect-square w-full items-center justify-center bg-muted"), AriaHidden(true)),
				),
				P(Class("truncate px-2 py-1 text-xs text-muted-foreground"), f.Name),
				Div(Class("absolute right-1 top-1"), removeButton(f.Name)),
			)
		}),
	)
}

func removeButton(name string) *VNode {
	return Button(
		Type("button"),
		Class("btn btn-ghost btn-icon"),
		AriaLabel("Remove file"),
		Data("remove", name),
		Span(Class("icon icon-trash h-5 w-5"), AriaHidden(true)),
	)
}

// FormatSize renders a byte count the way the helper text shows it.
func FormatSize(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb && n%gb == 0:
		return fmt.Sprintf("%dGB", n/gb)
	case n >= mb && n%mb == 0:
		return fmt.Sprintf("%dMB", n/mb)
	case n >= mb:
		return strconv.FormatFloat(float64(n)/mb, 'f', 1, 64) + "MB"
	case n >= kb && n%kb == 0:
		return fmt.Sprintf("%dKB", n/kb)
	case n >= kb:
		return strconv.FormatFloat(float64(n)/kb, 'f', 1, 64) + "KB"
	default:
		return fmt.Sprintf("%dB", n)
	}
}
