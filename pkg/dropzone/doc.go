// Package dropzone provides file and image upload drop zones for Vango-style
// server-rendered forms.
//
// A Field holds one drop zone: its configuration, the current selection and
// the drag state. Dropped files are filtered by the field's Policy before the
// caller's change callback sees them:
//
//	avatar := dropzone.NewField(
//	    dropzone.FieldName("avatar"),
//	    dropzone.FieldLabel("Avatar"),
//	    dropzone.FieldAccept(accept.FromKey("image/png")),
//	    dropzone.FieldOnChange(func(files []dropzone.FileInfo) {
//	        // persist the selection
//	    }),
//	)
//	rejected := avatar.Drop(files)
//
// FileUpload and ImageUpload render a stateless field from options, for pages
// that only need the initial markup.
//
// # Filtering
//
// Filtering mirrors the browser drop handler the widgets were designed
// around. Each file is checked against the accepted types and the size
// bounds. If more files survive than the field allows, all of them are
// rejected with CodeTooManyFiles.
package dropzone
