// Package upload is the intake endpoint behind the dropzone widgets.
//
// Large file uploads over the live WebSocket channel would block its event
// loop, so file bytes travel over a plain HTTP POST while the selection
// travels over the live channel.
//
//  1. User drops files on a dropzone field
//  2. Client POSTs them to the /upload endpoint
//  3. Server sniffs each file's type, filters the batch with the field's
//     dropzone.Policy and streams the survivors to temp storage
//  4. Client reports the returned temp IDs as the new selection
//  5. The form handler calls upload.Claim(ctx, store, tempID) to finalize
//
// # Usage
//
// Mount the upload handler in your router:
//
//	r.Post("/upload", upload.HandlerWithConfig(store, &upload.Config{
//	    Accept:      accept.FromKey("images-and-pdf"),
//	    Multiple:    true,
//	    MaxFiles:    5,
//	    MaxFileSize: 50 << 20,
//	}))
//
// # Security
//
// Types are checked against content detected on the server with
// github.com/gabriel-vasile/mimetype. The part's Content-Type header and the
// client file name are never used to accept a file.
//
// Storage backends: DiskStore, S3Store and GCSStore. Temp IDs are UUIDs and
// are validated before they touch a path or object key.
package upload
