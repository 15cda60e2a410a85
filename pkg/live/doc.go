// Package live keeps a dropzone.Field in sync with the browser over a
// WebSocket.
//
// The client reports drops, removals and drag state as JSON messages. The
// server applies each one to the connection's Field and answers with the
// re-rendered widget HTML plus any rejected files:
//
//	-> {"type":"drop","files":[{"name":"a.png","size":42,"type":"image/png"}]}
//	<- {"type":"render","reply_to":"drop","html":"<div ...>","rejected":[]}
//
// Once the files are posted to the upload endpoint, the client reports the
// temp IDs it got back so the widget can show them:
//
//	-> {"type":"stored","files":[{"name":"a.png","size":42,"temp_id":"..."}]}
//
// Each connection owns one Field, created by the factory passed to Handler.
package live
