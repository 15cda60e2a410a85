package app

import (
	"bytes"
	"net/http"

	"github.com/vango-dev/dropzone/pkg/accept"
	"github.com/vango-dev/dropzone/pkg/dropzone"
	. "github.com/vango-dev/dropzone/pkg/vdom"
)

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	spec, err := a.requestSpec(r)
	if err != nil {
		http.Error(w, "invalid accept: "+err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>")
	if err := RenderToWriter(&buf, a.page(spec, uploadURL(r))); err != nil {
		a.logger.Error("render index", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (a *App) page(spec accept.Spec, uploadURL string) *VNode {
	return Html(
		Head(
			Meta(Charset("utf-8")),
			Title("Upload files"),
			Script(Src(PathScript), Defer()),
		),
		Body(
			Main(
				Class("mx-auto max-w-2xl p-8"),
				Data("live-url", PathLive),
				H1(Class("text-2xl font-semibold"), "Upload files"),
				Form(
					Class("mt-6 space-y-6"),
					Data("upload-form", ""),
					Div(
						Label(For("accept"), Class("block font-medium"), "Accepted types"),
						dropzone.PresetSelect("accept", spec),
					),
					a.newField(spec, uploadURL).Render(),
				),
			),
		),
	)
}
