package app

import (
	"encoding/json"
	"net/http"

	"github.com/samber/lo"

	"github.com/vango-dev/dropzone/pkg/accept"
)

// presetView is the JSON shape of one preset.
type presetView struct {
	Key    accept.Key     `json:"key"`
	Label  string         `json:"label"`
	Accept accept.Mapping `json:"accept"`
	Attr   string         `json:"attr"`
}

func viewOf(key accept.Key) presetView {
	m, _ := accept.Lookup(key)
	return presetView{
		Key:    key,
		Label:  accept.Label(key),
		Accept: m,
		Attr:   m.Attr(),
	}
}

func handlePresets(w http.ResponseWriter, r *http.Request) {
	views := lo.Map(accept.Keys(), func(k accept.Key, _ int) presetView {
		return viewOf(k)
	})
	writeJSON(w, http.StatusOK, views)
}

// handleResolve reports the preset an accept value resolves to. The value is
// a preset key or a JSON mapping; an absent value resolves like None.
func handleResolve(w http.ResponseWriter, r *http.Request) {
	spec, err := accept.Parse(r.URL.Query().Get("accept"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(accept.ResolvePresetKey(spec)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
