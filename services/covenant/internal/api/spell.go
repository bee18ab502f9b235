package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"covenant/pkg/httpx"
	"covenant/pkg/spellrouter"
)

// CastSpell is the effect-resolver entry path: a caster the resolver
// has already authenticated posts a spell name and a component map, and
// this handler routes it straight to the matching core operation
// without running it back through the authentication gate. A spell
// failure is reported as HTTP 900 with the error in the body, matching
// the wire protocol's convention of distinguishing spell failures from
// ordinary HTTP error statuses.
func (h *Handlers) CastSpell(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := readEnvelope(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}

	components, _ := body["components"].(map[string]any)
	req := spellrouter.Request{
		Name:            name,
		Timestamp:       fieldInt64(body, "timestamp", "timestamp"),
		CasterSignature: fieldStr(body, "casterSignature", "caster_signature"),
		Components:      components,
	}

	result, err := h.Spells.Dispatch(req)
	if err != nil {
		httpx.WriteJSON(w, 900, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}
