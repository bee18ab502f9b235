package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"covenant/pkg/httpx"
)

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	body, err := readEnvelope(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if err := authRequest(body, ""); err != nil {
		writeErr(w, err)
		return
	}

	pubKey := fieldStr(body, "pubKey", "public_key")
	u, err := h.Users.Create(pubKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

// GetUser is authenticated off query parameters (timestamp, signature,
// pubKey) rather than a request body, since GET requests carry none —
// the canonical message is timestamp concatenated with the requested
// user's UUID (§6).
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if err := authQuery(r.URL.Query(), uuid); err != nil {
		writeErr(w, err)
		return
	}

	u, err := h.Users.Load(uuid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, u)
}
