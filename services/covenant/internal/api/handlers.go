// Package api implements the HTTP handlers for the covenant service,
// following the teacher's inline-handler-per-route style (see
// services/covenant/cmd/server/main.go for the router wiring) but
// split into one file per resource since this surface is larger than
// the teacher's smaller services.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"covenant/pkg/authgate"
	"covenant/pkg/covenant"
	"covenant/pkg/httpx"
	"covenant/pkg/keyregistry"
	"covenant/pkg/spellrouter"
	"covenant/pkg/userstore"
)

// Version is the covenant service's build version, reported on /health.
const Version = "0.1.0"

type Handlers struct {
	Store  *covenant.ReplicatedStore
	Users  *userstore.Store
	Spells *spellrouter.Router
	Log    *zap.SugaredLogger
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"service":   "covenant",
		"version":   Version,
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// writeData writes a successful response in the {success, data}
// envelope every ordinary HTTP endpoint shares with the spell-dispatch
// path (see spell.go's CastSpell).
func writeData(w http.ResponseWriter, status int, data any) {
	httpx.WriteJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

// readEnvelope decodes a request body into a plain map, so callers can
// pull individual fields under either their current camelCase name or
// a legacy snake_case alias without this handler needing a bespoke
// struct per accepted spelling.
func readEnvelope(r *http.Request) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func fieldStr(m map[string]any, camel, snake string) string {
	if v, ok := m[camel].(string); ok {
		return v
	}
	if v, ok := m[snake].(string); ok {
		return v
	}
	return ""
}

func fieldInt64(m map[string]any, camel, snake string) int64 {
	if v, ok := m[camel].(float64); ok {
		return int64(v)
	}
	if v, ok := m[snake].(float64); ok {
		return int64(v)
	}
	return 0
}

func fieldBool(m map[string]any, camel, snake string) bool {
	if v, ok := m[camel].(bool); ok {
		return v
	}
	if v, ok := m[snake].(bool); ok {
		return v
	}
	return false
}

// authRequest extracts the dual-signature authentication envelope
// common to every mutating request: {signature, timestamp, userUUID,
// pubKey}, plus (when contractUUID is non-empty) verifies the message
// includes the contract scope.
func authRequest(body map[string]any, contractUUID string) error {
	req := authgate.Request{
		UserUUID:     fieldStr(body, "userUUID", "user_uuid"),
		ContractUUID: contractUUID,
		Timestamp:    fieldInt64(body, "timestamp", "timestamp"),
		Signature:    fieldStr(body, "signature", "signature"),
		PubKey:       fieldStr(body, "pubKey", "pub_key"),
	}
	return authgate.Authenticate(req)
}

// authQuery extracts the same dual-signature authentication envelope
// authRequest reads from a JSON body, but from URL query parameters —
// used by the one mutating-in-spirit GET route, GetUser, which has no
// body to carry {timestamp, signature, pubKey} in.
func authQuery(q url.Values, userUUID string) error {
	timestamp, _ := strconv.ParseInt(q.Get("timestamp"), 10, 64)
	req := authgate.Request{
		UserUUID:  userUUID,
		Timestamp: timestamp,
		Signature: q.Get("signature"),
		PubKey:    q.Get("pubKey"),
	}
	return authgate.Authenticate(req)
}

// statusFor centralizes the error-kind-to-HTTP-status mapping (§7):
// the teacher repeats WriteError per handler with an ad hoc code
// because its error set is open-ended free-form strings; this
// service's error taxonomy is closed and enumerable, so it is mapped
// once here instead.
func statusFor(err error) (status int, code string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, covenant.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, authgate.ErrAuthFailed):
		return http.StatusUnauthorized, "AUTH_FAILED"
	case errors.Is(err, covenant.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, covenant.ErrNotFound), errors.Is(err, covenant.ErrStepNotFound), errors.Is(err, userstore.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, covenant.ErrStepAlreadyComplete):
		return http.StatusBadRequest, "STEP_ALREADY_COMPLETE"
	case errors.Is(err, covenant.ErrInvalidStepSignature):
		return http.StatusUnauthorized, "INVALID_STEP_SIGNATURE"
	case errors.Is(err, keyregistry.ErrKeyNotFound):
		return http.StatusInternalServerError, "KEY_NOT_FOUND"
	default:
		return http.StatusInternalServerError, "STORE_ERROR"
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	httpx.WriteError(w, status, code, err.Error(), nil)
}
