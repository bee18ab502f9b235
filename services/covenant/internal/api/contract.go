package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"covenant/pkg/covenant"
	"covenant/pkg/httpx"
	"covenant/pkg/signature"
)

func (h *Handlers) CreateContract(w http.ResponseWriter, r *http.Request) {
	body, err := readEnvelope(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if err := authRequest(body, ""); err != nil {
		writeErr(w, err)
		return
	}

	in := covenant.CreateInput{
		Title:       fieldStr(body, "title", "title"),
		Description: fieldStr(body, "description", "description"),
		CreatorUUID: fieldStr(body, "userUUID", "user_uuid"),
		ProductUUID: fieldStr(body, "productUuid", "product_uuid"),
		BDOLocation: fieldStr(body, "bdoLocation", "bdo_location"),
	}
	if raw, ok := body["participants"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				in.Participants = append(in.Participants, s)
			}
		}
	}
	if raw, ok := body["steps"].([]any); ok {
		for _, s := range raw {
			if sm, ok := s.(map[string]any); ok {
				step := covenant.StepInput{Description: fieldStr(sm, "description", "description")}
				if spell, ok := sm["magicSpell"].(map[string]any); ok {
					step.MagicSpell = spell
				} else if spell, ok := sm["magic_spell"].(map[string]any); ok {
					step.MagicSpell = spell
				}
				in.Steps = append(in.Steps, step)
			}
		}
	}

	c, err := h.Store.Create(in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *Handlers) GetContract(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	c, err := h.Store.Get(uuid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *Handlers) ListContracts(w http.ResponseWriter, r *http.Request) {
	participant := r.URL.Query().Get("participant")
	list, err := h.Store.List(participant)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"contracts": list})
}

func (h *Handlers) UpdateContract(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	body, err := readEnvelope(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if err := authRequest(body, uuid); err != nil {
		writeErr(w, err)
		return
	}

	in := covenant.UpdateInput{
		Title:       fieldStr(body, "title", "title"),
		Description: fieldStr(body, "description", "description"),
		Status:      covenant.Status(fieldStr(body, "status", "status")),
	}
	if raw, ok := body["steps"].([]any); ok && len(raw) > 0 {
		steps, err := decodeSteps(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
			return
		}
		in.Steps = steps
	}

	callerUUID := fieldStr(body, "userUUID", "user_uuid")
	c, err := h.Store.Update(uuid, callerUUID, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// decodeSteps decodes a wholesale step-replacement list off the wire.
// The caller is responsible for supplying a well-formed list — a
// signature map and completion flag consistent with what was already
// recorded — so every field steps can carry is decoded here rather
// than reset to its zero value, matching what the caller actually
// echoed back.
func decodeSteps(raw []any) ([]*covenant.Step, error) {
	steps := make([]*covenant.Step, 0, len(raw))
	for _, item := range raw {
		sm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		step := &covenant.Step{
			ID:          fieldStr(sm, "stepId", "step_id"),
			Description: fieldStr(sm, "description", "description"),
			Order:       int(fieldInt64(sm, "order", "order")),
			Completed:   fieldBool(sm, "completed", "completed"),
			Signatures:  decodeSignatures(sm["signatures"]),
			CreatedAt:   time.Now().UTC(),
		}
		if spell, ok := sm["magicSpell"].(map[string]any); ok {
			step.MagicSpell = spell
		} else if spell, ok := sm["magic_spell"].(map[string]any); ok {
			step.MagicSpell = spell
		}
		if t, ok := parseTime(fieldStr(sm, "createdAt", "created_at")); ok {
			step.CreatedAt = t
		}
		if t, ok := parseTime(fieldStr(sm, "completedAt", "completed_at")); ok {
			step.CompletedAt = &t
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeSignatures(v any) map[string]*covenant.StepSignature {
	sigs := map[string]*covenant.StepSignature{}
	m, ok := v.(map[string]any)
	if !ok {
		return sigs
	}
	for pubKey, val := range m {
		if val == nil {
			sigs[pubKey] = nil
			continue
		}
		sm, ok := val.(map[string]any)
		if !ok {
			continue
		}
		sig := &covenant.StepSignature{
			Signature: fieldStr(sm, "signature", "signature"),
			Timestamp: fieldInt64(sm, "timestamp", "timestamp"),
			Message:   fieldStr(sm, "message", "message"),
		}
		if t, ok := parseTime(fieldStr(sm, "signedAt", "signed_at")); ok {
			sig.SignedAt = t
		}
		sigs[pubKey] = sig
	}
	return sigs
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (h *Handlers) SignStep(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	body, err := readEnvelope(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if err := authRequest(body, uuid); err != nil {
		writeErr(w, err)
		return
	}

	in := covenant.SignStepInput{
		ParticipantUUID: fieldStr(body, "userUUID", "participant_uuid"),
		StepID:          fieldStr(body, "stepId", "step_id"),
		Signature:       fieldStr(body, "stepSignature", "signature"),
		Timestamp:       fieldInt64(body, "timestamp", "timestamp"),
		Message:         fieldStr(body, "message", "message"),
	}

	res, err := h.Store.SignStep(uuid, in, signature.Verify)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"contractUuid":   uuid,
		"stepId":         in.StepID,
		"stepCompleted":  res.StepCompleted,
		"magicTriggered": res.MagicTriggered,
	})
}

func (h *Handlers) DeleteContract(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	body, err := readEnvelope(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if err := authRequest(body, uuid); err != nil {
		writeErr(w, err)
		return
	}

	callerUUID := fieldStr(body, "userUUID", "user_uuid")
	if err := h.Store.Delete(uuid, callerUUID); err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}
