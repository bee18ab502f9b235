package covenant

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/samber/lo"
)

// Validate checks the structural invariants a contract must satisfy
// before it can be created: a non-empty title, at least two non-empty
// participants with no duplicates, and at least one step with a
// non-empty description.
func Validate(in CreateInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return validationErr("title is required")
	}

	seen := mapset.NewSet[string]()
	for _, p := range in.Participants {
		p = strings.TrimSpace(p)
		if p == "" {
			return validationErr("participant public keys must not be empty")
		}
		if !seen.Add(p) {
			return validationErr("participant public keys must be unique")
		}
	}
	if seen.Cardinality() < 2 {
		return validationErr("a contract requires at least two unique participants")
	}

	if len(in.Steps) == 0 {
		return validationErr("a contract requires at least one step")
	}
	for i, s := range in.Steps {
		if strings.TrimSpace(s.Description) == "" {
			return validationErr(fmt.Sprintf("step %d: description is required", i))
		}
	}
	return nil
}

// NewContract builds a fresh Contract from a validated CreateInput. The
// caller is responsible for calling Validate first; NewContract does not
// re-validate.
func NewContract(in CreateInput) *Contract {
	now := time.Now().UTC()

	participants := mapset.NewSet[string]()
	participantList := make([]string, 0, len(in.Participants))
	for _, p := range in.Participants {
		p = strings.TrimSpace(p)
		if participants.Add(p) {
			participantList = append(participantList, p)
		}
	}

	steps := make([]*Step, 0, len(in.Steps))
	for i, s := range in.Steps {
		steps = append(steps, &Step{
			ID:          fmt.Sprintf("step-%d", i+1),
			Description: s.Description,
			Order:       i,
			MagicSpell:  s.MagicSpell,
			Signatures:  newSignatureMap(participantList),
			Completed:   false,
			CreatedAt:   now,
		})
	}

	return &Contract{
		UUID:         uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		CreatorUUID:  in.CreatorUUID,
		Participants: participantList,
		Steps:        steps,
		ProductUUID:  in.ProductUUID,
		BDOLocation:  in.BDOLocation,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanUpdate reports whether callerUUID is authorized to update c:
// either the creator or one of the participants (participants are
// identified by public key, so a caller is checked against both the
// creator UUID and the participant public key list).
func CanUpdate(c *Contract, callerUUID string) error {
	if callerUUID == c.CreatorUUID || lo.Contains(c.Participants, callerUUID) {
		return nil
	}
	return ErrForbidden
}

// CanDelete reports whether callerUUID is authorized to delete c:
// strictly the creator, unlike Update.
func CanDelete(c *Contract, callerUUID string) error {
	if callerUUID != c.CreatorUUID {
		return ErrForbidden
	}
	return nil
}

// ApplyUpdate overlays the permitted fields of in onto c in place.
func ApplyUpdate(c *Contract, callerUUID string, in UpdateInput) error {
	if err := CanUpdate(c, callerUUID); err != nil {
		return err
	}

	type overlay struct {
		Title       string
		Description string
		Status      Status
	}
	if err := copier.CopyWithOption(c, &overlay{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}, copier.Option{IgnoreEmpty: true}); err != nil {
		return err
	}
	if len(in.Steps) > 0 {
		c.Steps = in.Steps
	}
	c.UpdatedAt = time.Now().UTC()
	return validateContract(c)
}

// validateContract re-checks the structural invariants Validate enforces
// at creation time, against a contract's current field values. ApplyUpdate
// calls this after overlaying the caller's changes so an update can never
// leave a contract in a state Validate would have rejected at create time —
// a blanked title or a wholesale step replacement containing an
// empty-description step is rejected here exactly as it would be on create.
func validateContract(c *Contract) error {
	if strings.TrimSpace(c.Title) == "" {
		return validationErr("title is required")
	}

	seen := mapset.NewSet[string]()
	for _, p := range c.Participants {
		p = strings.TrimSpace(p)
		if p == "" {
			return validationErr("participant public keys must not be empty")
		}
		if !seen.Add(p) {
			return validationErr("participant public keys must be unique")
		}
	}
	if seen.Cardinality() < 2 {
		return validationErr("a contract requires at least two unique participants")
	}

	if len(c.Steps) == 0 {
		return validationErr("a contract requires at least one step")
	}
	for i, s := range c.Steps {
		if strings.TrimSpace(s.Description) == "" {
			return validationErr(fmt.Sprintf("step %d: description is required", i))
		}
	}
	return nil
}

// SignStep verifies and attaches one participant's signature to one
// step, then recomputes that step's completion. verify performs the
// underlying cryptographic check over the step's canonical message
// (signature.Verify in the HTTP and spell paths); it is a parameter so
// callers such as tests can supply their own verifier.
func SignStep(c *Contract, in SignStepInput, verify func(pubKey, message, sig string) bool) (*SignStepResult, error) {
	if !lo.Contains(c.Participants, in.ParticipantUUID) {
		return nil, ErrForbidden
	}

	step, ok := lo.Find(c.Steps, func(s *Step) bool { return s.ID == in.StepID })
	if !ok {
		return nil, ErrStepNotFound
	}
	if step.Completed {
		return nil, ErrStepAlreadyComplete
	}

	message := CanonicalStepMessage(in.Timestamp, in.ParticipantUUID, c.UUID, in.StepID)
	if !verify(in.ParticipantUUID, message, in.Signature) {
		return nil, ErrInvalidStepSignature
	}

	now := time.Now().UTC()
	step.Signatures[in.ParticipantUUID] = &StepSignature{
		Signature: in.Signature,
		Timestamp: in.Timestamp,
		Message:   in.Message,
		SignedAt:  now,
	}

	result := &SignStepResult{Contract: c}
	if stepFullySigned(step, c.Participants) {
		step.Completed = true
		step.CompletedAt = &now
		result.StepCompleted = true
		if len(step.MagicSpell) > 0 {
			result.MagicTriggered = true
			result.TriggeredSpell = step.MagicSpell
		}
	}
	c.UpdatedAt = now

	if allStepsComplete(c.Steps) {
		c.Status = StatusCompleted
	}
	return result, nil
}

// newSignatureMap seeds a step's signature map with one null entry per
// participant, per the invariant that keys(signatures) always equals
// the contract's participant set regardless of who has signed yet.
func newSignatureMap(participants []string) map[string]*StepSignature {
	m := make(map[string]*StepSignature, len(participants))
	for _, p := range participants {
		m[p] = nil
	}
	return m
}

// stepFullySigned reports whether every participant has signed step,
// using set equality between the participant list and the subset of
// signature-map keys with a non-null value, rather than a counted loop,
// so the check also catches a duplicate/stale participant list.
func stepFullySigned(step *Step, participants []string) bool {
	want := mapset.NewSet(participants...)
	got := mapset.NewSet[string]()
	for pubKey, sig := range step.Signatures {
		if sig != nil {
			got.Add(pubKey)
		}
	}
	return want.Equal(got)
}

func allStepsComplete(steps []*Step) bool {
	for _, s := range steps {
		if !s.Completed {
			return false
		}
	}
	return len(steps) > 0
}

// CanonicalStepMessage assembles the fixed-order, unseparated message a
// step signature is computed over: timestamp, caller UUID, contract
// UUID, step ID, concatenated with no delimiter.
func CanonicalStepMessage(timestamp int64, callerUUID, contractUUID, stepID string) string {
	return strconv.FormatInt(timestamp, 10) + callerUUID + contractUUID + stepID
}

// CanonicalAuthMessage assembles the canonical message the
// authentication gate verifies: timestamp and user UUID, plus the
// contract UUID when the operation is contract-scoped.
func CanonicalAuthMessage(timestamp int64, userUUID, contractUUID string) string {
	msg := strconv.FormatInt(timestamp, 10) + userUUID
	if contractUUID != "" {
		msg += contractUUID
	}
	return msg
}
