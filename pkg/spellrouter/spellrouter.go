// Package spellrouter implements the effect-resolver adapter: a second
// entry path, alongside the ordinary HTTP surface, for pre-signed
// "spell" messages that a trusted external resolver has already
// authenticated. It maps a small fixed set of spell names to the same
// core contract operations the HTTP handlers call. The resolver's own
// pre-authentication only covers the caster's endpoint identity —
// contractSign still carries an embedded step signature the state
// machine itself must verify, so that path runs through the same
// signature.Verify callback the HTTP handler uses rather than being
// trusted blindly.
package spellrouter

import (
	"errors"
	"fmt"

	"covenant/pkg/covenant"
	"covenant/pkg/signature"
	"covenant/pkg/userstore"
)

const (
	SpellUserCreate     = "userCreate"
	SpellContractCreate = "contractCreate"
	SpellContractUpdate = "contractUpdate"
	SpellContractSign   = "contractSign"
	SpellContractDelete = "contractDelete"
	SpellPurchaseLesson = "purchaseLesson"
)

var ErrUnknownSpell = errors.New("spellrouter: unknown spell")

// Request is the shape a spell arrives in: an opaque component map, a
// timestamp, and the caster's signature over the whole message — the
// signature itself is not our concern, only routing.
type Request struct {
	Name            string
	Timestamp       int64
	CasterSignature string
	Components      map[string]any
}

type Router struct {
	Store *covenant.ReplicatedStore
	Users *userstore.Store
}

func New(store *covenant.ReplicatedStore, users *userstore.Store) *Router {
	return &Router{Store: store, Users: users}
}

// Dispatch routes a spell to the matching core operation and returns
// its result. purchaseLesson is the one composite spell: it creates a
// fresh five-step lesson contract between a teacher and a student
// rather than mutating an existing one.
func (r *Router) Dispatch(req Request) (any, error) {
	switch req.Name {
	case SpellUserCreate:
		pubKey, _ := req.Components["pubKey"].(string)
		return r.Users.Create(pubKey)

	case SpellContractCreate:
		return r.Store.Create(parseCreateInput(req.Components))

	case SpellContractUpdate:
		contractUUID, _ := req.Components["contractUuid"].(string)
		callerUUID, _ := req.Components["callerUuid"].(string)
		return r.Store.Update(contractUUID, callerUUID, parseUpdateInput(req.Components))

	case SpellContractSign:
		contractUUID, _ := req.Components["contractUuid"].(string)
		in := covenant.SignStepInput{
			ParticipantUUID: stringField(req.Components, "participantUuid"),
			StepID:          stringField(req.Components, "stepId"),
			Signature:       stringField(req.Components, "signature"),
			Timestamp:       req.Timestamp,
			Message:         stringField(req.Components, "message"),
		}
		return r.Store.SignStep(contractUUID, in, signature.Verify)

	case SpellContractDelete:
		contractUUID, _ := req.Components["contractUuid"].(string)
		callerUUID, _ := req.Components["callerUuid"].(string)
		return nil, r.Store.Delete(contractUUID, callerUUID)

	case SpellPurchaseLesson:
		return r.Store.Create(parseLessonInput(req.Components))

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpell, req.Name)
	}
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func parseCreateInput(m map[string]any) covenant.CreateInput {
	in := covenant.CreateInput{
		Title:       stringField(m, "title"),
		Description: stringField(m, "description"),
		CreatorUUID: stringField(m, "creatorUuid"),
		ProductUUID: stringField(m, "productUuid"),
		BDOLocation: stringField(m, "bdoLocation"),
	}
	if raw, ok := m["participants"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				in.Participants = append(in.Participants, s)
			}
		}
	}
	if raw, ok := m["steps"].([]any); ok {
		for _, s := range raw {
			if sm, ok := s.(map[string]any); ok {
				step := covenant.StepInput{Description: stringField(sm, "description")}
				if spell, ok := sm["magicSpell"].(map[string]any); ok {
					step.MagicSpell = spell
				}
				in.Steps = append(in.Steps, step)
			}
		}
	}
	return in
}

// lessonSteps names the fixed five-step curriculum a purchaseLesson
// spell instantiates: scheduling, prep, delivery, review, then payout,
// each requiring both the teacher's and the student's signature.
var lessonSteps = []string{
	"schedule the lesson",
	"prepare lesson materials",
	"deliver the lesson",
	"student reviews and confirms completion",
	"release payment to the teacher",
}

// parseLessonInput builds the CreateInput for a purchaseLesson spell: a
// five-step template contract between the teacher and the student, with
// the student as creator/caller.
func parseLessonInput(m map[string]any) covenant.CreateInput {
	teacher := stringField(m, "teacherPubKey")
	student := stringField(m, "studentPubKey")

	in := covenant.CreateInput{
		Title:        "lesson purchase",
		Description:  stringField(m, "description"),
		CreatorUUID:  student,
		Participants: []string{teacher, student},
		ProductUUID:  stringField(m, "productUuid"),
	}
	for _, description := range lessonSteps {
		in.Steps = append(in.Steps, covenant.StepInput{Description: description})
	}
	return in
}

func parseUpdateInput(m map[string]any) covenant.UpdateInput {
	return covenant.UpdateInput{
		Title:       stringField(m, "title"),
		Description: stringField(m, "description"),
		Status:      covenant.Status(stringField(m, "status")),
	}
}
