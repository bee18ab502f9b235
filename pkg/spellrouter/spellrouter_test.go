package spellrouter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"covenant/pkg/bdoclient"
	"covenant/pkg/contractstore"
	"covenant/pkg/covenant"
	"covenant/pkg/keyregistry"
	"covenant/pkg/signature"
	"covenant/pkg/store"
	"covenant/pkg/userstore"
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	layout := store.MustDataDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	local := contractstore.New(layout, nil)
	keys := keyregistry.New(layout)
	remote := bdoclient.New(srv.URL)
	rs := covenant.NewReplicatedStore(local, remote, keys, nil)
	return New(rs, userstore.New(layout))
}

func TestDispatchContractCreateAndSign(t *testing.T) {
	r := newRouter(t)

	kpA, err := signature.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	kpB, err := signature.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	created, err := r.Dispatch(Request{
		Name: SpellContractCreate,
		Components: map[string]any{
			"title":        "spell contract",
			"creatorUuid":  kpA.PublicKeyHex,
			"participants": []any{kpA.PublicKeyHex, kpB.PublicKeyHex},
			"steps": []any{
				map[string]any{"description": "step one"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Dispatch contractCreate: %v", err)
	}
	c := created.(*covenant.Contract)

	var timestamp int64 = 1700000000
	stepID := c.Steps[0].ID
	message := covenant.CanonicalStepMessage(timestamp, kpA.PublicKeyHex, c.UUID, stepID)
	sig, err := signature.Sign(kpA, message)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err = r.Dispatch(Request{
		Name:      SpellContractSign,
		Timestamp: timestamp,
		Components: map[string]any{
			"contractUuid":    c.UUID,
			"participantUuid": kpA.PublicKeyHex,
			"stepId":          stepID,
			"signature":       sig,
		},
	})
	if err != nil {
		t.Fatalf("Dispatch contractSign: %v", err)
	}
}

func TestDispatchContractSignRejectsInvalidSignature(t *testing.T) {
	r := newRouter(t)

	kpA, _ := signature.GenerateKeyPair()
	kpB, _ := signature.GenerateKeyPair()

	created, err := r.Dispatch(Request{
		Name: SpellContractCreate,
		Components: map[string]any{
			"title":        "spell contract",
			"creatorUuid":  kpA.PublicKeyHex,
			"participants": []any{kpA.PublicKeyHex, kpB.PublicKeyHex},
			"steps": []any{
				map[string]any{"description": "step one"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Dispatch contractCreate: %v", err)
	}
	c := created.(*covenant.Contract)

	_, err = r.Dispatch(Request{
		Name: SpellContractSign,
		Components: map[string]any{
			"contractUuid":    c.UUID,
			"participantUuid": kpA.PublicKeyHex,
			"stepId":          c.Steps[0].ID,
			"signature":       "already-verified-upstream",
		},
	})
	if !errors.Is(err, covenant.ErrInvalidStepSignature) {
		t.Fatalf("expected ErrInvalidStepSignature, got %v", err)
	}
}

func TestDispatchUnknownSpell(t *testing.T) {
	r := newRouter(t)
	_, err := r.Dispatch(Request{Name: "flyAway"})
	if !errors.Is(err, ErrUnknownSpell) {
		t.Fatalf("expected ErrUnknownSpell, got %v", err)
	}
}

func TestDispatchPurchaseLessonCreatesFiveStepContract(t *testing.T) {
	r := newRouter(t)
	kpTeacher, _ := signature.GenerateKeyPair()
	kpStudent, _ := signature.GenerateKeyPair()

	out, err := r.Dispatch(Request{
		Name: SpellPurchaseLesson,
		Components: map[string]any{
			"teacherPubKey": kpTeacher.PublicKeyHex,
			"studentPubKey": kpStudent.PublicKeyHex,
		},
	})
	if err != nil {
		t.Fatalf("Dispatch purchaseLesson: %v", err)
	}
	c := out.(*covenant.Contract)
	if len(c.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(c.Steps))
	}
	if c.CreatorUUID != kpStudent.PublicKeyHex {
		t.Fatalf("expected student as creator, got %q", c.CreatorUUID)
	}
	if !containsBoth(c.Participants, kpTeacher.PublicKeyHex, kpStudent.PublicKeyHex) {
		t.Fatalf("expected teacher and student as participants, got %v", c.Participants)
	}
	for _, step := range c.Steps {
		if len(step.Signatures) != 2 {
			t.Fatalf("expected 2 seeded signature entries, got %d", len(step.Signatures))
		}
	}
}

func containsBoth(list []string, a, b string) bool {
	var hasA, hasB bool
	for _, v := range list {
		if v == a {
			hasA = true
		}
		if v == b {
			hasB = true
		}
	}
	return hasA && hasB
}
