package covenant

import (
	"errors"
	"testing"
)

func sampleInput() CreateInput {
	return CreateInput{
		Title:        "Sale of goods",
		CreatorUUID:  "pk-creator",
		Participants: []string{"pk-creator", "pk-buyer"},
		Steps: []StepInput{
			{Description: "buyer pays deposit"},
			{Description: "seller ships goods"},
		},
	}
}

func TestValidateRejectsMissingTitle(t *testing.T) {
	in := sampleInput()
	in.Title = "  "
	if err := Validate(in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateRejectsTooFewParticipants(t *testing.T) {
	in := sampleInput()
	in.Participants = []string{"only-one"}
	if err := Validate(in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateRejectsDuplicateParticipants(t *testing.T) {
	in := sampleInput()
	in.Participants = []string{"pk-a", "pk-a"}
	if err := Validate(in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate participants, got %v", err)
	}
}

func TestValidateRejectsNoSteps(t *testing.T) {
	in := sampleInput()
	in.Steps = nil
	if err := Validate(in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateRejectsEmptyStepDescription(t *testing.T) {
	in := sampleInput()
	in.Steps = []StepInput{{Description: ""}}
	if err := Validate(in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewContractAssignsStepIDsAndOrder(t *testing.T) {
	c := NewContract(sampleInput())
	if len(c.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(c.Steps))
	}
	if c.Steps[0].ID != "step-1" || c.Steps[1].ID != "step-2" {
		t.Fatalf("unexpected step ids: %s %s", c.Steps[0].ID, c.Steps[1].ID)
	}
	if c.Steps[0].Order != 0 || c.Steps[1].Order != 1 {
		t.Fatalf("unexpected step order")
	}
	if c.Status != StatusActive {
		t.Fatalf("expected new contract to be active, got %s", c.Status)
	}
}

func TestNewContractSeedsEveryParticipantWithANullSignature(t *testing.T) {
	c := NewContract(sampleInput())
	for _, step := range c.Steps {
		if len(step.Signatures) != len(c.Participants) {
			t.Fatalf("expected one signature-map entry per participant, got %d for %d participants", len(step.Signatures), len(c.Participants))
		}
		for _, p := range c.Participants {
			sig, ok := step.Signatures[p]
			if !ok {
				t.Fatalf("expected participant %q to have a signature-map entry", p)
			}
			if sig != nil {
				t.Fatalf("expected participant %q to start unsigned (nil), got %v", p, sig)
			}
		}
	}
}

func TestSignStepCompletesOnceAllParticipantsSign(t *testing.T) {
	c := NewContract(sampleInput())
	stepID := c.Steps[0].ID
	verifyOK := func(pubKey, message, sig string) bool { return true }

	res, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-creator", StepID: stepID, Signature: "sig1", Timestamp: 1}, verifyOK)
	if err != nil {
		t.Fatalf("SignStep (1/2): %v", err)
	}
	if res.StepCompleted {
		t.Fatalf("expected step incomplete after only one of two signatures")
	}

	res, err = SignStep(c, SignStepInput{ParticipantUUID: "pk-buyer", StepID: stepID, Signature: "sig2", Timestamp: 2}, verifyOK)
	if err != nil {
		t.Fatalf("SignStep (2/2): %v", err)
	}
	if !res.StepCompleted {
		t.Fatalf("expected step complete after both signatures")
	}
}

func TestSignStepRejectsNonParticipant(t *testing.T) {
	c := NewContract(sampleInput())
	_, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-stranger", StepID: c.Steps[0].ID, Signature: "s"}, func(string, string, string) bool { return true })
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSignStepRejectsInvalidSignature(t *testing.T) {
	c := NewContract(sampleInput())
	_, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-creator", StepID: c.Steps[0].ID, Signature: "bad"}, func(string, string, string) bool { return false })
	if !errors.Is(err, ErrInvalidStepSignature) {
		t.Fatalf("expected ErrInvalidStepSignature, got %v", err)
	}
}

func TestSignStepRejectsAlreadyComplete(t *testing.T) {
	c := NewContract(sampleInput())
	verifyOK := func(string, string, string) bool { return true }
	stepID := c.Steps[0].ID
	if _, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-creator", StepID: stepID, Signature: "s1"}, verifyOK); err != nil {
		t.Fatalf("first sign: %v", err)
	}
	if _, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-buyer", StepID: stepID, Signature: "s2"}, verifyOK); err != nil {
		t.Fatalf("second sign: %v", err)
	}
	if _, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-creator", StepID: stepID, Signature: "s3"}, verifyOK); !errors.Is(err, ErrStepAlreadyComplete) {
		t.Fatalf("expected ErrStepAlreadyComplete, got %v", err)
	}
}

func TestSignStepEmitsMagicTriggeredOnlyWithSpell(t *testing.T) {
	in := sampleInput()
	in.Steps[0].MagicSpell = map[string]any{"name": "purchaseLesson"}
	c := NewContract(in)
	verifyOK := func(string, string, string) bool { return true }
	stepID := c.Steps[0].ID

	if _, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-creator", StepID: stepID, Signature: "s1"}, verifyOK); err != nil {
		t.Fatalf("first sign: %v", err)
	}
	res, err := SignStep(c, SignStepInput{ParticipantUUID: "pk-buyer", StepID: stepID, Signature: "s2"}, verifyOK)
	if err != nil {
		t.Fatalf("second sign: %v", err)
	}
	if !res.MagicTriggered {
		t.Fatalf("expected magic triggered on completion of a step with a spell")
	}

	other := NewContract(sampleInput())
	res2, _ := SignStep(other, SignStepInput{ParticipantUUID: "pk-creator", StepID: other.Steps[0].ID, Signature: "s1"}, verifyOK)
	if res2.MagicTriggered {
		t.Fatalf("expected no magic trigger without a step spell")
	}
}

func TestCanDeleteRequiresCreator(t *testing.T) {
	c := NewContract(sampleInput())
	if err := CanDelete(c, "pk-buyer"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-creator delete, got %v", err)
	}
	if err := CanDelete(c, "pk-creator"); err != nil {
		t.Fatalf("expected creator to be allowed to delete: %v", err)
	}
}

func TestApplyUpdateAllowsParticipantNotJustCreator(t *testing.T) {
	c := NewContract(sampleInput())
	err := ApplyUpdate(c, "pk-buyer", UpdateInput{Description: "revised terms"})
	if err != nil {
		t.Fatalf("expected participant update to be allowed: %v", err)
	}
	if c.Description != "revised terms" {
		t.Fatalf("expected description to be overlaid")
	}
	if c.Title != "Sale of goods" {
		t.Fatalf("expected title to be unchanged by a zero-value overlay")
	}
}

func TestApplyUpdateRejectsBlankTitle(t *testing.T) {
	c := NewContract(sampleInput())
	err := ApplyUpdate(c, "pk-creator", UpdateInput{Title: "   "})
	if err == nil {
		t.Fatalf("expected update to leave title blank to be rejected")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestApplyUpdateRejectsWholesaleStepReplacementWithEmptyDescription(t *testing.T) {
	c := NewContract(sampleInput())
	badSteps := []*Step{
		{ID: "step-1", Description: "", Order: 0, Signatures: newSignatureMap(c.Participants)},
	}
	err := ApplyUpdate(c, "pk-creator", UpdateInput{Steps: badSteps})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for an empty-description step, got %v", err)
	}
}

func TestApplyUpdateRejectsStranger(t *testing.T) {
	c := NewContract(sampleInput())
	if err := ApplyUpdate(c, "pk-stranger", UpdateInput{Title: "new title"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCanonicalStepMessageHasNoSeparators(t *testing.T) {
	got := CanonicalStepMessage(1700000000, "user-1", "contract-1", "step-1")
	want := "1700000000user-1contract-1step-1"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
