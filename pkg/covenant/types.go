// Package covenant implements the contract coordination core: the
// domain model, the contract state machine, and the replicated store
// that composes the local and remote persistence layers.
package covenant

import "time"

// Status is a contract's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// StepSignature is one participant's signature over a step.
type StepSignature struct {
	Signature string    `json:"signature"`
	Timestamp int64     `json:"timestamp"`
	Message   string    `json:"message"`
	SignedAt  time.Time `json:"signedAt"`
}

// Step is one ordered unit of work in a contract. Completed is derived —
// true exactly when every participant has a non-nil StepSignature — but is
// stored redundantly so readers don't need to recompute it.
type Step struct {
	ID          string                    `json:"stepId"`
	Description string                    `json:"description"`
	Order       int                       `json:"order"`
	MagicSpell  map[string]any            `json:"magicSpell,omitempty"`
	Signatures  map[string]*StepSignature `json:"signatures"`
	Completed   bool                      `json:"completed"`
	CreatedAt   time.Time                 `json:"createdAt"`
	CompletedAt *time.Time                `json:"completedAt,omitempty"`
}

// Contract is a structured agreement among two or more participants,
// identified by their secp256k1 public keys.
type Contract struct {
	UUID         string    `json:"uuid"`
	PubKey       string    `json:"pubKey,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CreatorUUID  string    `json:"creatorUuid"`
	Participants []string  `json:"participants"`
	Steps        []*Step   `json:"steps"`
	ProductUUID  string    `json:"productUuid,omitempty"`
	BDOLocation  string    `json:"bdoLocation,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is the reduced view returned by list operations. It carries the
// three fields spec.md's list-view calls out beyond the bare identity of a
// contract: how many steps are done, the remote replica's location (if
// any), and the contract's own public key, so a caller never needs a
// follow-up GetContract just to learn whether a contract has replicated.
type Summary struct {
	UUID               string    `json:"uuid"`
	PubKey             string    `json:"pubKey,omitempty"`
	Title              string    `json:"title"`
	Status             Status    `json:"status"`
	Participants       []string  `json:"participants"`
	StepCount          int       `json:"stepCount"`
	CompletedStepCount int       `json:"completedStepCount"`
	RemoteID           string    `json:"remoteId,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (c *Contract) Summary() Summary {
	completed := 0
	for _, s := range c.Steps {
		if s.Completed {
			completed++
		}
	}
	return Summary{
		UUID:               c.UUID,
		PubKey:             c.PubKey,
		Title:              c.Title,
		Status:             c.Status,
		Participants:       append([]string(nil), c.Participants...),
		StepCount:          len(c.Steps),
		CompletedStepCount: completed,
		RemoteID:           c.BDOLocation,
		UpdatedAt:          c.UpdatedAt,
	}
}

// Progress is a pure, read-only projection of overall completion. It
// touches no store: it is computed entirely from the contract already in
// hand, the way a client renders its own progress bar.
type Progress struct {
	TotalSteps     int     `json:"totalSteps"`
	CompletedSteps int     `json:"completedSteps"`
	PercentDone    float64 `json:"percentDone"`
}

func (c *Contract) Progress() Progress {
	p := Progress{TotalSteps: len(c.Steps)}
	for _, s := range c.Steps {
		if s.Completed {
			p.CompletedSteps++
		}
	}
	if p.TotalSteps > 0 {
		p.PercentDone = float64(p.CompletedSteps) / float64(p.TotalSteps) * 100
	}
	return p
}

// SignatureStatus reports, for one participant, which steps they have
// and have not yet signed.
type SignatureStatus struct {
	PubKey        string   `json:"pubKey"`
	SignedSteps   []string `json:"signedSteps"`
	PendingSteps  []string `json:"pendingSteps"`
	IsParticipant bool     `json:"isParticipant"`
}

func (c *Contract) SignatureStatusFor(pubKey string) SignatureStatus {
	status := SignatureStatus{PubKey: pubKey}
	for _, p := range c.Participants {
		if p == pubKey {
			status.IsParticipant = true
			break
		}
	}
	for _, s := range c.Steps {
		if sig := s.Signatures[pubKey]; sig != nil {
			status.SignedSteps = append(status.SignedSteps, s.ID)
		} else {
			status.PendingSteps = append(status.PendingSteps, s.ID)
		}
	}
	return status
}

// CreateInput is the caller-supplied shape for contract creation.
type CreateInput struct {
	Title        string
	Description  string
	CreatorUUID  string
	Participants []string
	Steps        []StepInput
	ProductUUID  string
	BDOLocation  string
}

type StepInput struct {
	Description string
	MagicSpell  map[string]any
}

// UpdateInput carries only the fields the state machine permits an
// Update to overlay. Zero-valued fields are left unchanged (an empty
// Title does not clear the contract's title). There is no
// reconciliation against the existing step list: a non-empty Steps
// slice replaces the contract's steps wholesale, and it is the
// caller's responsibility to preserve completed-step state it wants
// kept.
type UpdateInput struct {
	Title       string
	Description string
	Steps       []*Step
	Status      Status
}

// SignStepInput is the caller-supplied shape for attaching one
// participant's signature to one step.
type SignStepInput struct {
	ParticipantUUID string
	StepID          string
	Signature       string
	Timestamp       int64
	Message         string
}

// SignStepResult reports whether the sign-step call completed the step
// and, if so, whether that completion fired an effect.
type SignStepResult struct {
	Contract        *Contract
	StepCompleted   bool
	MagicTriggered  bool
	TriggeredSpell  map[string]any
}
