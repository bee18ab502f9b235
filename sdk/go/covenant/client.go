// Package covenant is a typed Go client for the covenant contract
// coordination service's HTTP surface, mirroring the method set of the
// project's own Rust client SDK.
package covenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Signer     Signer
}

// Signer produces the caller's authentication envelope for a given
// canonical message; a caller with its own keypair implements this
// directly over pkg/signature.Sign.
type Signer interface {
	PubKey() string
	Sign(message string) (string, error)
}

func New(baseURL string, signer Signer) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Signer:     signer,
	}
}

type StepSignature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

type ContractStep struct {
	ID          string                    `json:"stepId"`
	Description string                    `json:"description"`
	MagicSpell  map[string]any            `json:"magicSpell,omitempty"`
	Order       int                       `json:"order"`
	Signatures  map[string]*StepSignature `json:"signatures"`
	Completed   bool                      `json:"completed"`
	CreatedAt   time.Time                 `json:"createdAt"`
	CompletedAt *time.Time                `json:"completedAt,omitempty"`
}

type Contract struct {
	UUID         string          `json:"uuid"`
	PubKey       string          `json:"pubKey,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Participants []string        `json:"participants"`
	Steps        []*ContractStep `json:"steps"`
	ProductUUID  string          `json:"productUuid,omitempty"`
	BDOLocation  string          `json:"bdoLocation,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Status       string          `json:"status"`
}

type ContractSummary struct {
	UUID               string    `json:"uuid"`
	PubKey             string    `json:"pubKey,omitempty"`
	Title              string    `json:"title"`
	Participants       []string  `json:"participants"`
	UpdatedAt          time.Time `json:"updatedAt"`
	StepCount          int       `json:"stepCount"`
	CompletedStepCount int       `json:"completedStepCount"`
	RemoteID           string    `json:"remoteId,omitempty"`
}

type SignStepResponse struct {
	ContractUUID   string `json:"contractUuid"`
	StepID         string `json:"stepId"`
	StepCompleted  bool   `json:"stepCompleted"`
	MagicTriggered bool   `json:"magicTriggered"`
}

type ContractProgress struct {
	TotalSteps     int     `json:"totalSteps"`
	CompletedSteps int     `json:"completedSteps"`
	PercentDone    float64 `json:"percentDone"`
}

type CreateContractInput struct {
	Title        string
	Description  string
	Participants []string
	Steps        []StepInput
	ProductUUID  string
	BDOLocation  string
}

type StepInput struct {
	Description string
	MagicSpell  map[string]any
}

// HealthCheck hits /health, which reports its own {service, version,
// status, timestamp} shape rather than the {success, data} envelope
// every other endpoint uses, so it bypasses do and reads the body
// directly.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("covenant: health check returned http %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("covenant: decoding health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("covenant: health status %q", body.Status)
	}
	return nil
}

func (c *Client) CreateContract(ctx context.Context, in CreateContractInput) (*Contract, error) {
	steps := make([]map[string]any, 0, len(in.Steps))
	for _, s := range in.Steps {
		step := map[string]any{"description": s.Description}
		if s.MagicSpell != nil {
			step["magicSpell"] = s.MagicSpell
		}
		steps = append(steps, step)
	}
	body := map[string]any{
		"title":        in.Title,
		"description":  in.Description,
		"participants": in.Participants,
		"steps":        steps,
		"productUuid":  in.ProductUUID,
		"bdoLocation":  in.BDOLocation,
	}
	if err := c.attachAuth(body, ""); err != nil {
		return nil, err
	}

	var out Contract
	req, err := c.jsonRequest(ctx, http.MethodPost, "/contract/", body)
	if err != nil {
		return nil, err
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetContract(ctx context.Context, uuid string) (*Contract, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/contract/"+url.PathEscape(uuid), nil)
	if err != nil {
		return nil, err
	}
	var out Contract
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateContract(ctx context.Context, uuid string, fields map[string]any) (*Contract, error) {
	if err := c.attachAuth(fields, uuid); err != nil {
		return nil, err
	}
	req, err := c.jsonRequest(ctx, http.MethodPut, "/contract/"+url.PathEscape(uuid), fields)
	if err != nil {
		return nil, err
	}
	var out Contract
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignStep(ctx context.Context, contractUUID, stepID, stepSignature string, timestamp int64, message string) (*SignStepResponse, error) {
	body := map[string]any{
		"stepId":        stepID,
		"stepSignature": stepSignature,
		"message":       message,
	}
	if err := c.attachAuthAt(body, contractUUID, timestamp); err != nil {
		return nil, err
	}

	req, err := c.jsonRequest(ctx, http.MethodPut, "/contract/"+url.PathEscape(contractUUID)+"/sign", body)
	if err != nil {
		return nil, err
	}
	var out SignStepResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteContract(ctx context.Context, uuid string) error {
	body := map[string]any{}
	if err := c.attachAuth(body, uuid); err != nil {
		return err
	}
	req, err := c.jsonRequest(ctx, http.MethodDelete, "/contract/"+url.PathEscape(uuid), body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) ListContracts(ctx context.Context, participant string) ([]ContractSummary, error) {
	q := url.Values{}
	if participant != "" {
		q.Set("participant", participant)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/contracts?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Contracts []ContractSummary `json:"contracts"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Contracts, nil
}

// GetMyContracts is a thin convenience alias over ListContracts using
// the client's own signing identity as the participant filter.
func (c *Client) GetMyContracts(ctx context.Context) ([]ContractSummary, error) {
	return c.ListContracts(ctx, c.Signer.PubKey())
}

func (c *Client) attachAuth(body map[string]any, contractUUID string) error {
	return c.attachAuthAt(body, contractUUID, time.Now().Unix())
}

// attachAuthAt signs the endpoint-auth message over the given timestamp;
// SignStep uses it so the auth signature and the step signature share
// the single timestamp field the service reads.
func (c *Client) attachAuthAt(body map[string]any, contractUUID string, timestamp int64) error {
	msg := fmt.Sprintf("%d%s", timestamp, c.Signer.PubKey())
	if contractUUID != "" {
		msg += contractUUID
	}
	sig, err := c.Signer.Sign(msg)
	if err != nil {
		return err
	}
	body["userUUID"] = c.Signer.PubKey()
	body["pubKey"] = c.Signer.PubKey()
	body["timestamp"] = timestamp
	body["signature"] = sig
	return nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// envelope mirrors the service's {success, data|error} response shape
// (§6); every ordinary endpoint uses it, so the client unwraps it once
// here instead of every caller re-parsing "data" itself.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   map[string]any  `json:"error"`
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("covenant: decoding response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return fmt.Errorf("covenant: http %d: %v", resp.StatusCode, env.Error)
	}
	if dst == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, dst)
}
