// Package authgate implements the authentication gate that every
// mutating HTTP endpoint runs a request through before it reaches the
// contract state machine. The gate only verifies that the caller holds
// the private key for the public key it claims (dual-signature
// protocol, endpoint layer); it performs no authorization — the state
// machine decides who is allowed to do what, since only it has the
// contract in hand.
package authgate

import (
	"errors"

	"covenant/pkg/covenant"
	"covenant/pkg/signature"
)

var ErrAuthFailed = errors.New("authgate: signature verification failed")

// Request is the caller-supplied authentication envelope carried on
// every mutating request.
type Request struct {
	UserUUID     string
	ContractUUID string // empty for operations not scoped to an existing contract
	Timestamp    int64
	Signature    string
	PubKey       string
}

// Authenticate verifies req.Signature over the canonical endpoint-auth
// message. UserUUID and PubKey are expected to be the same value in
// this protocol (participants are identified by their public key), but
// the field is kept distinct from PubKey to match the wire shape the
// original client sends.
func Authenticate(req Request) error {
	message := covenant.CanonicalAuthMessage(req.Timestamp, req.UserUUID, req.ContractUUID)
	if !signature.Verify(req.PubKey, message, req.Signature) {
		return ErrAuthFailed
	}
	return nil
}
