package authgate

import (
	"testing"

	"covenant/pkg/covenant"
	"covenant/pkg/signature"
)

func TestAuthenticateHappyPathWithAndWithoutContract(t *testing.T) {
	kp, _ := signature.GenerateKeyPair()

	msg := covenant.CanonicalAuthMessage(1700000000, kp.PublicKeyHex, "")
	sig, _ := signature.Sign(kp, msg)
	if err := Authenticate(Request{UserUUID: kp.PublicKeyHex, Timestamp: 1700000000, Signature: sig, PubKey: kp.PublicKeyHex}); err != nil {
		t.Fatalf("expected no-contract auth to succeed: %v", err)
	}

	msg2 := covenant.CanonicalAuthMessage(1700000000, kp.PublicKeyHex, "contract-1")
	sig2, _ := signature.Sign(kp, msg2)
	if err := Authenticate(Request{UserUUID: kp.PublicKeyHex, ContractUUID: "contract-1", Timestamp: 1700000000, Signature: sig2, PubKey: kp.PublicKeyHex}); err != nil {
		t.Fatalf("expected contract-scoped auth to succeed: %v", err)
	}
}

func TestAuthenticateRejectsWrongContract(t *testing.T) {
	kp, _ := signature.GenerateKeyPair()
	msg := covenant.CanonicalAuthMessage(1700000000, kp.PublicKeyHex, "contract-1")
	sig, _ := signature.Sign(kp, msg)
	err := Authenticate(Request{UserUUID: kp.PublicKeyHex, ContractUUID: "contract-2", Timestamp: 1700000000, Signature: sig, PubKey: kp.PublicKeyHex})
	if err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestAuthenticateRejectsGarbageSignature(t *testing.T) {
	kp, _ := signature.GenerateKeyPair()
	err := Authenticate(Request{UserUUID: kp.PublicKeyHex, Timestamp: 1, Signature: "not-a-signature", PubKey: kp.PublicKeyHex})
	if err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed for garbage signature, got %v", err)
	}
}
