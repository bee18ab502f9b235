package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

var (
	ErrInvalidEncoding  = errors.New("invalid encoding")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrKeyGeneration    = errors.New("key generation failed")
)

// GenerateKeyPair mints a fresh secp256k1 keypair.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, ErrKeyGeneration
	}
	return KeyPair{
		PublicKeyHex:  hex.EncodeToString(priv.PubKey().SerializeCompressed()),
		PrivateKeyHex: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// Sign produces a DER-encoded, hex-encoded ECDSA signature over message
// using the private key in kp. message is the already-assembled canonical
// string for the operation being authorized.
func Sign(kp KeyPair, message string) (string, error) {
	privBytes, err := hex.DecodeString(strings.TrimSpace(kp.PrivateKeyHex))
	if err != nil || len(privBytes) != 32 {
		return "", ErrInvalidEncoding
	}
	priv := secp256k1.PrivKeyFromBytes(privBytes)
	hash := sha256.Sum256([]byte(message))
	sig := ecdsa.Sign(priv, hash[:])
	return hex.EncodeToString(sig.Serialize()), nil
}

// Verify reports whether sigHex is a valid ECDSA signature over message by
// the holder of pubKeyHex. Verify never panics or returns an error: any
// malformed input (bad hex, wrong key length, unparsable signature) is
// simply not a valid signature, so it returns false.
func Verify(pubKeyHex, message, sigHex string) bool {
	pubBytes, err := hex.DecodeString(strings.TrimSpace(pubKeyHex))
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}
	sigBytes, err := hex.DecodeString(strings.TrimSpace(sigHex))
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}
	hash := sha256.Sum256([]byte(message))
	return sig.Verify(hash[:], pub)
}

// VerifyStrict is Verify wrapped in the package's sentinel-error idiom,
// for callers that need to distinguish "no signature supplied"
// (ErrInvalidEncoding) from "signature didn't verify"
// (ErrInvalidSignature). The authentication gate and the HTTP and spell
// sign-step paths call the boolean Verify instead.
func VerifyStrict(pubKeyHex, message, sigHex string) error {
	if strings.TrimSpace(sigHex) == "" || strings.TrimSpace(pubKeyHex) == "" {
		return ErrInvalidEncoding
	}
	if !Verify(pubKeyHex, message, sigHex) {
		return ErrInvalidSignature
	}
	return nil
}
