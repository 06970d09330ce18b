// Package crypto holds the ed25519 keypairs that sign tether transactions,
// signature verification for single transactions and batches, and the
// SHA-256 helpers used for archive digests.
//
//	kp, _ := crypto.GenerateKeypair()
//	_ = crypto.SignTransaction(tx, kp)
//	err := crypto.VerifyTransaction(tx)
package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"
)

const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	SeedSize       = ed25519.SeedSize
)

var (
	ErrInvalidPublicKey   = errors.New("crypto: invalid public key")
	ErrInvalidSignature   = errors.New("crypto: invalid signature")
	ErrInvalidPrivateKey  = errors.New("crypto: invalid private key")
	ErrVerificationFailed = errors.New("crypto: signature verification failed")

	ErrNoSignatures           = errors.New("crypto: transaction has no signatures")
	ErrSignatureCountMismatch = errors.New("crypto: signature count mismatch")
	ErrMissingMessage         = errors.New("crypto: missing transaction message")
	ErrInvalidSignerIndex     = errors.New("crypto: invalid signer index")

	// ErrMissingSigner is returned when signing without the keypair of a
	// required signer.
	ErrMissingSigner = errors.New("crypto: missing keypair for signer")
)

// TransactionVerificationError names the signer whose signature failed.
type TransactionVerificationError struct {
	SignatureIndex int
	SignerPubkey   string
	Err            error
}

func (e *TransactionVerificationError) Error() string {
	return fmt.Sprintf("crypto: signature %d by %s: %v", e.SignatureIndex, e.SignerPubkey, e.Err)
}

func (e *TransactionVerificationError) Unwrap() error {
	return e.Err
}
