package crypto

import (
	"crypto/ed25519"
	"fmt"
	"sync"

	"filippo.io/edwards25519"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// VerifySignature reports whether signature is valid for message under
// pubkey. Wrong lengths are invalid.
func VerifySignature(pubkey, message, signature []byte) bool {
	return VerifySignatureStrict(pubkey, message, signature) == nil
}

// VerifySignatureStrict is VerifySignature with the reason for failure.
// A key that does not decode to a curve point is ErrInvalidPublicKey.
func VerifySignatureStrict(pubkey, message, signature []byte) error {
	if len(pubkey) != PublicKeySize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, PublicKeySize, len(pubkey))
	}
	if len(signature) != SignatureSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureSize, len(signature))
	}
	if _, err := new(edwards25519.Point).SetBytes(pubkey); err != nil {
		return fmt.Errorf("%w: not a curve point", ErrInvalidPublicKey)
	}
	if !ed25519.Verify(pubkey, message, signature) {
		return ErrVerificationFailed
	}
	return nil
}

// signedMessage checks tx carries exactly one signature per required
// signer and returns the bytes they sign.
func signedMessage(tx *types.Transaction) ([]byte, error) {
	if tx == nil {
		return nil, ErrMissingMessage
	}
	have, want := len(tx.Signatures), int(tx.Message.Header.NumRequiredSignatures)
	switch {
	case have == 0:
		return nil, ErrNoSignatures
	case have != want:
		return nil, fmt.Errorf("%w: expected %d signatures, got %d", ErrSignatureCountMismatch, want, have)
	case len(tx.Message.AccountKeys) < have:
		return nil, fmt.Errorf("%w: %d signatures for %d keys", ErrInvalidSignerIndex, have, len(tx.Message.AccountKeys))
	}
	return tx.Message.Serialize()
}

// VerifyTransaction checks every signature of tx against the matching
// leading account key.
func VerifyTransaction(tx *types.Transaction) error {
	message, err := signedMessage(tx)
	if err != nil {
		return err
	}
	for i, sig := range tx.Signatures {
		signer := tx.Message.AccountKeys[i]
		if err := VerifySignatureStrict(signer[:], message, sig[:]); err != nil {
			return &TransactionVerificationError{SignatureIndex: i, SignerPubkey: signer.String(), Err: err}
		}
	}
	return nil
}

// VerifyTransactionBatch verifies txs concurrently and returns one error
// per transaction, nil where its signatures are valid.
func VerifyTransactionBatch(txs []*types.Transaction) []error {
	errs := make([]error, len(txs))
	var wg sync.WaitGroup
	for i, tx := range txs {
		wg.Add(1)
		go func(i int, tx *types.Transaction) {
			defer wg.Done()
			errs[i] = VerifyTransaction(tx)
		}(i, tx)
	}
	wg.Wait()
	return errs
}
