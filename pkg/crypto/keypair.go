package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Keypair is an ed25519 signing key.
type Keypair struct {
	private ed25519.PrivateKey
}

// GenerateKeypair creates a random keypair.
func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{private: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrInvalidPrivateKey, len(seed))
	}
	return &Keypair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// KeypairFromBytes decodes a 64-byte private key (seed followed by the
// public key) and checks that both halves agree.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, PrivateKeySize, len(b))
	}
	kp, err := KeypairFromSeed(b[:SeedSize])
	if err != nil {
		return nil, err
	}
	if string(kp.private[SeedSize:]) != string(b[SeedSize:]) {
		return nil, fmt.Errorf("%w: public key does not match seed", ErrInvalidPrivateKey)
	}
	return kp, nil
}

// Pubkey returns the public half of the keypair.
func (k *Keypair) Pubkey() types.Pubkey {
	var pk types.Pubkey
	copy(pk[:], k.private[SeedSize:])
	return pk
}

// Sign signs message.
func (k *Keypair) Sign(message []byte) types.Signature {
	var sig types.Signature
	copy(sig[:], ed25519.Sign(k.private, message))
	return sig
}

// Bytes returns the 64-byte private key.
func (k *Keypair) Bytes() []byte {
	return append([]byte(nil), k.private...)
}

// LoadKeypair reads a keypair file holding a JSON array of the 64 private
// key bytes.
func LoadKeypair(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPrivateKey, path, err)
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: %s: byte %d out of range", ErrInvalidPrivateKey, path, i)
		}
		b[i] = byte(v)
	}
	return KeypairFromBytes(b)
}

// Save writes the keypair in the format LoadKeypair reads, readable by
// the owner only.
func (k *Keypair) Save(path string) error {
	ints := make([]int, len(k.private))
	for i, b := range k.private {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// SignTransaction fills in tx's signatures. Every required signer of the
// message must be among signers.
func SignTransaction(tx *types.Transaction, signers ...*Keypair) error {
	messageBytes, err := tx.Message.Serialize()
	if err != nil {
		return fmt.Errorf("crypto: serialize message: %w", err)
	}

	byKey := make(map[types.Pubkey]*Keypair, len(signers))
	for _, kp := range signers {
		byKey[kp.Pubkey()] = kp
	}

	required := tx.Message.Signers()
	tx.Signatures = make([]types.Signature, len(required))
	for i, pk := range required {
		kp, ok := byKey[pk]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, pk.String())
		}
		tx.Signatures[i] = kp.Sign(messageBytes)
	}
	return nil
}
