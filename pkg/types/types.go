// Package types provides the core ledger data types shared by the tether
// runtime, its native programs and the CLI.
package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// Hash is a 32-byte SHA-256 digest. It renders as base58.
type Hash [32]byte

// Pubkey is a 32-byte ed25519 public key or program derived address.
type Pubkey [32]byte

// Signature is a 64-byte ed25519 signature.
type Signature [64]byte

var (
	ZeroHash      Hash
	ZeroPubkey    Pubkey
	ZeroSignature Signature
)

// Well-known program IDs.
var (
	SystemProgramID          = MustPubkeyFromBase58("11111111111111111111111111111111")
	TokenProgramID           = MustPubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID       = MustPubkeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = MustPubkeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	NativeLoaderID           = MustPubkeyFromBase58("NativeLoader1111111111111111111111111111111")

	// TetherProgramID is the default address the tether program is deployed at.
	TetherProgramID = MustPubkeyFromBase58("22222222222222222222222222222222222222222222")
)

// fixed copies b into dst, which must be exactly len(b) long.
func fixed(dst []byte, b []byte, what string) error {
	if len(b) != len(dst) {
		return fmt.Errorf("%s must be %d bytes, got %d", what, len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

func decodeBase58(dst []byte, s, what string) error {
	b, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("invalid base58 %s: %w", what, err)
	}
	return fixed(dst, b, what)
}

// SHA256 returns the SHA-256 of data.
func SHA256(data []byte) Hash {
	return sha256.Sum256(data)
}

// SHA256Multi returns the SHA-256 of the concatenation of data.
func SHA256Multi(data ...[]byte) Hash {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// HashFromBase58 decodes a base58 hash.
func HashFromBase58(s string) (Hash, error) {
	var h Hash
	err := decodeBase58(h[:], s, "hash")
	return h, err
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// PubkeyFromBytes copies a 32-byte slice into a Pubkey.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	err := fixed(pk[:], b, "pubkey")
	return pk, err
}

// PubkeyFromBase58 decodes a base58 pubkey.
func PubkeyFromBase58(s string) (Pubkey, error) {
	var pk Pubkey
	err := decodeBase58(pk[:], s, "pubkey")
	return pk, err
}

// MustPubkeyFromBase58 decodes a base58 pubkey or panics. Use it for
// constants only.
func MustPubkeyFromBase58(s string) Pubkey {
	pk, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk Pubkey) String() string {
	return base58.Encode(pk[:])
}

func (pk Pubkey) IsZero() bool {
	return pk == ZeroPubkey
}

// IsTokenProgram reports whether pk is either token program generation.
func (pk Pubkey) IsTokenProgram() bool {
	return pk == TokenProgramID || pk == Token2022ProgramID
}

// MarshalText renders the key as base58 in YAML and JSON documents.
func (pk Pubkey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := PubkeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// SignatureFromBase58 decodes a base58 signature.
func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	err := decodeBase58(sig[:], s, "signature")
	return sig, err
}

func (sig Signature) String() string {
	return base58.Encode(sig[:])
}

func (sig Signature) IsZero() bool {
	return sig == ZeroSignature
}

// Epoch is a rent epoch number.
type Epoch uint64

// Lamports is an amount of the native currency.
type Lamports uint64

// ComputeUnits measures execution cost.
type ComputeUnits uint64

const (
	// DefaultComputeUnitsPerInstruction is the default transaction limit.
	DefaultComputeUnitsPerInstruction ComputeUnits = 200_000

	// ComputeUnitsPerPDAAttempt is charged for each bump tried while
	// deriving a program address.
	ComputeUnitsPerPDAAttempt ComputeUnits = 1_500
)
