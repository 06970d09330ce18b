package syscall

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

const (
	MaxSeeds   = 16
	MaxSeedLen = 32

	// PDAMarker is hashed after the program id when deriving an address.
	PDAMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedsExceeded      = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("seed too long")
	ErrInvalidSeeds          = errors.New("seeds produce an address on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

// CreateProgramAddress returns SHA256(seeds || programID || PDAMarker),
// failing with ErrInvalidSeeds when that lands on the curve and so could
// have a private key.
func CreateProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return types.ZeroPubkey, fmt.Errorf("%w: %d > %d", ErrMaxSeedsExceeded, len(seeds), MaxSeeds)
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return types.ZeroPubkey, fmt.Errorf("%w: %d > %d", ErrMaxSeedLengthExceeded, len(seed), MaxSeedLen)
		}
		parts = append(parts, seed)
	}
	parts = append(parts, programID[:], []byte(PDAMarker))

	pda := types.Pubkey(types.SHA256Multi(parts...))
	if IsOnCurve(pda[:]) {
		return types.ZeroPubkey, ErrInvalidSeeds
	}
	return pda, nil
}

// FindProgramAddress appends a bump seed to seeds, counting down from
// 255, and returns the first off-curve address. A non-nil ctx is charged
// ComputeUnitsPerPDAAttempt per bump tried.
func FindProgramAddress(seeds [][]byte, programID types.Pubkey, ctx *ExecutionContext) (types.Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return types.ZeroPubkey, 0, fmt.Errorf("%w: %d seeds leave no room for a bump", ErrMaxSeedsExceeded, len(seeds))
	}
	bump := []byte{0}
	withBump := append(append(make([][]byte, 0, len(seeds)+1), seeds...), bump)

	for b := 255; b >= 0; b-- {
		if ctx != nil {
			if err := ctx.ConsumeComputeUnits(uint64(types.ComputeUnitsPerPDAAttempt)); err != nil {
				return types.ZeroPubkey, 0, err
			}
		}
		bump[0] = byte(b)
		pda, err := CreateProgramAddress(withBump, programID)
		switch {
		case err == nil:
			return pda, byte(b), nil
		case !errors.Is(err, ErrInvalidSeeds):
			return types.ZeroPubkey, 0, err
		}
	}
	return types.ZeroPubkey, 0, ErrNoViableBump
}

// FindProgramAddressSync is FindProgramAddress without metering.
func FindProgramAddressSync(seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	return FindProgramAddress(seeds, programID, nil)
}

// IsOnCurve reports whether b is the encoding of an ed25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// DeriveAssociatedTokenAddress derives the associated token account of
// wallet for mint under tokenProgram.
func DeriveAssociatedTokenAddress(wallet, mint, tokenProgram types.Pubkey) (types.Pubkey, uint8, error) {
	return FindProgramAddressSync([][]byte{wallet[:], tokenProgram[:], mint[:]}, types.AssociatedTokenProgramID)
}
