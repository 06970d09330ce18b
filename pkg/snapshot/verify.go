package snapshot

import (
	"fmt"
	"os"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/crypto"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Verify checks the archive at path without touching any ledger and
// returns what it would load.
func Verify(path string) (*LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	staged, result, err := load(file)
	if err != nil {
		return nil, err
	}
	staged.Close()
	return result, nil
}

// FileHash returns the SHA-256 of the file at path.
func FileHash(path string) (types.Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.ZeroHash, err
	}
	defer file.Close()

	hash, _, err := crypto.HashStream(file)
	if err != nil {
		return types.ZeroHash, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hash, nil
}

// VerifyFileHash compares the archive hash against expected.
func VerifyFileHash(path string, expected types.Hash) error {
	actual, err := FileHash(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%w: archive %s, expected %s", ErrHashMismatch, actual.String(), expected.String())
	}
	return nil
}

func verifyManifest(manifest *Manifest, staged accounts.AccountsDB, result *LoadResult) error {
	if result.AccountsLoaded != manifest.AccountsCount {
		return fmt.Errorf("%w: %d accounts, manifest says %d", ErrInvalidManifest, result.AccountsLoaded, manifest.AccountsCount)
	}
	if result.LamportsTotal != manifest.LamportsTotal {
		return fmt.Errorf("%w: %d lamports, manifest says %d", ErrInvalidManifest, result.LamportsTotal, manifest.LamportsTotal)
	}
	hash, err := accounts.ComputeAccountsHash(staged)
	if err != nil {
		return err
	}
	if hash != manifest.AccountsHash {
		return fmt.Errorf("%w: accounts hash %s, manifest says %s", ErrHashMismatch, hash.String(), manifest.AccountsHash.String())
	}
	return nil
}
