package snapshot

import (
	"fmt"
	"io"
	"os"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// LoadResult contains the result of importing a snapshot.
type LoadResult struct {
	Manifest       *Manifest
	AccountsLoaded uint64
	LamportsTotal  uint64
}

// Import loads the archive read from r into db, which must be empty.
// Accounts are staged and checked against the manifest before anything
// is written to db.
func Import(r io.Reader, db accounts.AccountsDB) (*LoadResult, error) {
	if n := db.GetAccountsCount(); n != 0 {
		return nil, fmt.Errorf("%w: %d accounts", ErrLedgerNotEmpty, n)
	}

	staged, result, err := load(r)
	if err != nil {
		return nil, err
	}
	defer staged.Close()

	err = staged.ForEach(db.SetAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to store accounts: %w", err)
	}
	return result, nil
}

// ImportFile imports the archive at path into db. When expected is not
// nil the archive's SHA-256 must match it.
func ImportFile(path string, db accounts.AccountsDB, expected *types.Hash) (*LoadResult, error) {
	if expected != nil {
		if err := VerifyFileHash(path, *expected); err != nil {
			return nil, err
		}
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()
	return Import(file, db)
}

// load reads an archive into a fresh in-memory store and verifies the
// account count, lamport total and accounts hash against the manifest.
func load(r io.Reader) (*accounts.MemoryDB, *LoadResult, error) {
	archive, err := OpenArchive(r)
	if err != nil {
		return nil, nil, err
	}
	defer archive.Close()

	manifest, err := archive.ReadManifest()
	if err != nil {
		return nil, nil, err
	}
	reader, err := archive.Accounts()
	if err != nil {
		return nil, nil, err
	}

	staged := accounts.NewMemoryDB()
	result := &LoadResult{Manifest: manifest}
	for {
		entry, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			staged.Close()
			return nil, nil, err
		}
		if err := staged.SetAccount(entry.StoredMeta.Pubkey, entry.Account); err != nil {
			staged.Close()
			return nil, nil, err
		}
		result.AccountsLoaded++
		result.LamportsTotal += uint64(entry.Account.Lamports)
	}

	if err := verifyManifest(manifest, staged, result); err != nil {
		staged.Close()
		return nil, nil, err
	}
	return staged, result, nil
}
