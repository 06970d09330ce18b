// Package snapshot exports and imports the account store as a
// zstd-compressed tar archive.
//
// An archive holds two entries, in order: "manifest" (JSON) and
// "accounts" (see the accounts file format).
package snapshot

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/crypto"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Archive entry names.
const (
	ManifestName = "manifest"
	AccountsName = "accounts"
)

// ManifestVersion is the manifest version this package writes.
const ManifestVersion = 1

var (
	// ErrInvalidManifest is returned when the manifest is malformed.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrInvalidArchive is returned when the archive is malformed.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrHashMismatch is returned when a hash verification fails.
	ErrHashMismatch = errors.New("hash mismatch")
	// ErrLedgerNotEmpty is returned when importing into a non-empty store.
	ErrLedgerNotEmpty = errors.New("ledger is not empty")
)

// Manifest contains metadata about a snapshot.
type Manifest struct {
	Version       uint32       `json:"version"`
	Slot          uint64       `json:"slot"`
	ProgramID     types.Pubkey `json:"program_id"`
	AccountsCount uint64       `json:"accounts_count"`
	LamportsTotal uint64       `json:"lamports_total"`
	AccountsHash  types.Hash   `json:"accounts_hash"`
	CreatedAt     time.Time    `json:"created_at"`
}

// MarshalJSON renders the accounts hash in base58.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	type Alias Manifest
	return json.Marshal(&struct {
		AccountsHash string `json:"accounts_hash"`
		*Alias
	}{
		AccountsHash: m.AccountsHash.String(),
		Alias:        (*Alias)(m),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Manifest.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type Alias Manifest
	aux := &struct {
		AccountsHash string `json:"accounts_hash"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.AccountsHash != "" {
		hash, err := types.HashFromBase58(aux.AccountsHash)
		if err != nil {
			return fmt.Errorf("invalid accounts hash: %w", err)
		}
		m.AccountsHash = hash
	}
	return nil
}

// Export writes every account of db to w as a snapshot archive.
func Export(db accounts.AccountsDB, w io.Writer, slot uint64, programID types.Pubkey) (*Manifest, error) {
	hash, err := accounts.ComputeAccountsHash(db)
	if err != nil {
		return nil, fmt.Errorf("failed to hash accounts: %w", err)
	}

	var buf bytes.Buffer
	fw := NewAccountsFileWriter(&buf)
	var lamports uint64
	err = db.ForEach(func(pubkey types.Pubkey, account *types.Account) error {
		lamports += uint64(account.Lamports)
		return fw.Write(pubkey, account)
	})
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Version:       ManifestVersion,
		Slot:          slot,
		ProgramID:     programID,
		AccountsCount: fw.Count(),
		LamportsTotal: lamports,
		AccountsHash:  hash,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	tw := tar.NewWriter(enc)
	if err := writeEntry(tw, ManifestName, manifestData, manifest.CreatedAt); err != nil {
		enc.Close()
		return nil, err
	}
	if err := writeEntry(tw, AccountsName, buf.Bytes(), manifest.CreatedAt); err != nil {
		enc.Close()
		return nil, err
	}
	if err := tw.Close(); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  modTime,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ExportFile writes a snapshot archive to path and returns its manifest
// together with the SHA-256 of the archive file.
func ExportFile(db accounts.AccountsDB, path string, slot uint64, programID types.Pubkey) (*Manifest, types.Hash, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, types.ZeroHash, fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	digest := crypto.NewDigest()
	manifest, err := Export(db, io.MultiWriter(tmp, digest), slot, programID)
	if err != nil {
		tmp.Close()
		return nil, types.ZeroHash, err
	}
	if err := tmp.Close(); err != nil {
		return nil, types.ZeroHash, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, types.ZeroHash, fmt.Errorf("failed to move archive into place: %w", err)
	}
	return manifest, digest.Sum(), nil
}

// Archive reads a snapshot archive sequentially.
type Archive struct {
	decoder   *zstd.Decoder
	tarReader *tar.Reader
	manifest  *Manifest
}

// OpenArchive starts reading an archive from r.
func OpenArchive(r io.Reader) (*Archive, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Archive{
		decoder:   decoder,
		tarReader: tar.NewReader(decoder),
	}, nil
}

// ReadManifest reads the manifest, which must be the first entry.
func (a *Archive) ReadManifest() (*Manifest, error) {
	if a.manifest != nil {
		return a.manifest, nil
	}
	if err := a.expect(ManifestName); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(a.tarReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	manifest := &Manifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidManifest, manifest.Version)
	}
	a.manifest = manifest
	return manifest, nil
}

// Accounts returns a reader over the accounts entry. The manifest must
// have been read first.
func (a *Archive) Accounts() (*AccountsFileReader, error) {
	if a.manifest == nil {
		return nil, fmt.Errorf("%w: manifest not read", ErrInvalidArchive)
	}
	if err := a.expect(AccountsName); err != nil {
		return nil, err
	}
	return NewAccountsFileReader(a.tarReader), nil
}

func (a *Archive) expect(name string) error {
	header, err := a.tarReader.Next()
	if err == io.EOF {
		return fmt.Errorf("%w: %s not found in archive", ErrInvalidArchive, name)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to read tar header: %v", ErrInvalidArchive, err)
	}
	if header.Name != name || header.Typeflag != tar.TypeReg {
		return fmt.Errorf("%w: expected %s, found %s", ErrInvalidArchive, name, header.Name)
	}
	return nil
}

// Close releases the decoder.
func (a *Archive) Close() {
	a.decoder.Close()
}
