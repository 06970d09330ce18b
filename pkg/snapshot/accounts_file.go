package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Accounts file format:
//
// A sequence of entries, each:
// - stored_meta (StoredMetaSize bytes)
//   - write_version: 8 bytes (u64)
//   - data_len: 8 bytes (u64), length of the serialized account
//   - pubkey: 32 bytes
// - account: data_len bytes, as produced by accounts.SerializeAccount

// StoredMetaSize is the size of the StoredMeta header.
const StoredMetaSize = 8 + 8 + 32

// MaxStoredAccountSize bounds data_len when reading.
const MaxStoredAccountSize = 16 * 1024 * 1024

// ErrInvalidAccountsFile is returned when an accounts file is malformed.
var ErrInvalidAccountsFile = errors.New("invalid accounts file")

// StoredMeta contains metadata about a stored account.
type StoredMeta struct {
	WriteVersion uint64
	DataLen      uint64
	Pubkey       types.Pubkey
}

// AccountEntry represents an account read from an accounts file.
type AccountEntry struct {
	StoredMeta StoredMeta
	Account    *types.Account
}

// AccountsFileWriter appends entries to an accounts file.
type AccountsFileWriter struct {
	w       io.Writer
	version uint64
	written int64
}

// NewAccountsFileWriter creates a writer over w.
func NewAccountsFileWriter(w io.Writer) *AccountsFileWriter {
	return &AccountsFileWriter{w: w}
}

// Write appends one account.
func (fw *AccountsFileWriter) Write(pubkey types.Pubkey, account *types.Account) error {
	data, err := accounts.SerializeAccount(account)
	if err != nil {
		return fmt.Errorf("failed to serialize account %s: %w", pubkey.String(), err)
	}

	var meta [StoredMetaSize]byte
	binary.LittleEndian.PutUint64(meta[0:8], fw.version)
	binary.LittleEndian.PutUint64(meta[8:16], uint64(len(data)))
	copy(meta[16:48], pubkey[:])

	if _, err := fw.w.Write(meta[:]); err != nil {
		return err
	}
	if _, err := fw.w.Write(data); err != nil {
		return err
	}
	fw.version++
	fw.written += int64(StoredMetaSize + len(data))
	return nil
}

// Count returns the number of entries written.
func (fw *AccountsFileWriter) Count() uint64 {
	return fw.version
}

// Size returns the number of bytes written.
func (fw *AccountsFileWriter) Size() int64 {
	return fw.written
}

// AccountsFileReader reads entries from an accounts file.
type AccountsFileReader struct {
	r      io.Reader
	offset int64
}

// NewAccountsFileReader creates a reader over r.
func NewAccountsFileReader(r io.Reader) *AccountsFileReader {
	return &AccountsFileReader{r: r}
}

// ReadNext returns the next entry, or io.EOF after the last one.
func (fr *AccountsFileReader) ReadNext() (*AccountEntry, error) {
	var meta [StoredMetaSize]byte
	n, err := io.ReadFull(fr.r, meta[:])
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: truncated header at offset %d (%d bytes)", ErrInvalidAccountsFile, fr.offset, n)
	}

	entry := &AccountEntry{
		StoredMeta: StoredMeta{
			WriteVersion: binary.LittleEndian.Uint64(meta[0:8]),
			DataLen:      binary.LittleEndian.Uint64(meta[8:16]),
		},
	}
	copy(entry.StoredMeta.Pubkey[:], meta[16:48])
	if entry.StoredMeta.DataLen > MaxStoredAccountSize {
		return nil, fmt.Errorf("%w: entry at offset %d is %d bytes", ErrInvalidAccountsFile, fr.offset, entry.StoredMeta.DataLen)
	}

	data := make([]byte, entry.StoredMeta.DataLen)
	if _, err := io.ReadFull(fr.r, data); err != nil {
		return nil, fmt.Errorf("%w: truncated account at offset %d", ErrInvalidAccountsFile, fr.offset)
	}
	entry.Account, err = accounts.DeserializeAccount(data)
	if err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", ErrInvalidAccountsFile, entry.StoredMeta.Pubkey.String(), err)
	}

	fr.offset += int64(StoredMetaSize) + int64(entry.StoredMeta.DataLen)
	return entry, nil
}

// Offset returns the number of bytes consumed so far.
func (fr *AccountsFileReader) Offset() int64 {
	return fr.offset
}
