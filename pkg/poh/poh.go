// Package poh keeps the ledger's hash chain.
//
// Every committed transaction is mixed into the chain as an entry:
//   - a tick entry (no signatures) is SHA256^numHashes(prevHash)
//   - a transaction entry is SHA256(prevHash || merkle(signatures)), then
//     iterated numHashes-1 times
//
// The latest entry hash is the ledger's recent blockhash.
package poh

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

const (
	// HashesPerEntry is the number of hash iterations per recorded entry.
	HashesPerEntry = 8

	// MaxRecentEntries bounds the entries a Recorder keeps.
	MaxRecentEntries = 150
)

var (
	ErrHashMismatch     = errors.New("poh: entry hash mismatch")
	ErrInvalidNumHashes = errors.New("poh: entry must hash at least once")
	ErrInvalidEntry     = errors.New("poh: nil entry")
)

// Entry is one link of the chain.
type Entry struct {
	Slot       uint64
	NumHashes  uint64
	Hash       types.Hash
	Signatures []types.Signature
}

// IsTick reports whether the entry carries no transactions.
func (e *Entry) IsTick() bool {
	return len(e.Signatures) == 0
}

// GenesisHash is the first hash of the chain of the ledger serving
// programID.
func GenesisHash(programID types.Pubkey) types.Hash {
	return types.SHA256Multi([]byte("tether-genesis"), programID[:])
}

// ComputeEntryHash computes the hash of an entry following prevHash.
func ComputeEntryHash(prevHash types.Hash, numHashes uint64, signatures []types.Signature) types.Hash {
	if numHashes == 0 {
		return prevHash
	}

	hash := prevHash
	start := uint64(0)
	if len(signatures) > 0 {
		root := signatureMerkleRoot(signatures)
		h := sha256.New()
		h.Write(prevHash[:])
		h.Write(root[:])
		copy(hash[:], h.Sum(nil))
		start = 1
	}
	for i := start; i < numHashes; i++ {
		hash = sha256.Sum256(hash[:])
	}
	return hash
}

func signatureMerkleRoot(signatures []types.Signature) types.Hash {
	level := make([]types.Hash, len(signatures))
	for i := range signatures {
		level[i] = sha256.Sum256(signatures[i][:])
	}
	for len(level) > 1 {
		next := make([]types.Hash, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next[i/2] = level[i]
				continue
			}
			next[i/2] = types.SHA256Multi(level[i][:], level[i+1][:])
		}
		level = next
	}
	return level[0]
}

// Recorder appends entries to the chain and remembers the most recent
// ones. It is safe for concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	hash   types.Hash
	recent []Entry
}

// NewRecorder starts a chain at seed.
func NewRecorder(seed types.Hash) *Recorder {
	return &Recorder{hash: seed}
}

// Record appends an entry mixing in signatures. With no signatures the
// entry is a tick.
func (r *Recorder) Record(slot uint64, signatures ...types.Signature) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{
		Slot:       slot,
		NumHashes:  HashesPerEntry,
		Hash:       ComputeEntryHash(r.hash, HashesPerEntry, signatures),
		Signatures: append([]types.Signature(nil), signatures...),
	}
	r.hash = entry.Hash
	r.recent = append(r.recent, entry)
	if len(r.recent) > MaxRecentEntries {
		r.recent = append(r.recent[:0:0], r.recent[len(r.recent)-MaxRecentEntries:]...)
	}
	return entry
}

// Hash returns the hash of the last entry, or the seed.
func (r *Recorder) Hash() types.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hash
}

// Recent returns the remembered entries, oldest first.
func (r *Recorder) Recent() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.recent...)
}

// IsRecent reports whether hash is the current hash or one of the
// remembered entry hashes.
func (r *Recorder) IsRecent(hash types.Hash) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if hash == r.hash {
		return true
	}
	for i := range r.recent {
		if r.recent[i].Hash == hash {
			return true
		}
	}
	return false
}

// Find returns the remembered entry that recorded sig.
func (r *Recorder) Find(sig types.Signature) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.recent) - 1; i >= 0; i-- {
		for _, s := range r.recent[i].Signatures {
			if s == sig {
				return r.recent[i], true
			}
		}
	}
	return Entry{}, false
}

// Verifier replays a sequence of entries against a starting hash.
type Verifier struct {
	currentHash types.Hash
	tickCount   uint64
}

// NewVerifier creates a verifier starting from initialHash.
func NewVerifier(initialHash types.Hash) *Verifier {
	return &Verifier{currentHash: initialHash}
}

// VerifyEntry checks entry against the current hash and advances to it.
func (v *Verifier) VerifyEntry(entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	if entry.NumHashes == 0 {
		return ErrInvalidNumHashes
	}

	expected := ComputeEntryHash(v.currentHash, entry.NumHashes, entry.Signatures)
	if entry.Hash != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expected.String(), entry.Hash.String())
	}

	v.currentHash = entry.Hash
	if entry.IsTick() {
		v.tickCount++
	}
	return nil
}

// VerifyEntries verifies entries in order. On failure the verifier stays
// at the last valid entry.
func (v *Verifier) VerifyEntries(entries []Entry) error {
	for i := range entries {
		if err := v.VerifyEntry(&entries[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// Reset restarts the verifier at hash.
func (v *Verifier) Reset(hash types.Hash) {
	v.currentHash = hash
	v.tickCount = 0
}

// CurrentHash returns the hash of the last verified entry.
func (v *Verifier) CurrentHash() types.Hash {
	return v.currentHash
}

// TickCount returns the number of tick entries verified.
func (v *Verifier) TickCount() uint64 {
	return v.tickCount
}
