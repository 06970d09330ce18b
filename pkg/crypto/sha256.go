package crypto

import (
	"crypto/sha256"
	"hash"
	"io"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Hash returns the SHA-256 of data.
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashStream returns the SHA-256 of everything r yields and the number of
// bytes read.
func HashStream(r io.Reader) (types.Hash, int64, error) {
	d := NewDigest()
	if _, err := io.Copy(d, r); err != nil {
		return types.ZeroHash, d.Len(), err
	}
	return d.Sum(), d.Len(), nil
}

// Digest is an incremental SHA-256 writer. Placed behind an
// io.MultiWriter it hashes a stream as it is written elsewhere.
type Digest struct {
	h hash.Hash
	n int64
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

func (d *Digest) Write(p []byte) (int, error) {
	d.n += int64(len(p))
	return d.h.Write(p)
}

// Sum returns the hash of the bytes written so far.
func (d *Digest) Sum() types.Hash {
	var out types.Hash
	copy(out[:], d.h.Sum(nil))
	return out
}

// Len returns the number of bytes written.
func (d *Digest) Len() int64 {
	return d.n
}
