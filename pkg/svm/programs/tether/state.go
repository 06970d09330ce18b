package tether

import (
	"encoding/binary"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Record sizes. Fields are laid out in declaration order, little-endian,
// without padding.
const (
	ParticipantLen = 8 + 8 + 32 + 1
	AdminLen       = 32 + 1
)

// ClosedSentinel is written to the first byte of a closed record.
const ClosedSentinel byte = 0xFF

// Participant is a view over the data of a participant record account.
// Reads and writes go straight to the underlying slice.
//
//	offset 0  stake        u64
//	offset 8  active_time  i64
//	offset 16 participant  pubkey
//	offset 48 bump         u8
type Participant struct {
	data []byte
}

// LoadParticipant returns a view over data, which must be exactly
// ParticipantLen bytes.
func LoadParticipant(data []byte) (Participant, error) {
	if len(data) != ParticipantLen {
		return Participant{}, fmt.Errorf("%w: participant record is %d bytes, want %d", ErrInvalidAccountData, len(data), ParticipantLen)
	}
	return Participant{data: data}, nil
}

// ParticipantFromAccount decodes the participant record held by acc,
// checking that it belongs to programID.
func ParticipantFromAccount(programID types.Pubkey, acc *types.Account) (Participant, error) {
	if acc == nil || acc.Owner != programID {
		return Participant{}, ErrInvalidOwner
	}
	return LoadParticipant(acc.Data)
}

func (p Participant) Stake() uint64 {
	return binary.LittleEndian.Uint64(p.data[0:8])
}

func (p Participant) ActiveTime() int64 {
	return int64(binary.LittleEndian.Uint64(p.data[8:16]))
}

// Key returns the public key allowed to claim the position.
func (p Participant) Key() types.Pubkey {
	var pk types.Pubkey
	copy(pk[:], p.data[16:48])
	return pk
}

func (p Participant) Bump() uint8 {
	return p.data[48]
}

// SetInner overwrites every field of the record.
func (p Participant) SetInner(stake uint64, activeTime int64, participant types.Pubkey, bump uint8) {
	binary.LittleEndian.PutUint64(p.data[0:8], stake)
	binary.LittleEndian.PutUint64(p.data[8:16], uint64(activeTime))
	copy(p.data[16:48], participant[:])
	p.data[48] = bump
}

// Admin is a view over an admin record. No instruction consumes it yet.
type Admin struct {
	data []byte
}

func LoadAdmin(data []byte) (Admin, error) {
	if len(data) != AdminLen {
		return Admin{}, fmt.Errorf("%w: admin record is %d bytes, want %d", ErrInvalidAccountData, len(data), AdminLen)
	}
	return Admin{data: data}, nil
}

func (a Admin) Key() types.Pubkey {
	var pk types.Pubkey
	copy(pk[:], a.data[0:32])
	return pk
}

func (a Admin) Bump() uint8 {
	return a.data[32]
}

func (a Admin) SetInner(admin types.Pubkey, bump uint8) {
	copy(a.data[0:32], admin[:])
	a.data[32] = bump
}
