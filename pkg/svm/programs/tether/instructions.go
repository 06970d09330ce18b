package tether

import (
	"encoding/binary"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Seed prefixes of the program's derived addresses.
var (
	ParticipantSeed = []byte("participant")
	MintSeed        = []byte("mint")
)

// ParticipateData is the payload of a Participate instruction.
type ParticipateData struct {
	ActiveTime int64
	Seed       uint64
}

const participateDataLen = 16

func (d *ParticipateData) Decode(data []byte) error {
	if len(data) != participateDataLen {
		return fmt.Errorf("%w: participate payload is %d bytes, want %d", ErrInvalidInstructionData, len(data), participateDataLen)
	}
	d.ActiveTime = int64(binary.LittleEndian.Uint64(data[0:8]))
	d.Seed = binary.LittleEndian.Uint64(data[8:16])
	return nil
}

// Encode returns the instruction data, discriminator included.
func (d *ParticipateData) Encode() []byte {
	data := make([]byte, 1+participateDataLen)
	data[0] = InstructionParticipate
	binary.LittleEndian.PutUint64(data[1:9], uint64(d.ActiveTime))
	binary.LittleEndian.PutUint64(data[9:17], d.Seed)
	return data
}

// ClaimData is the payload of a Claim instruction.
type ClaimData struct {
	IsWinner bool
	MintBump uint8
}

const claimDataLen = 2

func (d *ClaimData) Decode(data []byte) error {
	if len(data) != claimDataLen {
		return fmt.Errorf("%w: claim payload is %d bytes, want %d", ErrInvalidInstructionData, len(data), claimDataLen)
	}
	d.IsWinner = data[0] != 0
	d.MintBump = data[1]
	return nil
}

// Encode returns the instruction data, discriminator included.
func (d *ClaimData) Encode() []byte {
	data := []byte{InstructionClaim, 0, d.MintBump}
	if d.IsWinner {
		data[1] = 1
	}
	return data
}

func participantSeeds(signer types.Pubkey, seed uint64) [][]byte {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], seed)
	return [][]byte{ParticipantSeed, signer[:], le[:]}
}

// FindParticipantAddress derives the record address of signer's position
// opened with seed.
func FindParticipantAddress(programID, signer types.Pubkey, seed uint64) (types.Pubkey, uint8, error) {
	return syscall.FindProgramAddressSync(participantSeeds(signer, seed), programID)
}

// FindMintAuthorityAddress derives the address that must hold mint's
// mint authority for claims to succeed.
func FindMintAuthorityAddress(programID, mint types.Pubkey) (types.Pubkey, uint8, error) {
	return syscall.FindProgramAddressSync([][]byte{MintSeed, mint[:]}, programID)
}

// Participate builds a Participate instruction opening signer's position
// number seed.
func Participate(programID, signer, mint types.Pubkey, activeTime int64, seed uint64) (*types.Instruction, error) {
	participant, _, err := FindParticipantAddress(programID, signer, seed)
	if err != nil {
		return nil, err
	}
	ata, _, err := syscall.DeriveAssociatedTokenAddress(signer, mint, TokenProgramID)
	if err != nil {
		return nil, err
	}
	payload := ParticipateData{ActiveTime: activeTime, Seed: seed}
	return &types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(signer, true, true),
			types.NewAccountMeta(participant, false, true),
			types.NewAccountMeta(ata, false, true),
			types.NewAccountMeta(mint, false, true),
			types.NewAccountMeta(TokenProgramID, false, false),
			types.NewAccountMeta(types.SystemProgramID, false, false),
		},
		Data: payload.Encode(),
	}, nil
}

// Claim builds a Claim instruction settling signer's position number seed.
func Claim(programID, signer, mint types.Pubkey, seed uint64, isWinner bool) (*types.Instruction, error) {
	participant, _, err := FindParticipantAddress(programID, signer, seed)
	if err != nil {
		return nil, err
	}
	ata, _, err := syscall.DeriveAssociatedTokenAddress(signer, mint, TokenProgramID)
	if err != nil {
		return nil, err
	}
	authority, bump, err := FindMintAuthorityAddress(programID, mint)
	if err != nil {
		return nil, err
	}
	payload := ClaimData{IsWinner: isWinner, MintBump: bump}
	return &types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(signer, true, true),
			types.NewAccountMeta(participant, false, true),
			types.NewAccountMeta(ata, false, true),
			types.NewAccountMeta(mint, false, true),
			types.NewAccountMeta(authority, false, false),
			types.NewAccountMeta(TokenProgramID, false, false),
			types.NewAccountMeta(types.SystemProgramID, false, false),
		},
		Data: payload.Encode(),
	}, nil
}
