// Package tether implements the tether staking program. Participants
// open a position backed by the balance of their associated token
// account and later claim a reward minted by the program's mint
// authority, which closes the position.
package tether

import (
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Instruction discriminators.
const (
	InstructionParticipate uint8 = 0
	InstructionClaim       uint8 = 1
)

// ComputeUnits charged per instruction, excluding nested invocations.
const ComputeUnits = 1_000

// TokenProgramID is the token program that owns stake mints and
// participant token accounts.
var TokenProgramID = types.Token2022ProgramID

// Program is the tether program.
type Program struct {
	ProgramID types.Pubkey
}

// New creates the program at its canonical address.
func New() *Program {
	return &Program{ProgramID: types.TetherProgramID}
}

// NewWithID creates the program at a custom address.
func NewWithID(programID types.Pubkey) *Program {
	return &Program{ProgramID: programID}
}

// Execute dispatches on the leading discriminator byte.
func (p *Program) Execute(ctx *syscall.ExecutionContext) error {
	if err := ctx.ConsumeComputeUnits(ComputeUnits); err != nil {
		return err
	}

	data := ctx.InstructionData
	if len(data) == 0 {
		return fmt.Errorf("%w: empty instruction", ErrInvalidInstructionData)
	}

	switch data[0] {
	case InstructionParticipate:
		ctx.Log("Instruction: Participate")
		return p.participate(ctx, data[1:])
	case InstructionClaim:
		ctx.Log("Instruction: Claim")
		return p.claim(ctx, data[1:])
	default:
		return fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstructionData, data[0])
	}
}

// GetProgramID returns the program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}

// accounts returns the first n accounts of the instruction.
func accounts(ctx *syscall.ExecutionContext, n int) ([]*syscall.AccountInfo, error) {
	if ctx.AccountCount() < n {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrNotEnoughAccountKeys, n, ctx.AccountCount())
	}
	out := make([]*syscall.AccountInfo, n)
	for i := range out {
		acc, err := ctx.GetAccountByIndex(i)
		if err != nil {
			return nil, err
		}
		out[i] = acc
	}
	return out, nil
}
