// Package system implements the System Program: the only program that
// creates accounts, and the owner of every account no other program has
// claimed.
package system

import (
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// ComputeUnits charged per System Program instruction.
const ComputeUnits = 150

// SystemProgram implements the System Program.
type SystemProgram struct {
	ProgramID types.Pubkey
}

// New creates a new SystemProgram instance.
func New() *SystemProgram {
	return &SystemProgram{
		ProgramID: types.SystemProgramID,
	}
}

var handlers = map[uint32]func(*syscall.ExecutionContext, *Instruction) error{
	InstructionCreateAccount: createAccount,
	InstructionAssign:        assign,
	InstructionTransfer:      transfer,
	InstructionAllocate:      allocate,
}

// Execute decodes the instruction installed in ctx and runs it.
func (p *SystemProgram) Execute(ctx *syscall.ExecutionContext) error {
	if err := ctx.ConsumeComputeUnits(ComputeUnits); err != nil {
		return err
	}
	inst, err := DecodeInstruction(ctx.InstructionData)
	if err != nil {
		return err
	}
	return handlers[inst.Kind](ctx, inst)
}

// GetProgramID returns the System Program's public key.
func (p *SystemProgram) GetProgramID() types.Pubkey {
	return p.ProgramID
}

// CreateAccount builds a CreateAccount instruction funding newAccount from
// payer. Both must sign; a PDA signs through the caller's signer seeds.
func CreateAccount(payer, newAccount types.Pubkey, lamports, space uint64, owner types.Pubkey) *types.Instruction {
	inst := Instruction{Kind: InstructionCreateAccount, Lamports: lamports, Space: space, Owner: owner}
	return &types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(payer, true, true),
			types.NewAccountMeta(newAccount, true, true),
		},
		Data: inst.Encode(),
	}
}

// Transfer builds a Transfer instruction.
func Transfer(from, to types.Pubkey, lamports uint64) *types.Instruction {
	inst := Instruction{Kind: InstructionTransfer, Lamports: lamports}
	return &types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true, true),
			types.NewAccountMeta(to, false, true),
		},
		Data: inst.Encode(),
	}
}

// Assign builds an Assign instruction.
func Assign(account, owner types.Pubkey) *types.Instruction {
	inst := Instruction{Kind: InstructionAssign, Owner: owner}
	return &types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []types.AccountMeta{types.NewAccountMeta(account, true, true)},
		Data:      inst.Encode(),
	}
}

// Allocate builds an Allocate instruction.
func Allocate(account types.Pubkey, space uint64) *types.Instruction {
	inst := Instruction{Kind: InstructionAllocate, Space: space}
	return &types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []types.AccountMeta{types.NewAccountMeta(account, true, true)},
		Data:      inst.Encode(),
	}
}
