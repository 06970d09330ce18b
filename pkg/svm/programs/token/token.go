// Package token implements the native token program of the tether
// runtime. One implementation answers for both the legacy token program
// and Token-2022, base layouts only. It supports mint and account
// initialization, minting with or without a decimals check, and
// transfers.
//
// Every account a Program touches must be owned by its ProgramID.
package token

import (
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// ComputeUnits charged per token instruction.
const ComputeUnits = 4_500

type handler struct {
	accounts int
	run      func(p *Program, ctx *syscall.ExecutionContext, inst *Instruction) error
}

var handlers = map[Kind]handler{
	KindInitializeMint2:    {1, (*Program).initializeMint},
	KindInitializeAccount3: {2, (*Program).initializeAccount},
	KindTransfer:           {3, (*Program).transfer},
	KindMintTo:             {3, (*Program).mintTo},
	KindMintToChecked:      {3, (*Program).mintTo},
}

// Program is a token program answering at ProgramID.
type Program struct {
	ProgramID types.Pubkey
}

func New(programID types.Pubkey) *Program {
	return &Program{ProgramID: programID}
}

// Execute runs the token instruction installed in ctx.
func (p *Program) Execute(ctx *syscall.ExecutionContext) error {
	if err := ctx.ConsumeComputeUnits(ComputeUnits); err != nil {
		return err
	}
	inst, err := DecodeInstruction(ctx.InstructionData)
	if err != nil {
		return err
	}
	h := handlers[inst.Kind]
	if n := ctx.AccountCount(); n < h.accounts {
		return fmt.Errorf("%w: %s needs %d accounts, got %d", ErrInvalidNumberOfAccounts, inst.Kind, h.accounts, n)
	}
	ctx.Log("Instruction: %s", inst.Kind)
	return h.run(p, ctx, inst)
}

func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}
