package syscall

import (
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// CPI errors
var (
	ErrCPIDepthExceeded           = errors.New("CPI depth exceeded")
	ErrCPIAccountNotFound         = errors.New("account not found in caller")
	ErrCPIWritablePrivilege       = errors.New("writable privilege escalation")
	ErrCPISignerPrivilege         = errors.New("signer privilege escalation")
	ErrCPIPDASignerMismatch       = errors.New("PDA signer does not match derived address")
	ErrCPIInvalidSignerSeeds      = errors.New("invalid signer seeds")
	ErrCPIReentrancy              = errors.New("program reentrancy not allowed")
	ErrCPIInstructionDataTooLarge = errors.New("instruction data too large")
	ErrCPITooManyAccounts         = errors.New("too many accounts in CPI")
)

// CPI limits
const (
	// MaxCPIDepth is the maximum CPI call depth below the top-level instruction.
	MaxCPIDepth = 4

	// MaxCPIAccounts is the maximum number of accounts in a CPI instruction.
	MaxCPIAccounts = 64

	// MaxCPISignerSeeds is the maximum number of PDA signers.
	MaxCPISignerSeeds = 16
)

// CPI compute unit costs
const (
	CUCPIBase       uint64 = 1000
	CUCPIPerAccount uint64 = 100
)

// CPISignerSeeds are the seeds (bump included) proving the caller's
// authority over one program-derived address.
type CPISignerSeeds struct {
	Seeds [][]byte
}

// Signer bundles seeds into a CPISignerSeeds.
func Signer(seeds ...[]byte) CPISignerSeeds {
	return CPISignerSeeds{Seeds: seeds}
}

// Invoke calls another program with the caller's privileges.
func (ctx *ExecutionContext) Invoke(instruction *types.Instruction) error {
	return ctx.InvokeSigned(instruction)
}

// InvokeSigned calls another program. Each signer's seeds are hashed with
// the calling program's ID; the resulting addresses are granted signer
// privileges in the callee.
//
// The callee runs against copies of the caller's accounts. Its changes are
// verified against the callee's ownership rights and then written back to
// the caller; on failure the caller's accounts are left untouched.
func (ctx *ExecutionContext) InvokeSigned(instruction *types.Instruction, signers ...CPISignerSeeds) error {
	if ctx.Depth >= MaxCPIDepth {
		return ErrCPIDepthExceeded
	}
	if ctx.executor == nil {
		return ErrNoProgramExecutor
	}
	if len(instruction.Data) > MaxInstructionData {
		return fmt.Errorf("%w: %d bytes", ErrCPIInstructionDataTooLarge, len(instruction.Data))
	}
	if len(instruction.Accounts) > MaxCPIAccounts {
		return fmt.Errorf("%w: %d", ErrCPITooManyAccounts, len(instruction.Accounts))
	}
	if instruction.ProgramID != ctx.ProgramID && ctx.IsCalledBy(instruction.ProgramID) {
		return fmt.Errorf("%w: %s", ErrCPIReentrancy, instruction.ProgramID.String())
	}

	cost := CUCPIBase + CUCPIPerAccount*uint64(len(instruction.Accounts))
	if err := ctx.ConsumeComputeUnits(cost); err != nil {
		return err
	}

	pdaSigners, err := ctx.verifyPDASigners(instruction, signers)
	if err != nil {
		return err
	}

	calleeAccounts, err := ctx.resolveAndValidateAccounts(instruction, pdaSigners)
	if err != nil {
		return err
	}

	// Changes the caller made so far are checked against the caller's
	// rights before the callee gets to see them.
	if err := ctx.VerifyFrame(); err != nil {
		return err
	}

	callerProgramID := ctx.ProgramID
	callerAccounts := ctx.Accounts
	callerIndex := ctx.accountIndex
	callerData := ctx.InstructionData
	callerPre := ctx.pre

	ctx.PushCaller(callerProgramID)

	ctx.ProgramID = instruction.ProgramID
	ctx.Accounts = calleeAccounts
	ctx.InstructionData = instruction.Data
	ctx.rebuildIndex()
	ctx.BeginFrame()

	_ = ctx.AddLog(fmt.Sprintf("Program %s invoke [%d]", instruction.ProgramID.String(), ctx.Depth+1))

	err = ctx.executor.ExecuteProgram(ctx)
	if err == nil {
		err = ctx.VerifyFrame()
	}

	if err != nil {
		_ = ctx.AddLog(fmt.Sprintf("Program %s failed: %v", instruction.ProgramID.String(), err))
	} else {
		_ = ctx.AddLog(fmt.Sprintf("Program %s success", instruction.ProgramID.String()))
	}

	ctx.ProgramID = callerProgramID
	ctx.Accounts = callerAccounts
	ctx.accountIndex = callerIndex
	ctx.InstructionData = callerData
	ctx.pre = callerPre
	ctx.PopCaller()

	if err != nil {
		return err
	}

	ctx.propagateAccountChanges(calleeAccounts)
	// The callee's verified results become the caller's new baseline.
	ctx.BeginFrame()
	return nil
}

// verifyPDASigners derives the address for every signer and requires it to
// be passed as a signer in the instruction.
func (ctx *ExecutionContext) verifyPDASigners(instruction *types.Instruction, signers []CPISignerSeeds) (map[types.Pubkey]bool, error) {
	if len(signers) > MaxCPISignerSeeds {
		return nil, fmt.Errorf("%w: %d signers", ErrCPIInvalidSignerSeeds, len(signers))
	}

	pdaSigners := make(map[types.Pubkey]bool, len(signers))
	for _, seeds := range signers {
		pda, err := CreateProgramAddress(seeds.Seeds, ctx.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCPIInvalidSignerSeeds, err)
		}

		found := false
		for _, meta := range instruction.Accounts {
			if meta.Pubkey == pda && meta.IsSigner {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: PDA %s not found as signer in instruction", ErrCPIPDASignerMismatch, pda.String())
		}

		pdaSigners[pda] = true
	}

	return pdaSigners, nil
}

// resolveAndValidateAccounts builds the callee's account list from the
// caller's accounts. A key listed more than once maps to a single shared
// AccountInfo whose privileges are the union of its metas.
func (ctx *ExecutionContext) resolveAndValidateAccounts(instruction *types.Instruction, pdaSigners map[types.Pubkey]bool) ([]*AccountInfo, error) {
	calleeAccounts := make([]*AccountInfo, len(instruction.Accounts))
	byKey := make(map[types.Pubkey]*AccountInfo, len(instruction.Accounts))

	for i, meta := range instruction.Accounts {
		callerAcc, err := ctx.GetAccount(meta.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCPIAccountNotFound, meta.Pubkey.String())
		}

		if meta.IsWritable && !callerAcc.IsWritable {
			return nil, fmt.Errorf("%w: account %s", ErrCPIWritablePrivilege, meta.Pubkey.String())
		}
		if meta.IsSigner && !callerAcc.IsSigner && !pdaSigners[meta.Pubkey] {
			return nil, fmt.Errorf("%w: account %s", ErrCPISignerPrivilege, meta.Pubkey.String())
		}

		acc, ok := byKey[meta.Pubkey]
		if !ok {
			acc = callerAcc.Clone()
			acc.IsSigner = false
			acc.IsWritable = false
			byKey[meta.Pubkey] = acc
		}
		acc.IsSigner = acc.IsSigner || meta.IsSigner
		acc.IsWritable = acc.IsWritable || meta.IsWritable
		calleeAccounts[i] = acc
	}

	return calleeAccounts, nil
}

// propagateAccountChanges copies the callee's view of writable accounts
// back into the caller's accounts.
func (ctx *ExecutionContext) propagateAccountChanges(calleeAccounts []*AccountInfo) {
	for _, calleeAcc := range calleeAccounts {
		if !calleeAcc.IsWritable {
			continue
		}
		callerAcc, err := ctx.GetAccount(calleeAcc.Pubkey)
		if err != nil {
			continue
		}

		*callerAcc.Lamports = *calleeAcc.Lamports
		callerAcc.Owner = calleeAcc.Owner
		callerAcc.Executable = calleeAcc.Executable
		if calleeAcc.Data == nil {
			callerAcc.Data = nil
		} else {
			callerAcc.Data = make([]byte, len(calleeAcc.Data))
			copy(callerAcc.Data, calleeAcc.Data)
		}
	}
}
