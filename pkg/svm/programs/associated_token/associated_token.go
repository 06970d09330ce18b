// Package associated_token implements the native associated token account
// program: deterministic per-(wallet, mint) token accounts created on
// demand by any payer.
package associated_token

import (
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/system"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Instruction discriminators. Empty instruction data means Create.
const (
	InstructionCreate           uint8 = 0
	InstructionCreateIdempotent uint8 = 1
)

// ComputeUnits charged per instruction, excluding nested invocations.
const ComputeUnits = 3_000

var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrNotEnoughAccountKeys   = errors.New("not enough account keys")
	ErrInvalidSeeds           = errors.New("associated address does not match seed derivation")
	ErrInvalidOwner           = errors.New("invalid account owner")
	ErrAccountAlreadyExists   = errors.New("associated token account already exists")
	ErrInvalidProgramID       = errors.New("invalid program id")
)

// Program implements the associated token account program.
type Program struct {
	ProgramID types.Pubkey
}

// New creates the program at its canonical address.
func New() *Program {
	return &Program{ProgramID: types.AssociatedTokenProgramID}
}

// Execute handles Create and CreateIdempotent.
// Account layout:
//   [0] funding account (signer, writable)
//   [1] associated token account (writable)
//   [2] wallet
//   [3] mint
//   [4] system program
//   [5] token program
func (p *Program) Execute(ctx *syscall.ExecutionContext) error {
	if err := ctx.ConsumeComputeUnits(ComputeUnits); err != nil {
		return err
	}

	idempotent := false
	if len(ctx.InstructionData) > 0 {
		switch ctx.InstructionData[0] {
		case InstructionCreate:
		case InstructionCreateIdempotent:
			idempotent = true
		default:
			return fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstructionData, ctx.InstructionData[0])
		}
	}

	if ctx.AccountCount() < 6 {
		return fmt.Errorf("%w: need 6, got %d", ErrNotEnoughAccountKeys, ctx.AccountCount())
	}
	accounts := make([]*syscall.AccountInfo, 6)
	for i := range accounts {
		acc, err := ctx.GetAccountByIndex(i)
		if err != nil {
			return err
		}
		accounts[i] = acc
	}
	funding, ata, wallet, mint, systemProgram, tokenProgram := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4], accounts[5]

	if idempotent {
		ctx.Log("CreateIdempotent")
	} else {
		ctx.Log("Create")
	}

	if systemProgram.Pubkey != types.SystemProgramID {
		return fmt.Errorf("%w: system program %s", ErrInvalidProgramID, systemProgram.Pubkey.String())
	}
	if !tokenProgram.Pubkey.IsTokenProgram() {
		return fmt.Errorf("%w: token program %s", ErrInvalidProgramID, tokenProgram.Pubkey.String())
	}

	seeds := [][]byte{wallet.Pubkey[:], tokenProgram.Pubkey[:], mint.Pubkey[:]}
	expected, bump, err := syscall.FindProgramAddress(seeds, p.ProgramID, ctx)
	if err != nil {
		return err
	}
	if expected != ata.Pubkey {
		ctx.Log("Error: Associated address does not match seed derivation")
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidSeeds, expected.String(), ata.Pubkey.String())
	}

	if idempotent && ata.IsOwnedBy(tokenProgram.Pubkey) {
		existing, err := token.DeserializeTokenAccount(ata.Data)
		if err == nil && existing.State != token.AccountStateUninitialized &&
			existing.Owner == wallet.Pubkey && existing.Mint == mint.Pubkey {
			return nil
		}
	}

	if !ata.IsOwnedBy(types.SystemProgramID) || *ata.Lamports > 0 || len(ata.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, ata.Pubkey.String())
	}
	if !mint.IsOwnedBy(tokenProgram.Pubkey) {
		return fmt.Errorf("%w: mint owned by %s", ErrInvalidOwner, mint.Owner.String())
	}

	space := uint64(token.TokenAccountSize)
	create := system.CreateAccount(funding.Pubkey, ata.Pubkey, ctx.MinimumBalance(space), space, tokenProgram.Pubkey)
	signer := syscall.Signer(wallet.Pubkey[:], tokenProgram.Pubkey[:], mint.Pubkey[:], []byte{bump})
	if err := ctx.InvokeSigned(create, signer); err != nil {
		return err
	}

	ctx.Log("Initialize the associated token account")
	return ctx.Invoke(token.InitializeAccount3(tokenProgram.Pubkey, ata.Pubkey, mint.Pubkey, wallet.Pubkey))
}

// GetProgramID returns the program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}

// Create builds a Create instruction for wallet's account of mint.
func Create(funding, wallet, mint, tokenProgram types.Pubkey) (*types.Instruction, error) {
	return build(InstructionCreate, funding, wallet, mint, tokenProgram)
}

// CreateIdempotent builds a CreateIdempotent instruction, which succeeds
// when the account already exists for wallet and mint.
func CreateIdempotent(funding, wallet, mint, tokenProgram types.Pubkey) (*types.Instruction, error) {
	return build(InstructionCreateIdempotent, funding, wallet, mint, tokenProgram)
}

// CreateWithAddress builds a Create instruction for a caller-supplied
// account address. The program rejects it unless ata is the derived one.
func CreateWithAddress(funding, ata, wallet, mint, tokenProgram types.Pubkey) *types.Instruction {
	return instruction(InstructionCreate, funding, ata, wallet, mint, tokenProgram)
}

func build(discriminator uint8, funding, wallet, mint, tokenProgram types.Pubkey) (*types.Instruction, error) {
	ata, _, err := syscall.DeriveAssociatedTokenAddress(wallet, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	return instruction(discriminator, funding, ata, wallet, mint, tokenProgram), nil
}

func instruction(discriminator uint8, funding, ata, wallet, mint, tokenProgram types.Pubkey) *types.Instruction {
	return &types.Instruction{
		ProgramID: types.AssociatedTokenProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(funding, true, true),
			types.NewAccountMeta(ata, false, true),
			types.NewAccountMeta(wallet, false, false),
			types.NewAccountMeta(mint, false, false),
			types.NewAccountMeta(types.SystemProgramID, false, false),
			types.NewAccountMeta(tokenProgram, false, false),
		},
		Data: []byte{discriminator},
	}
}
