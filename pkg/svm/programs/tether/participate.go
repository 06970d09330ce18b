package tether

import (
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// participate opens a position.
// Account layout:
//
//	[0] signer (signer, writable)
//	[1] participant record (writable)
//	[2] signer's associated token account (writable)
//	[3] mint (writable)
//	[4] token program
//	[5] system program
func (p *Program) participate(ctx *syscall.ExecutionContext, data []byte) error {
	accs, err := accounts(ctx, 6)
	if err != nil {
		return err
	}
	signer, participant, ata, mint, tokenProgram, systemProgram := accs[0], accs[1], accs[2], accs[3], accs[4], accs[5]

	if err := (SignerAccount{}).Check(signer); err != nil {
		return err
	}
	if err := (MintAccount{}).Check(mint); err != nil {
		return err
	}
	if err := checkProgramAccount(tokenProgram, TokenProgramID); err != nil {
		return err
	}
	if err := checkProgramAccount(systemProgram, types.SystemProgramID); err != nil {
		return err
	}

	var args ParticipateData
	if err := args.Decode(data); err != nil {
		return err
	}

	seeds := participantSeeds(signer.Pubkey, args.Seed)
	address, bump, err := syscall.FindProgramAddress(seeds, p.ProgramID, ctx)
	if err != nil {
		return err
	}
	if address != participant.Pubkey {
		return fmt.Errorf("%w: participant %s, expected %s", ErrInvalidAddress, participant.Pubkey.String(), address.String())
	}

	signerSeeds := append(seeds, []byte{bump})
	if err := (ProgramAccount{ProgramID: p.ProgramID}).Init(ctx, participant, signer, signerSeeds, ParticipantLen); err != nil {
		return err
	}
	if err := (AssociatedTokenAccount{}).InitIfNeeded(ctx, ata, mint, signer, signer); err != nil {
		return err
	}

	balance, err := token.AccountAmount(ata.Data)
	if err != nil {
		return err
	}
	if balance == 0 {
		return fmt.Errorf("%w: token account %s is empty", ErrInsufficientFunds, ata.Pubkey.String())
	}

	record, err := LoadParticipant(participant.Data)
	if err != nil {
		return err
	}
	record.SetInner(balance, args.ActiveTime, signer.Pubkey, bump)
	ctx.Log("Staked %d until %d", balance, args.ActiveTime)
	return nil
}
