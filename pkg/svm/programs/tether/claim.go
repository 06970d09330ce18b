package tether

import (
	"fmt"
	"math/bits"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Reward percentages of the stake.
const (
	WinnerPercent      uint64 = 25
	ParticipantPercent uint64 = 5
)

// RewardDecimals is the precision MintToChecked asserts for the mint.
const RewardDecimals uint8 = 6

// Reward returns percent of stake, rounded down. The multiplication must
// not overflow 64 bits.
func Reward(stake uint64, isWinner bool) (uint64, error) {
	percent := ParticipantPercent
	if isWinner {
		percent = WinnerPercent
	}
	hi, lo := bits.Mul64(percent, stake)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d%% of %d", ErrWriteOverflow, percent, stake)
	}
	return lo / 100, nil
}

// claim settles and closes a position.
// Account layout:
//
//	[0] signer (signer, writable)
//	[1] participant record (writable)
//	[2] signer's associated token account (writable)
//	[3] mint (writable)
//	[4] mint authority
//	[5] token program
//	[6] system program
func (p *Program) claim(ctx *syscall.ExecutionContext, data []byte) error {
	accs, err := accounts(ctx, 7)
	if err != nil {
		return err
	}
	signer, participant, ata, mint, mintAuthority, tokenProgram, systemProgram := accs[0], accs[1], accs[2], accs[3], accs[4], accs[5], accs[6]

	records := ParticipantAccount{ProgramID: p.ProgramID}
	if err := (SignerAccount{}).Check(signer); err != nil {
		return err
	}
	if err := records.Check(participant); err != nil {
		return err
	}
	if err := (AssociatedTokenAccount{}).Check(ctx, ata, signer, mint); err != nil {
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

	var args ClaimData
	if err := args.Decode(data); err != nil {
		return err
	}

	record, err := LoadParticipant(participant.Data)
	if err != nil {
		return err
	}
	if record.Key() != signer.Pubkey {
		return fmt.Errorf("%w: %s cannot claim for %s", ErrInvalidAddress, signer.Pubkey.String(), record.Key().String())
	}
	if ctx.UnixTimestamp < record.ActiveTime() {
		return fmt.Errorf("%w: active at %d, now %d", ErrNotActive, record.ActiveTime(), ctx.UnixTimestamp)
	}

	amount, err := Reward(record.Stake(), args.IsWinner)
	if err != nil {
		return err
	}

	authoritySeeds := [][]byte{MintSeed, mint.Pubkey[:], {args.MintBump}}
	if err := ctx.ConsumeComputeUnits(uint64(types.ComputeUnitsPerPDAAttempt)); err != nil {
		return err
	}
	authority, err := syscall.CreateProgramAddress(authoritySeeds, p.ProgramID)
	if err != nil {
		return fmt.Errorf("%w: mint bump %d: %v", ErrPdaMismatch, args.MintBump, err)
	}
	if authority != mintAuthority.Pubkey {
		return fmt.Errorf("%w: mint authority %s, expected %s", ErrInvalidAddress, mintAuthority.Pubkey.String(), authority.String())
	}

	mintTo := token.MintToChecked(TokenProgramID, mint.Pubkey, ata.Pubkey, authority, amount, RewardDecimals)
	if err := ctx.InvokeSigned(mintTo, syscall.Signer(authoritySeeds...)); err != nil {
		return err
	}
	ctx.Log("Claimed %d", amount)

	return records.Close(ctx, participant, signer)
}
