package token

import (
	"fmt"
	"math/bits"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
)

// owned fetches the account at index and checks that p owns it.
func (p *Program) owned(ctx *syscall.ExecutionContext, index int, role string, writable bool) (*syscall.AccountInfo, error) {
	acc, err := ctx.GetAccountByIndex(index)
	if err != nil {
		return nil, err
	}
	if writable && !acc.IsWritable {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotWritable, role)
	}
	if !acc.IsOwnedBy(p.ProgramID) {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrInvalidAccountOwner, role, acc.Owner)
	}
	return acc, nil
}

// holding loads an initialized, unfrozen token account.
func (p *Program) holding(ctx *syscall.ExecutionContext, index int, role string) (*syscall.AccountInfo, *TokenAccount, error) {
	acc, err := p.owned(ctx, index, role, true)
	if err != nil {
		return nil, nil, err
	}
	state, err := DeserializeTokenAccount(acc.Data)
	switch {
	case err != nil:
		return nil, nil, fmt.Errorf("%s: %w", role, err)
	case state.State == AccountStateUninitialized:
		return nil, nil, fmt.Errorf("%s: %w", role, ErrNotInitialized)
	case state.IsFrozen():
		return nil, nil, fmt.Errorf("%s: %w", role, ErrAccountFrozen)
	}
	return acc, state, nil
}

// blank checks that acc is exactly size bytes, still uninitialized and
// rent exempt.
func blank(ctx *syscall.ExecutionContext, acc *syscall.AccountInfo, size int, initialized func() (bool, error)) error {
	if len(acc.Data) != size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccountData, size, len(acc.Data))
	}
	done, err := initialized()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if *acc.Lamports < ctx.MinimumBalance(uint64(size)) {
		return ErrNotRentExempt
	}
	return nil
}

func (p *Program) initializeMint(ctx *syscall.ExecutionContext, inst *Instruction) error {
	mintAcc, err := p.owned(ctx, 0, "mint", true)
	if err != nil {
		return err
	}
	err = blank(ctx, mintAcc, MintSize, func() (bool, error) {
		m, err := DeserializeMint(mintAcc.Data)
		return err == nil && m.IsInitialized, err
	})
	if err != nil {
		return err
	}
	copy(mintAcc.Data, NewMint(inst.Decimals, inst.Authority, inst.FreezeAuthority).Serialize())
	return nil
}

func (p *Program) initializeAccount(ctx *syscall.ExecutionContext, inst *Instruction) error {
	acc, err := p.owned(ctx, 0, "token account", true)
	if err != nil {
		return err
	}
	mintAcc, err := p.owned(ctx, 1, "mint", false)
	if err != nil {
		return err
	}
	err = blank(ctx, acc, TokenAccountSize, func() (bool, error) {
		a, err := DeserializeTokenAccount(acc.Data)
		return err == nil && a.State != AccountStateUninitialized, err
	})
	if err != nil {
		return err
	}
	if mint, err := DeserializeMint(mintAcc.Data); err != nil || !mint.IsInitialized {
		return fmt.Errorf("%w: %s", ErrInvalidMint, mintAcc.Pubkey)
	}
	copy(acc.Data, NewTokenAccount(mintAcc.Pubkey, inst.Authority).Serialize())
	return nil
}

// transfer moves tokens on the authority of the source owner or its
// delegate. A self transfer only validates.
func (p *Program) transfer(ctx *syscall.ExecutionContext, inst *Instruction) error {
	srcAcc, src, err := p.holding(ctx, 0, "source")
	if err != nil {
		return err
	}
	dstAcc, dst, err := p.holding(ctx, 1, "destination")
	if err != nil {
		return err
	}
	authority, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}

	byOwner := src.Owner == authority.Pubkey
	if !byOwner && !(src.Delegate.IsSome && src.Delegate.Value == authority.Pubkey) {
		return ErrOwnerMismatch
	}
	if !authority.IsSigner {
		return fmt.Errorf("%w: authority", ErrAccountNotSigner)
	}
	limit := src.Amount
	if !byOwner {
		limit = src.DelegatedAmount
	}
	if inst.Amount > limit {
		return ErrInsufficientFunds
	}
	if srcAcc.Pubkey == dstAcc.Pubkey {
		return nil
	}

	credited, carry := bits.Add64(dst.Amount, inst.Amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	src.Amount -= inst.Amount
	if !byOwner {
		src.DelegatedAmount -= inst.Amount
	}
	dst.Amount = credited
	copy(srcAcc.Data, src.Serialize())
	copy(dstAcc.Data, dst.Serialize())
	return nil
}

// mintTo serves MintTo and MintToChecked.
func (p *Program) mintTo(ctx *syscall.ExecutionContext, inst *Instruction) error {
	mintAcc, err := p.owned(ctx, 0, "mint", true)
	if err != nil {
		return err
	}
	mint, err := DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if !mint.IsInitialized {
		return fmt.Errorf("mint: %w", ErrNotInitialized)
	}
	if inst.Kind == KindMintToChecked && mint.Decimals != inst.Decimals {
		return fmt.Errorf("%w: mint has %d, instruction says %d", ErrDecimalsMismatch, mint.Decimals, inst.Decimals)
	}

	dstAcc, dst, err := p.holding(ctx, 1, "destination")
	if err != nil {
		return err
	}
	authority, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}
	if dst.Mint != mintAcc.Pubkey {
		return ErrMintMismatch
	}
	switch {
	case !mint.MintAuthority.IsSome:
		return ErrFixedSupply
	case mint.MintAuthority.Value != authority.Pubkey:
		return fmt.Errorf("%w: mint authority is %s, got %s", ErrAuthorityMismatch, mint.MintAuthority.Value, authority.Pubkey)
	case !authority.IsSigner:
		return fmt.Errorf("%w: mint authority", ErrAccountNotSigner)
	}

	supply, carry := bits.Add64(mint.Supply, inst.Amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	balance, carry := bits.Add64(dst.Amount, inst.Amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	mint.Supply, dst.Amount = supply, balance
	copy(mintAcc.Data, mint.Serialize())
	copy(dstAcc.Data, dst.Serialize())
	return nil
}
