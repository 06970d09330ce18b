package bank

import (
	"fmt"
	"math"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Airdrop credits lamports to an address, creating a system account if
// none exists.
func (b *Bank) Airdrop(to types.Pubkey, lamports uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, err := b.db.GetAccount(to)
	if err != nil {
		return err
	}
	if account == nil {
		account = types.NewAccount(0, types.SystemProgramID)
	}
	if account.Executable {
		return fmt.Errorf("%w: %s", ErrProgramAccount, to.String())
	}
	if uint64(account.Lamports) > math.MaxUint64-lamports {
		return fmt.Errorf("%w: %s", ErrLamportsOverflow, to.String())
	}
	account.Lamports += types.Lamports(lamports)
	return b.db.SetAccount(to, account)
}

// MintTo credits amount tokens of mint to owner's associated token
// account, creating it if needed, and raises the mint's supply. It
// bypasses the mint authority and returns the token account's address.
func (b *Bank) MintTo(mint, owner types.Pubkey, amount uint64) (types.Pubkey, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mintAccount, err := b.db.GetAccount(mint)
	if err != nil {
		return types.ZeroPubkey, err
	}
	if mintAccount == nil || !mintAccount.Owner.IsTokenProgram() {
		return types.ZeroPubkey, fmt.Errorf("%w: %s", token.ErrInvalidMint, mint.String())
	}
	tokenProgram := mintAccount.Owner
	state, err := token.DeserializeMint(mintAccount.Data)
	if err != nil {
		return types.ZeroPubkey, err
	}
	if !state.IsInitialized {
		return types.ZeroPubkey, fmt.Errorf("%w: %s", token.ErrNotInitialized, mint.String())
	}
	if state.Supply > math.MaxUint64-amount {
		return types.ZeroPubkey, token.ErrOverflow
	}

	ata, _, err := syscall.DeriveAssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return types.ZeroPubkey, err
	}
	holding, err := b.db.GetAccount(ata)
	if err != nil {
		return types.ZeroPubkey, err
	}

	var balance *token.TokenAccount
	if holding == nil {
		balance = token.NewTokenAccount(mint, owner)
		holding = types.NewAccount(b.rent.MinimumBalance(token.TokenAccountSize), tokenProgram)
	} else {
		if holding.Owner != tokenProgram {
			return types.ZeroPubkey, fmt.Errorf("%w: %s", ErrNotTokenAccount, ata.String())
		}
		if balance, err = token.DeserializeTokenAccount(holding.Data); err != nil {
			return types.ZeroPubkey, err
		}
		if balance.Mint != mint {
			return types.ZeroPubkey, fmt.Errorf("%w: %s", token.ErrMintMismatch, ata.String())
		}
	}
	if balance.Amount > math.MaxUint64-amount {
		return types.ZeroPubkey, token.ErrOverflow
	}

	balance.Amount += amount
	state.Supply += amount
	holding.Data = balance.Serialize()
	mintAccount.Data = state.Serialize()

	if err := b.db.SetAccount(ata, holding); err != nil {
		return types.ZeroPubkey, err
	}
	if err := b.db.SetAccount(mint, mintAccount); err != nil {
		return types.ZeroPubkey, err
	}
	return ata, nil
}
