// Package accounts stores ledger accounts by pubkey. BadgerDB persists
// them, MemoryDB keeps them in process and CachedDB fronts either with an
// LRU cache.
package accounts

import "github.com/Devansh-Aage/Tether/pkg/types"

// AccountsDB is the account store the bank commits to.
type AccountsDB interface {
	// GetAccount returns nil, nil for an absent account.
	GetAccount(pubkey types.Pubkey) (*types.Account, error)
	SetAccount(pubkey types.Pubkey, account *types.Account) error
	DeleteAccount(pubkey types.Pubkey) error
	HasAccount(pubkey types.Pubkey) bool
	GetAccountsCount() uint64

	// ForEach calls fn for every stored account in pubkey order and stops
	// at the first error fn returns.
	ForEach(fn func(pubkey types.Pubkey, account *types.Account) error) error

	Close() error
}
