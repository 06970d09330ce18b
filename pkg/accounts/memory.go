package accounts

import (
	"bytes"
	"sort"
	"sync"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// MemoryDB keeps accounts in a map. It backs throwaway ledgers, tests and
// snapshot staging. Accounts are cloned on the way in and out.
type MemoryDB struct {
	mu       sync.RWMutex
	accounts map[types.Pubkey]*types.Account
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{accounts: make(map[types.Pubkey]*types.Account)}
}

func (db *MemoryDB) GetAccount(pubkey types.Pubkey) (*types.Account, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.accounts[pubkey].Clone(), nil
}

func (db *MemoryDB) SetAccount(pubkey types.Pubkey, account *types.Account) error {
	db.mu.Lock()
	db.accounts[pubkey] = account.Clone()
	db.mu.Unlock()
	return nil
}

func (db *MemoryDB) DeleteAccount(pubkey types.Pubkey) error {
	db.mu.Lock()
	delete(db.accounts, pubkey)
	db.mu.Unlock()
	return nil
}

func (db *MemoryDB) HasAccount(pubkey types.Pubkey) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.accounts[pubkey]
	return ok
}

func (db *MemoryDB) GetAccountsCount() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return uint64(len(db.accounts))
}

// ForEach visits a sorted copy of the key set without holding the lock,
// so fn may write back into the store. Accounts deleted meanwhile are
// skipped.
func (db *MemoryDB) ForEach(fn func(pubkey types.Pubkey, account *types.Account) error) error {
	db.mu.RLock()
	keys := make([]types.Pubkey, 0, len(db.accounts))
	for pk := range db.accounts {
		keys = append(keys, pk)
	}
	db.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	for _, pk := range keys {
		account, _ := db.GetAccount(pk)
		if account == nil {
			continue
		}
		if err := fn(pk, account); err != nil {
			return err
		}
	}
	return nil
}

// Close drops every account.
func (db *MemoryDB) Close() error {
	db.mu.Lock()
	db.accounts = make(map[types.Pubkey]*types.Account)
	db.mu.Unlock()
	return nil
}

var _ AccountsDB = (*MemoryDB)(nil)
