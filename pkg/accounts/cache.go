package accounts

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// DefaultCacheSize is the number of accounts CachedDB keeps by default.
const DefaultCacheSize = 4096

// CachedDB keeps recently read and written accounts in an LRU in front of
// another AccountsDB. Writes go through to the backing store first.
type CachedDB struct {
	AccountsDB
	cache *lru.Cache
}

// NewCachedDB wraps db with an LRU of size accounts.
func NewCachedDB(db AccountsDB, size int) (*CachedDB, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedDB{AccountsDB: db, cache: cache}, nil
}

// GetAccount returns a copy of the cached account, loading it on a miss.
// Absent accounts are not cached.
func (c *CachedDB) GetAccount(pubkey types.Pubkey) (*types.Account, error) {
	if v, ok := c.cache.Get(pubkey); ok {
		return v.(*types.Account).Clone(), nil
	}
	account, err := c.AccountsDB.GetAccount(pubkey)
	if err != nil || account == nil {
		return account, err
	}
	c.cache.Add(pubkey, account.Clone())
	return account, nil
}

// SetAccount writes through and caches a copy of account.
func (c *CachedDB) SetAccount(pubkey types.Pubkey, account *types.Account) error {
	if err := c.AccountsDB.SetAccount(pubkey, account); err != nil {
		c.cache.Remove(pubkey)
		return err
	}
	c.cache.Add(pubkey, account.Clone())
	return nil
}

// DeleteAccount removes the account from the cache and the backing store.
func (c *CachedDB) DeleteAccount(pubkey types.Pubkey) error {
	c.cache.Remove(pubkey)
	return c.AccountsDB.DeleteAccount(pubkey)
}

// HasAccount answers from the cache when it can.
func (c *CachedDB) HasAccount(pubkey types.Pubkey) bool {
	if c.cache.Contains(pubkey) {
		return true
	}
	return c.AccountsDB.HasAccount(pubkey)
}

// Len returns the number of cached accounts.
func (c *CachedDB) Len() int {
	return c.cache.Len()
}

// Close drops the cache and closes the backing store.
func (c *CachedDB) Close() error {
	c.cache.Purge()
	return c.AccountsDB.Close()
}
