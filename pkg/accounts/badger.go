package accounts

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// keyPrefix namespaces account records inside the badger keyspace.
var keyPrefix = []byte("acct/")

// BadgerDB stores accounts on disk. Values use the storage encoding of
// SerializeAccount.
type BadgerDB struct {
	db    *badger.DB
	count atomic.Uint64
}

// NewBadgerDB opens or creates a store in dir.
func NewBadgerDB(dir string) (*BadgerDB, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	bdb := &BadgerDB{db: db}

	var n uint64
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	bdb.count.Store(n)
	return bdb, nil
}

func accountKey(pubkey types.Pubkey) []byte {
	return append(append(make([]byte, 0, len(keyPrefix)+len(pubkey)), keyPrefix...), pubkey[:]...)
}

func decodeItem(item *badger.Item) (*types.Account, error) {
	var account *types.Account
	err := item.Value(func(val []byte) (err error) {
		account, err = DeserializeAccount(val)
		return err
	})
	return account, err
}

// exists reports whether key is present inside txn.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (db *BadgerDB) GetAccount(pubkey types.Pubkey) (*types.Account, error) {
	var account *types.Account
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(pubkey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		account, err = decodeItem(item)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", pubkey, err)
	}
	return account, nil
}

func (db *BadgerDB) SetAccount(pubkey types.Pubkey, account *types.Account) error {
	data, err := SerializeAccount(account)
	if err != nil {
		return fmt.Errorf("failed to serialize account %s: %w", pubkey, err)
	}
	key := accountKey(pubkey)
	var added bool
	err = db.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		added = !found
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to set account %s: %w", pubkey, err)
	}
	if added {
		db.count.Add(1)
	}
	return nil
}

// DeleteAccount removes pubkey. Deleting an absent account is a no-op.
func (db *BadgerDB) DeleteAccount(pubkey types.Pubkey) error {
	key := accountKey(pubkey)
	var removed bool
	err := db.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil || !found {
			return err
		}
		removed = true
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", pubkey, err)
	}
	if removed {
		db.count.Add(^uint64(0))
	}
	return nil
}

func (db *BadgerDB) HasAccount(pubkey types.Pubkey) bool {
	var found bool
	_ = db.db.View(func(txn *badger.Txn) (err error) {
		found, err = exists(txn, accountKey(pubkey))
		return err
	})
	return found
}

func (db *BadgerDB) GetAccountsCount() uint64 {
	return db.count.Load()
}

// ForEach walks the keyspace in order. Keys share a fixed prefix, so this
// is pubkey order.
func (db *BadgerDB) ForEach(fn func(pubkey types.Pubkey, account *types.Account) error) error {
	return db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var pubkey types.Pubkey
			copy(pubkey[:], it.Item().Key()[len(keyPrefix):])
			account, err := decodeItem(it.Item())
			if err != nil {
				return fmt.Errorf("failed to read account %s: %w", pubkey, err)
			}
			if err := fn(pubkey, account); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *BadgerDB) Close() error {
	return db.db.Close()
}

var _ AccountsDB = (*BadgerDB)(nil)
