package accounts

import "github.com/Devansh-Aage/Tether/pkg/types"

// fanout is the number of children hashed into each inner node.
const fanout = 16

// AccountHash is the leaf hash of one stored account.
func AccountHash(pubkey types.Pubkey, account *types.Account) (types.Hash, error) {
	data, err := SerializeAccount(account)
	if err != nil {
		return types.ZeroHash, err
	}
	return types.SHA256Multi(pubkey[:], data), nil
}

// ComputeAccountsHash returns the 16-ary Merkle root over every account
// in db, taken in pubkey order. An empty store hashes to ZeroHash.
func ComputeAccountsHash(db AccountsDB) (types.Hash, error) {
	var level []types.Hash
	err := db.ForEach(func(pubkey types.Pubkey, account *types.Account) error {
		h, err := AccountHash(pubkey, account)
		level = append(level, h)
		return err
	})
	if err != nil {
		return types.ZeroHash, err
	}
	return merkleRoot(level), nil
}

// merkleRoot folds hashes fanout at a time until one remains. A lone
// trailing child is promoted unhashed.
func merkleRoot(level []types.Hash) types.Hash {
	if len(level) == 0 {
		return types.ZeroHash
	}
	for len(level) > 1 {
		next := level[:0:0]
		for start := 0; start < len(level); start += fanout {
			group := level[start:min(start+fanout, len(level))]
			if len(group) == 1 {
				next = append(next, group[0])
				continue
			}
			buf := make([]byte, 0, len(group)*len(types.Hash{}))
			for _, h := range group {
				buf = append(buf, h[:]...)
			}
			next = append(next, types.SHA256(buf))
		}
		level = next
	}
	return level[0]
}
