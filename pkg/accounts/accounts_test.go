package accounts

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	return types.Pubkey(types.SHA256([]byte(seed)))
}

func testAccount(lamports types.Lamports, data []byte, owner types.Pubkey) *types.Account {
	return &types.Account{Lamports: lamports, Data: data, Owner: owner}
}

// backends opens a fresh store of every kind.
func backends(t *testing.T) map[string]AccountsDB {
	t.Helper()
	badgerDB, err := NewBadgerDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerDB: %v", err)
	}
	cached, err := NewCachedDB(NewMemoryDB(), 8)
	if err != nil {
		t.Fatalf("NewCachedDB: %v", err)
	}
	stores := map[string]AccountsDB{
		"memory": NewMemoryDB(),
		"badger": badgerDB,
		"cached": cached,
	}
	t.Cleanup(func() {
		for _, db := range stores {
			db.Close()
		}
	})
	return stores
}

func TestStoreCRUD(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			pk := testPubkey("crud")
			if got, err := db.GetAccount(pk); err != nil || got != nil {
				t.Fatalf("absent account: got %v, %v", got, err)
			}
			if db.HasAccount(pk) {
				t.Error("HasAccount true before SetAccount")
			}

			if err := db.SetAccount(pk, testAccount(1_000, []byte("v1"), types.SystemProgramID)); err != nil {
				t.Fatalf("SetAccount: %v", err)
			}
			if err := db.SetAccount(pk, testAccount(2_000, []byte("v2"), types.TokenProgramID)); err != nil {
				t.Fatalf("SetAccount: %v", err)
			}
			got, err := db.GetAccount(pk)
			if err != nil || got == nil {
				t.Fatalf("GetAccount: %v, %v", got, err)
			}
			if got.Lamports != 2_000 || string(got.Data) != "v2" || got.Owner != types.TokenProgramID {
				t.Errorf("overwrite not visible: %+v", got)
			}
			if n := db.GetAccountsCount(); n != 1 {
				t.Errorf("count after overwrite = %d", n)
			}

			for i := 0; i < 2; i++ {
				if err := db.DeleteAccount(pk); err != nil {
					t.Fatalf("DeleteAccount #%d: %v", i, err)
				}
			}
			if db.HasAccount(pk) || db.GetAccountsCount() != 0 {
				t.Error("account survived DeleteAccount")
			}
		})
	}
}

func TestStoreIsolatesCallers(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			pk := testPubkey("isolated")
			data := []byte("original")
			_ = db.SetAccount(pk, testAccount(1, data, types.SystemProgramID))
			data[0] = 'X'

			got, _ := db.GetAccount(pk)
			if got.Data[0] != 'o' {
				t.Fatal("caller's slice aliased stored data")
			}
			got.Data[0] = 'Y'
			again, _ := db.GetAccount(pk)
			if again.Data[0] != 'o' {
				t.Error("returned account aliased stored data")
			}
		})
	}
}

func TestStoreForEach(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				_ = db.SetAccount(testPubkey(fmt.Sprint("each-", i)), testAccount(types.Lamports(i), nil, types.SystemProgramID))
			}

			var seen []types.Pubkey
			err := db.ForEach(func(pk types.Pubkey, _ *types.Account) error {
				seen = append(seen, pk)
				return nil
			})
			if err != nil || len(seen) != 20 {
				t.Fatalf("ForEach saw %d accounts, err %v", len(seen), err)
			}
			for i := 1; i < len(seen); i++ {
				if bytes.Compare(seen[i-1][:], seen[i][:]) >= 0 {
					t.Fatal("ForEach is not in pubkey order")
				}
			}

			stop := errors.New("stop")
			calls := 0
			err = db.ForEach(func(types.Pubkey, *types.Account) error {
				calls++
				return stop
			})
			if !errors.Is(err, stop) || calls != 1 {
				t.Errorf("ForEach returned %v after %d calls", err, calls)
			}
		})
	}
}

func TestMemoryDB_Concurrent(t *testing.T) {
	db := NewMemoryDB()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		pk := testPubkey(fmt.Sprint("concurrent-", i))
		go func(i int) {
			defer wg.Done()
			_ = db.SetAccount(pk, testAccount(types.Lamports(i), nil, types.SystemProgramID))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = db.GetAccount(pk)
		}()
	}
	wg.Wait()
	if n := db.GetAccountsCount(); n != 100 {
		t.Errorf("expected 100 accounts, got %d", n)
	}

	if err := db.Close(); err != nil || db.GetAccountsCount() != 0 {
		t.Errorf("Close left %d accounts, err %v", db.GetAccountsCount(), err)
	}
}

func TestBadgerDB_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadgerDB(dir)
	if err != nil {
		t.Fatalf("NewBadgerDB: %v", err)
	}
	pk := testPubkey("persisted")
	if err := db.SetAccount(pk, testAccount(42, []byte{1, 2, 3}, types.TetherProgramID)); err != nil {
		t.Fatalf("SetAccount: %v", err)
	}
	_ = db.SetAccount(testPubkey("other"), testAccount(1, nil, types.SystemProgramID))
	_ = db.DeleteAccount(testPubkey("other"))
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = NewBadgerDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if n := db.GetAccountsCount(); n != 1 {
		t.Errorf("count after reopen = %d", n)
	}
	got, err := db.GetAccount(pk)
	if err != nil || got == nil || got.Lamports != 42 || !bytes.Equal(got.Data, []byte{1, 2, 3}) {
		t.Errorf("account after reopen: %+v, %v", got, err)
	}
}

func TestSerializeAccount_RoundTrip(t *testing.T) {
	account := &types.Account{
		Lamports:   7,
		Data:       []byte("record"),
		Owner:      types.TetherProgramID,
		Executable: true,
		RentEpoch:  3,
	}
	data, err := SerializeAccount(account)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DeserializeAccount(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Lamports != 7 || !decoded.Executable || decoded.RentEpoch != 3 || decoded.Owner != types.TetherProgramID {
		t.Errorf("unexpected account: %+v", decoded)
	}
	if string(decoded.Data) != "record" {
		t.Errorf("data = %q", decoded.Data)
	}
	if len(data) != StoredHeaderSize+len("record") {
		t.Errorf("encoded %d bytes", len(data))
	}

	bad := map[string][]byte{
		"short":    data[:10],
		"trailing": append(append([]byte(nil), data...), 0),
		"version":  append([]byte{9}, data[1:]...),
	}
	for name, b := range bad {
		if _, err := DeserializeAccount(b); !errors.Is(err, ErrInvalidAccountData) {
			t.Errorf("%s: expected ErrInvalidAccountData, got %v", name, err)
		}
	}
	if _, err := SerializeAccount(nil); err == nil {
		t.Error("nil account should not serialize")
	}
}

func TestComputeAccountsHash_Empty(t *testing.T) {
	hash, err := ComputeAccountsHash(NewMemoryDB())
	if err != nil {
		t.Fatal(err)
	}
	if hash != types.ZeroHash {
		t.Error("empty store should produce zero hash")
	}
}

func TestComputeAccountsHash_SingleAccount(t *testing.T) {
	db := NewMemoryDB()
	pubkey := testPubkey("single")
	account := testAccount(1000, []byte("data"), types.SystemProgramID)
	_ = db.SetAccount(pubkey, account)

	hash, err := ComputeAccountsHash(db)
	if err != nil {
		t.Fatal(err)
	}
	leaf, _ := AccountHash(pubkey, account)
	if hash != leaf {
		t.Error("single account hash should equal its leaf hash")
	}
}

func TestComputeAccountsHash_InsertionOrder(t *testing.T) {
	a, b := NewMemoryDB(), NewMemoryDB()
	for i := 0; i < 40; i++ {
		_ = a.SetAccount(testPubkey(string(rune('A'+i))), testAccount(types.Lamports(i), nil, types.SystemProgramID))
	}
	for i := 39; i >= 0; i-- {
		_ = b.SetAccount(testPubkey(string(rune('A'+i))), testAccount(types.Lamports(i), nil, types.SystemProgramID))
	}

	ha, _ := ComputeAccountsHash(a)
	hb, _ := ComputeAccountsHash(b)
	if ha != hb {
		t.Error("hash should not depend on insertion order")
	}

	_ = b.SetAccount(testPubkey("A"), testAccount(1_000, nil, types.SystemProgramID))
	hb, _ = ComputeAccountsHash(b)
	if ha == hb {
		t.Error("changing lamports should change the hash")
	}
}

func TestMerkleRoot_17Leaves(t *testing.T) {
	hashes := make([]types.Hash, 17)
	for i := range hashes {
		hashes[i] = types.SHA256([]byte{byte(i)})
	}

	concat := func(hs []types.Hash) []byte {
		var buf []byte
		for _, h := range hs {
			buf = append(buf, h[:]...)
		}
		return buf
	}
	first := types.SHA256(concat(hashes[:16]))
	expected := types.SHA256(concat([]types.Hash{first, hashes[16]}))
	if merkleRoot(hashes) != expected {
		t.Error("17 leaves should fold into two children at the second level")
	}
	if merkleRoot(hashes[:1]) != hashes[0] {
		t.Error("a single leaf is its own root")
	}
}

func BenchmarkMemoryDB_SetAccount(b *testing.B) {
	db := NewMemoryDB()
	account := testAccount(1000, make([]byte, 165), types.TokenProgramID)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = db.SetAccount(testPubkey(string(rune(i%1000))), account)
	}
}

func TestCachedDB(t *testing.T) {
	backing := NewMemoryDB()
	db, err := NewCachedDB(backing, 2)
	if err != nil {
		t.Fatalf("NewCachedDB: %v", err)
	}
	owner := testPubkey("owner")
	a, b, c := testPubkey("a"), testPubkey("b"), testPubkey("c")

	for i, pk := range []types.Pubkey{a, b, c} {
		if err := db.SetAccount(pk, testAccount(types.Lamports(i+1), []byte{byte(i)}, owner)); err != nil {
			t.Fatalf("SetAccount: %v", err)
		}
	}
	if db.Len() != 2 {
		t.Errorf("cache holds %d accounts, want 2", db.Len())
	}
	if backing.GetAccountsCount() != 3 {
		t.Errorf("backing store holds %d accounts, want 3", backing.GetAccountsCount())
	}

	got, err := db.GetAccount(a)
	if err != nil || got == nil || got.Lamports != 1 {
		t.Fatalf("evicted account not reloaded: %v %v", got, err)
	}
	got.Data[0] = 0xAA
	again, _ := db.GetAccount(a)
	if again.Data[0] != 0 {
		t.Error("cached account was modified through a returned copy")
	}

	missing, err := db.GetAccount(testPubkey("missing"))
	if err != nil || missing != nil {
		t.Errorf("missing account: got %v, %v", missing, err)
	}

	if err := db.DeleteAccount(a); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if db.HasAccount(a) || backing.HasAccount(a) {
		t.Error("deleted account still present")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, err := NewCachedDB(backing, 0); err == nil {
		t.Error("zero cache size should be rejected")
	}
}
