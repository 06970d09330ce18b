package token

import (
	"encoding/binary"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Account state sizes
const (
	// MintSize is the size of a serialized Mint account.
	MintSize = 82

	// TokenAccountSize is the base size of a serialized token account.
	TokenAccountSize = 165
)

// Byte offsets inside a token account.
const (
	tokenAccountMintOffset   = 0
	tokenAccountOwnerOffset  = 32
	tokenAccountAmountOffset = 64
)

// AccountState is the state byte of a token account.
type AccountState uint8

const (
	AccountStateUninitialized AccountState = 0
	AccountStateInitialized   AccountState = 1
	AccountStateFrozen        AccountState = 2
)

// COption is an optional pubkey encoded as a 4-byte tag followed by the
// 32-byte key.
type COption struct {
	IsSome bool
	Value  types.Pubkey
}

// Some returns a populated COption.
func Some(pk types.Pubkey) COption {
	return COption{IsSome: true, Value: pk}
}

// COptionU64 is an optional u64 encoded as a 4-byte tag and 8-byte value.
type COptionU64 struct {
	IsSome bool
	Value  uint64
}

// Mint is a token mint account.
// Layout (82 bytes):
//   mint_authority   COption<Pubkey>  36
//   supply           u64               8
//   decimals         u8                1
//   is_initialized   bool              1
//   freeze_authority COption<Pubkey>  36
type Mint struct {
	MintAuthority   COption
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority COption
}

// TokenAccount is a token holding account.
// Layout (165 bytes):
//   mint             Pubkey           32
//   owner            Pubkey           32
//   amount           u64               8
//   delegate         COption<Pubkey>  36
//   state            u8                1
//   is_native        COption<u64>     12
//   delegated_amount u64               8
//   close_authority  COption<Pubkey>  36
type TokenAccount struct {
	Mint            types.Pubkey
	Owner           types.Pubkey
	Amount          uint64
	Delegate        COption
	State           AccountState
	IsNative        COptionU64
	DelegatedAmount uint64
	CloseAuthority  COption
}

// NewMint creates an initialized mint.
func NewMint(decimals uint8, mintAuthority types.Pubkey, freezeAuthority *types.Pubkey) *Mint {
	mint := &Mint{
		MintAuthority: Some(mintAuthority),
		Decimals:      decimals,
		IsInitialized: true,
	}
	if freezeAuthority != nil {
		mint.FreezeAuthority = Some(*freezeAuthority)
	}
	return mint
}

// NewTokenAccount creates an initialized, empty token account.
func NewTokenAccount(mint, owner types.Pubkey) *TokenAccount {
	return &TokenAccount{
		Mint:  mint,
		Owner: owner,
		State: AccountStateInitialized,
	}
}

// IsFrozen returns true if the account is frozen.
func (a *TokenAccount) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// DeserializeMint decodes a Mint. Data may be longer than MintSize.
func DeserializeMint(data []byte) (*Mint, error) {
	if len(data) < MintSize {
		return nil, fmt.Errorf("%w: mint data too short, expected %d bytes, got %d",
			ErrInvalidAccountData, MintSize, len(data))
	}

	r := reader{buf: data}
	mint := &Mint{}
	mint.MintAuthority = r.option()
	mint.Supply = r.u64()
	mint.Decimals = r.u8()
	mint.IsInitialized = r.u8() != 0
	mint.FreezeAuthority = r.option()
	return mint, nil
}

// Serialize encodes the Mint into MintSize bytes.
func (m *Mint) Serialize() []byte {
	w := writer{buf: make([]byte, MintSize)}
	w.option(m.MintAuthority)
	w.u64(m.Supply)
	w.u8(m.Decimals)
	w.bool(m.IsInitialized)
	w.option(m.FreezeAuthority)
	return w.buf
}

// DeserializeTokenAccount decodes a TokenAccount.
func DeserializeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < TokenAccountSize {
		return nil, fmt.Errorf("%w: token account data too short, expected %d bytes, got %d",
			ErrInvalidAccountData, TokenAccountSize, len(data))
	}

	r := reader{buf: data}
	account := &TokenAccount{}
	account.Mint = r.pubkey()
	account.Owner = r.pubkey()
	account.Amount = r.u64()
	account.Delegate = r.option()
	account.State = AccountState(r.u8())
	account.IsNative = r.optionU64()
	account.DelegatedAmount = r.u64()
	account.CloseAuthority = r.option()
	return account, nil
}

// Serialize encodes the TokenAccount into TokenAccountSize bytes.
func (a *TokenAccount) Serialize() []byte {
	w := writer{buf: make([]byte, TokenAccountSize)}
	w.pubkey(a.Mint)
	w.pubkey(a.Owner)
	w.u64(a.Amount)
	w.option(a.Delegate)
	w.u8(uint8(a.State))
	w.optionU64(a.IsNative)
	w.u64(a.DelegatedAmount)
	w.option(a.CloseAuthority)
	return w.buf
}

// AccountAmount reads the balance of a token account in place.
func AccountAmount(data []byte) (uint64, error) {
	if len(data) < TokenAccountSize {
		return 0, fmt.Errorf("%w: token account data too short", ErrInvalidAccountData)
	}
	return binary.LittleEndian.Uint64(data[tokenAccountAmountOffset:]), nil
}

// AccountMint reads the mint of a token account in place.
func AccountMint(data []byte) (types.Pubkey, error) {
	if len(data) < TokenAccountSize {
		return types.ZeroPubkey, fmt.Errorf("%w: token account data too short", ErrInvalidAccountData)
	}
	return types.PubkeyFromBytes(data[tokenAccountMintOffset:tokenAccountOwnerOffset])
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) pubkey() types.Pubkey {
	var pk types.Pubkey
	copy(pk[:], r.buf[r.off:r.off+32])
	r.off += 32
	return pk
}

func (r *reader) option() COption {
	tag := r.u32()
	pk := r.pubkey()
	if tag != 1 {
		return COption{}
	}
	return Some(pk)
}

func (r *reader) optionU64() COptionU64 {
	tag := r.u32()
	v := r.u64()
	if tag != 1 {
		return COptionU64{}
	}
	return COptionU64{IsSome: true, Value: v}
}

type writer struct {
	buf []byte
	off int
}

func (w *writer) u8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *writer) pubkey(pk types.Pubkey) {
	copy(w.buf[w.off:], pk[:])
	w.off += 32
}

func (w *writer) option(opt COption) {
	if !opt.IsSome {
		w.u32(0)
		w.pubkey(types.ZeroPubkey)
		return
	}
	w.u32(1)
	w.pubkey(opt.Value)
}

func (w *writer) optionU64(opt COptionU64) {
	if !opt.IsSome {
		w.u32(0)
		w.u64(0)
		return
	}
	w.u32(1)
	w.u64(opt.Value)
}
