package types

import "bytes"

// Account is the stored state behind a pubkey.
type Account struct {
	Lamports   Lamports
	Data       []byte
	Owner      Pubkey
	Executable bool
	RentEpoch  Epoch
}

// NewAccount returns a data-less account.
func NewAccount(lamports Lamports, owner Pubkey) *Account {
	return NewAccountWithData(lamports, nil, owner)
}

func NewAccountWithData(lamports Lamports, data []byte, owner Pubkey) *Account {
	return &Account{Lamports: lamports, Data: data, Owner: owner}
}

// Clone returns a deep copy. Nil stays nil.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = bytes.Clone(a.Data)
	return &c
}

// Rent holds the rent parameters used to compute rent-exempt balances.
type Rent struct {
	LamportsPerByteYear uint64  `yaml:"lamports_per_byte_year" env:"LAMPORTS_PER_BYTE_YEAR"`
	ExemptionThreshold  float64 `yaml:"exemption_threshold" env:"EXEMPTION_THRESHOLD"`
}

// AccountStorageOverhead is the per-account metadata size charged for rent.
const AccountStorageOverhead = 128

// DefaultRent returns mainnet rent parameters.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2.0,
	}
}

// MinimumBalance returns the lamports an account of dataSize bytes needs to
// be rent exempt.
func (r Rent) MinimumBalance(dataSize uint64) Lamports {
	perYear := (dataSize + AccountStorageOverhead) * r.LamportsPerByteYear
	return Lamports(float64(perYear) * r.ExemptionThreshold)
}

// RentExemptMinimum is MinimumBalance under DefaultRent.
func RentExemptMinimum(dataSize uint64) Lamports {
	return DefaultRent().MinimumBalance(dataSize)
}

// AccountMeta is one account reference of an instruction.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

func NewAccountMeta(pubkey Pubkey, isSigner, isWritable bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: isWritable}
}

// AccountDelta records one account a committed transaction changed.
// OldAccount is nil when the account did not exist before.
type AccountDelta struct {
	Pubkey     Pubkey
	OldAccount *Account
	NewAccount *Account
}

// IsCreation reports whether the transaction brought the account into
// existence.
func (d *AccountDelta) IsCreation() bool {
	return d.OldAccount == nil && d.NewAccount != nil
}
