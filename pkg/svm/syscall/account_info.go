package syscall

import (
	"bytes"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// AccountInfo is a program's view of one instruction account. Lamports is
// a pointer so that every AccountInfo for the same key inside one frame
// moves the same balance.
type AccountInfo struct {
	Pubkey     types.Pubkey
	Lamports   *uint64
	Data       []byte
	Owner      types.Pubkey
	Executable bool
	RentEpoch  uint64
	IsSigner   bool
	IsWritable bool
}

// NewAccountInfo copies account into a fresh AccountInfo. A nil account
// shows up as an empty system-owned account.
func NewAccountInfo(pubkey types.Pubkey, account *types.Account, isSigner, isWritable bool) *AccountInfo {
	if account == nil {
		account = types.NewAccount(0, types.SystemProgramID)
	}
	lamports := uint64(account.Lamports)
	return &AccountInfo{
		Pubkey:     pubkey,
		Lamports:   &lamports,
		Data:       cloneData(account.Data),
		Owner:      account.Owner,
		Executable: account.Executable,
		RentEpoch:  uint64(account.RentEpoch),
		IsSigner:   isSigner,
		IsWritable: isWritable,
	}
}

func cloneData(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	return bytes.Clone(data)
}

// Clone returns a deep copy with its own lamport cell.
func (a *AccountInfo) Clone() *AccountInfo {
	if a == nil {
		return nil
	}
	c := *a
	lamports := *a.Lamports
	c.Lamports = &lamports
	c.Data = bytes.Clone(a.Data)
	return &c
}

// ToAccount converts the info back into a storable account.
func (a *AccountInfo) ToAccount() *types.Account {
	return &types.Account{
		Lamports:   types.Lamports(*a.Lamports),
		Data:       cloneData(a.Data),
		Owner:      a.Owner,
		Executable: a.Executable,
		RentEpoch:  types.Epoch(a.RentEpoch),
	}
}

func (a *AccountInfo) IsOwnedBy(program types.Pubkey) bool {
	return a.Owner == program
}

func (a *AccountInfo) DataLen() int {
	return len(a.Data)
}
