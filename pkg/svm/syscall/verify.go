package syscall

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Account change verification errors
var (
	ErrReadOnlyModified      = errors.New("read-only account was modified")
	ErrExternalLamportSpend  = errors.New("instruction spent from the balance of an account it does not own")
	ErrExternalDataModified  = errors.New("instruction modified data of an account it does not own")
	ErrModifiedProgramID     = errors.New("instruction illegally modified the program id of an account")
	ErrUnbalancedInstruction = errors.New("sum of account balances before and after instruction do not match")
)

// AccountSnapshot is the state of an account at the start of a frame.
type AccountSnapshot struct {
	Pubkey   types.Pubkey
	Lamports uint64
	Data     []byte
	Owner    types.Pubkey
}

// SnapshotAccounts captures the state of every distinct account in accounts.
func SnapshotAccounts(accounts []*AccountInfo) []AccountSnapshot {
	seen := make(map[types.Pubkey]struct{}, len(accounts))
	snaps := make([]AccountSnapshot, 0, len(accounts))
	for _, acc := range accounts {
		if _, ok := seen[acc.Pubkey]; ok {
			continue
		}
		seen[acc.Pubkey] = struct{}{}
		data := make([]byte, len(acc.Data))
		copy(data, acc.Data)
		snaps = append(snaps, AccountSnapshot{
			Pubkey:   acc.Pubkey,
			Lamports: *acc.Lamports,
			Data:     data,
			Owner:    acc.Owner,
		})
	}
	return snaps
}

// BeginFrame records the pre-state of the installed accounts.
func (ctx *ExecutionContext) BeginFrame() {
	ctx.pre = SnapshotAccounts(ctx.Accounts)
}

// VerifyFrame checks that the running program only made changes it is
// entitled to since the frame began:
//   - read-only accounts are unchanged
//   - only the owner may debit lamports or change data
//   - only the owner may reassign an account, and only once its data is
//     zeroed or its lamports are drained
//   - lamports are neither created nor destroyed
func (ctx *ExecutionContext) VerifyFrame() error {
	return VerifyAccountChanges(ctx.ProgramID, ctx.pre, ctx.Accounts)
}

// VerifyAccountChanges compares post against pre on behalf of programID.
func VerifyAccountChanges(programID types.Pubkey, pre []AccountSnapshot, post []*AccountInfo) error {
	byKey := make(map[types.Pubkey]*AccountInfo, len(post))
	writable := make(map[types.Pubkey]bool, len(post))
	for _, acc := range post {
		byKey[acc.Pubkey] = acc
		if acc.IsWritable {
			writable[acc.Pubkey] = true
		}
	}

	var preTotal, postTotal uint64
	for _, before := range pre {
		after, ok := byKey[before.Pubkey]
		if !ok {
			continue
		}
		preTotal += before.Lamports
		postTotal += *after.Lamports

		lamportsChanged := *after.Lamports != before.Lamports
		dataChanged := !bytes.Equal(after.Data, before.Data)
		ownerChanged := after.Owner != before.Owner

		if !writable[before.Pubkey] {
			if lamportsChanged || dataChanged || ownerChanged {
				return fmt.Errorf("%w: %s", ErrReadOnlyModified, before.Pubkey.String())
			}
			continue
		}

		owned := before.Owner == programID
		if ownerChanged && (!owned || (!isZeroed(after.Data) && *after.Lamports > 0)) {
			return fmt.Errorf("%w: %s", ErrModifiedProgramID, before.Pubkey.String())
		}
		if *after.Lamports < before.Lamports && !owned {
			return fmt.Errorf("%w: %s", ErrExternalLamportSpend, before.Pubkey.String())
		}
		if dataChanged && !owned {
			return fmt.Errorf("%w: %s", ErrExternalDataModified, before.Pubkey.String())
		}
	}

	if preTotal != postTotal {
		return fmt.Errorf("%w: %d before, %d after", ErrUnbalancedInstruction, preTotal, postTotal)
	}
	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
