package syscall

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

func TestComputeMeter(t *testing.T) {
	ctx := NewExecutionContext(testKey(1), nil, nil, 1_000)
	require.NoError(t, ctx.ConsumeComputeUnits(400))
	assert.Equal(t, uint64(400), ctx.GetComputeUnitsConsumed())

	assert.ErrorIs(t, ctx.ConsumeComputeUnits(601), ErrComputeExhausted)
	assert.Equal(t, uint64(1_000), ctx.GetComputeUnitsConsumed())
	assert.ErrorIs(t, ctx.ConsumeComputeUnits(1), ErrComputeExhausted)
}

func TestLogLimits(t *testing.T) {
	ctx := NewExecutionContext(testKey(1), nil, nil, 0)
	assert.Empty(t, ctx.GetLogs())

	ctx.Log("staked %d", 5)
	assert.Equal(t, []string{"Program log: staked 5"}, ctx.GetLogs())

	assert.ErrorIs(t, ctx.AddLog(strings.Repeat("x", MaxLogMessageLength+1)), ErrLogTooLong)
	for len(ctx.GetLogs()) < MaxLogMessages {
		require.NoError(t, ctx.AddLog("line"))
	}
	assert.ErrorIs(t, ctx.AddLog("one more"), ErrMaxLogsExceeded)

	logs := ctx.GetLogs()
	logs[0] = "changed"
	assert.Equal(t, "Program log: staked 5", ctx.GetLogs()[0])
}

func TestAccountLookup(t *testing.T) {
	a := newInfo(testKey(2), 10, types.SystemProgramID, true, true)
	dup := newInfo(testKey(2), 99, types.SystemProgramID, false, false)
	b := newInfo(testKey(3), 0, types.SystemProgramID, false, true)
	ctx := NewExecutionContext(testKey(1), []*AccountInfo{a, dup, b}, nil, 0)

	got, err := ctx.GetAccount(testKey(2))
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = ctx.GetAccount(testKey(4))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	got, err = ctx.GetAccountByIndex(2)
	require.NoError(t, err)
	assert.Same(t, b, got)
	_, err = ctx.GetAccountByIndex(3)
	assert.ErrorIs(t, err, ErrInvalidAccountIndex)
	assert.Equal(t, 3, ctx.AccountCount())
}

func TestTransferLamports(t *testing.T) {
	from := newInfo(testKey(2), 100, types.SystemProgramID, true, true)
	to := newInfo(testKey(3), 5, types.SystemProgramID, false, true)
	frozen := newInfo(testKey(4), 5, types.SystemProgramID, false, false)
	ctx := NewExecutionContext(testKey(1), []*AccountInfo{from, to, frozen}, nil, 0)

	require.NoError(t, ctx.TransferLamports(from, to, 60))
	assert.Equal(t, uint64(40), *from.Lamports)
	assert.Equal(t, uint64(65), *to.Lamports)

	assert.ErrorIs(t, ctx.TransferLamports(from, to, 41), ErrInsufficientFunds)
	assert.ErrorIs(t, ctx.TransferLamports(from, frozen, 1), ErrAccountNotWritable)
	assert.ErrorIs(t, ctx.TransferLamports(frozen, to, 1), ErrAccountNotWritable)

	require.NoError(t, ctx.TransferLamports(from, from, 40))
	assert.Equal(t, uint64(40), *from.Lamports)
}

func TestResizeAccountData(t *testing.T) {
	acc := NewAccountInfo(testKey(2), types.NewAccountWithData(1, []byte{1, 2, 3}, testKey(1)), false, true)
	ctx := NewExecutionContext(testKey(1), []*AccountInfo{acc}, nil, 0)

	require.NoError(t, ctx.ResizeAccountData(acc, 5))
	assert.Equal(t, []byte{1, 2, 3, 0, 0}, acc.Data)
	require.NoError(t, ctx.ResizeAccountData(acc, 1))
	assert.Equal(t, []byte{1}, acc.Data)

	assert.ErrorIs(t, ctx.ResizeAccountData(acc, MaxAccountDataSize+1), ErrAccountDataTooLarge)
	acc.IsWritable = false
	assert.ErrorIs(t, ctx.ResizeAccountData(acc, 0), ErrAccountNotWritable)
}

func TestAccountInfoCopies(t *testing.T) {
	stored := types.NewAccountWithData(7, []byte{9}, testKey(1))
	info := NewAccountInfo(testKey(2), stored, false, true)
	info.Data[0] = 1
	*info.Lamports = 8
	assert.Equal(t, []byte{9}, stored.Data)
	assert.Equal(t, types.Lamports(7), stored.Lamports)

	clone := info.Clone()
	*clone.Lamports = 100
	assert.Equal(t, uint64(8), *info.Lamports)

	back := info.ToAccount()
	assert.Equal(t, types.NewAccountWithData(8, []byte{1}, testKey(1)), back)

	empty := NewAccountInfo(testKey(3), nil, false, false)
	assert.True(t, empty.IsOwnedBy(types.SystemProgramID))
	assert.Zero(t, empty.DataLen())
}
