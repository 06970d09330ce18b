package tether

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

func TestParticipantLayout(t *testing.T) {
	require.Equal(t, 49, ParticipantLen)
	require.Equal(t, 33, AdminLen)

	data := make([]byte, ParticipantLen)
	record, err := LoadParticipant(data)
	require.NoError(t, err)

	who := key(1)
	record.SetInner(1_000_000, -5, who, 254)

	assert.Equal(t, []byte{0x40, 0x42, 0x0f, 0, 0, 0, 0, 0}, data[0:8])
	assert.Equal(t, []byte{0xfb, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, data[8:16])
	assert.Equal(t, who[:], data[16:48])
	assert.Equal(t, byte(254), data[48])

	assert.Equal(t, uint64(1_000_000), record.Stake())
	assert.Equal(t, int64(-5), record.ActiveTime())
	assert.Equal(t, who, record.Key())
	assert.Equal(t, uint8(254), record.Bump())
}

func TestLoadRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, ParticipantLen - 1, ParticipantLen + 1} {
		_, err := LoadParticipant(make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidAccountData, "len %d", n)
	}
	_, err := LoadAdmin(make([]byte, AdminLen+1))
	assert.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestAdminRecord(t *testing.T) {
	data := make([]byte, AdminLen)
	admin, err := LoadAdmin(data)
	require.NoError(t, err)
	admin.SetInner(key(2), 7)
	assert.Equal(t, key(2), admin.Key())
	assert.Equal(t, uint8(7), admin.Bump())
}

func TestParticipantFromAccount(t *testing.T) {
	acc := types.NewAccountWithData(1, make([]byte, ParticipantLen), programID)
	_, err := ParticipantFromAccount(programID, acc)
	require.NoError(t, err)

	acc.Owner = types.SystemProgramID
	_, err = ParticipantFromAccount(programID, acc)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, err = ParticipantFromAccount(programID, nil)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestReward(t *testing.T) {
	tests := []struct {
		stake    uint64
		winner   bool
		expected uint64
	}{
		{1_000_000, true, 250_000},
		{1_000_000, false, 50_000},
		{3, true, 0},
		{99, false, 4},
		{math.MaxUint64 / 25, true, math.MaxUint64 / 25 * 25 / 100},
	}
	for _, tt := range tests {
		amount, err := Reward(tt.stake, tt.winner)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, amount, "stake %d winner %v", tt.stake, tt.winner)
	}

	_, err := Reward(math.MaxUint64, true)
	assert.ErrorIs(t, err, ErrWriteOverflow)
	_, err = Reward(math.MaxUint64/5+1, false)
	assert.ErrorIs(t, err, ErrWriteOverflow)
}

func TestErrorCode(t *testing.T) {
	code, ok := ErrorCode(ErrNotActive)
	require.True(t, ok)
	assert.Equal(t, uint32(7), code)

	code, ok = ErrorCode(ErrInsufficientFunds)
	require.True(t, ok)
	assert.Equal(t, uint32(8), code)

	_, ok = ErrorCode(ErrNotEnoughAccountKeys)
	assert.False(t, ok)
}
