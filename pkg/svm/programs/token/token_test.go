package token

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

var programID = types.Token2022ProgramID

func key(b byte) types.Pubkey {
	return types.Pubkey(types.SHA256([]byte{'t', b}))
}

func owned(pubkey types.Pubkey, size int) *syscall.AccountInfo {
	acc := types.NewAccountWithData(types.RentExemptMinimum(uint64(size)), make([]byte, size), programID)
	return syscall.NewAccountInfo(pubkey, acc, false, true)
}

func exec(t *testing.T, inst *types.Instruction, accounts ...*syscall.AccountInfo) error {
	t.Helper()
	for i, meta := range inst.Accounts {
		accounts[i].IsSigner = meta.IsSigner
		accounts[i].IsWritable = meta.IsWritable
	}
	ctx := syscall.NewExecutionContext(programID, accounts, inst.Data, 200_000)
	ctx.BeginFrame()
	if err := New(programID).Execute(ctx); err != nil {
		return err
	}
	return ctx.VerifyFrame()
}

type fixture struct {
	mint      *syscall.AccountInfo
	authority *syscall.AccountInfo
	alice     *syscall.AccountInfo
	bob       *syscall.AccountInfo
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		mint:      owned(key(1), MintSize),
		authority: syscall.NewAccountInfo(key(2), nil, true, false),
		alice:     owned(key(3), TokenAccountSize),
		bob:       owned(key(4), TokenAccountSize),
	}
	require.NoError(t, exec(t, InitializeMint2(programID, f.mint.Pubkey, 6, f.authority.Pubkey, nil), f.mint))
	require.NoError(t, exec(t, InitializeAccount3(programID, f.alice.Pubkey, f.mint.Pubkey, key(10)), f.alice, f.mint))
	require.NoError(t, exec(t, InitializeAccount3(programID, f.bob.Pubkey, f.mint.Pubkey, key(11)), f.bob, f.mint))
	return f
}

func TestInitializeMint2(t *testing.T) {
	f := newFixture(t)

	mint, err := DeserializeMint(f.mint.Data)
	require.NoError(t, err)
	assert.True(t, mint.IsInitialized)
	assert.Equal(t, uint8(6), mint.Decimals)
	assert.Equal(t, Some(f.authority.Pubkey), mint.MintAuthority)
	assert.False(t, mint.FreezeAuthority.IsSome)

	err = exec(t, InitializeMint2(programID, f.mint.Pubkey, 6, f.authority.Pubkey, nil), f.mint)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitializeAccountRejectsForeignOwner(t *testing.T) {
	f := newFixture(t)
	foreign := owned(key(5), TokenAccountSize)
	foreign.Owner = types.TokenProgramID

	err := exec(t, InitializeAccount3(programID, foreign.Pubkey, f.mint.Pubkey, key(10)), foreign, f.mint)
	assert.ErrorIs(t, err, ErrInvalidAccountOwner)
}

func TestMintToChecked(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, exec(t, MintToChecked(programID, f.mint.Pubkey, f.alice.Pubkey, f.authority.Pubkey, 1_000, 6),
		f.mint, f.alice, f.authority))

	amount, err := AccountAmount(f.alice.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), amount)

	mint, err := DeserializeMint(f.mint.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), mint.Supply)

	err = exec(t, MintToChecked(programID, f.mint.Pubkey, f.alice.Pubkey, f.authority.Pubkey, 1, 9),
		f.mint, f.alice, f.authority)
	assert.ErrorIs(t, err, ErrDecimalsMismatch)
}

func TestMintToWrongAuthority(t *testing.T) {
	f := newFixture(t)
	impostor := syscall.NewAccountInfo(key(9), nil, true, false)

	err := exec(t, MintTo(programID, f.mint.Pubkey, f.alice.Pubkey, impostor.Pubkey, 1), f.mint, f.alice, impostor)
	assert.ErrorIs(t, err, ErrAuthorityMismatch)
}

func TestMintToOverflow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, exec(t, MintTo(programID, f.mint.Pubkey, f.alice.Pubkey, f.authority.Pubkey, ^uint64(0)),
		f.mint, f.alice, f.authority))

	err := exec(t, MintTo(programID, f.mint.Pubkey, f.bob.Pubkey, f.authority.Pubkey, 1), f.mint, f.bob, f.authority)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, exec(t, MintTo(programID, f.mint.Pubkey, f.alice.Pubkey, f.authority.Pubkey, 100),
		f.mint, f.alice, f.authority))

	aliceOwner := syscall.NewAccountInfo(key(10), nil, true, false)
	require.NoError(t, exec(t, Transfer(programID, f.alice.Pubkey, f.bob.Pubkey, aliceOwner.Pubkey, 30),
		f.alice, f.bob, aliceOwner))

	alice, _ := AccountAmount(f.alice.Data)
	bob, _ := AccountAmount(f.bob.Data)
	assert.Equal(t, uint64(70), alice)
	assert.Equal(t, uint64(30), bob)

	err := exec(t, Transfer(programID, f.alice.Pubkey, f.bob.Pubkey, aliceOwner.Pubkey, 71), f.alice, f.bob, aliceOwner)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	bobOwner := syscall.NewAccountInfo(key(11), nil, true, false)
	err = exec(t, Transfer(programID, f.alice.Pubkey, f.bob.Pubkey, bobOwner.Pubkey, 1), f.alice, f.bob, bobOwner)
	assert.ErrorIs(t, err, ErrOwnerMismatch)
}

func TestStateLayout(t *testing.T) {
	acc := NewTokenAccount(key(1), key(2))
	acc.Amount = 42
	acc.Delegate = Some(key(3))
	acc.CloseAuthority = Some(key(4))
	data := acc.Serialize()
	require.Len(t, data, TokenAccountSize)

	mint, err := AccountMint(data)
	require.NoError(t, err)
	assert.Equal(t, key(1), mint)
	amount, err := AccountAmount(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), amount)

	decoded, err := DeserializeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, acc, decoded)

	_, err = DeserializeMint(make([]byte, MintSize-1))
	assert.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestTokenError(t *testing.T) {
	err := fmt.Errorf("%w: need 10, have 5", ErrInsufficientFunds)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrOverflow)

	var te TokenError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, uint32(1), te.Code())
	assert.Equal(t, "account is frozen", ErrAccountFrozen.Error())
	assert.Equal(t, "token error 99", TokenError(99).Error())
}

func TestDecodeInstruction(t *testing.T) {
	freeze := key(7)
	for _, inst := range []Instruction{
		{Kind: KindTransfer, Amount: 5},
		{Kind: KindMintTo, Amount: 1 << 40},
		{Kind: KindMintToChecked, Amount: 9, Decimals: 6},
		{Kind: KindInitializeAccount3, Authority: key(1)},
		{Kind: KindInitializeMint2, Decimals: 9, Authority: key(2)},
		{Kind: KindInitializeMint2, Decimals: 9, Authority: key(2), FreezeAuthority: &freeze},
	} {
		decoded, err := DecodeInstruction(inst.Encode())
		require.NoError(t, err, inst.Kind.String())
		assert.Equal(t, inst, *decoded)
	}

	_, err := DecodeInstruction(nil)
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = DecodeInstruction([]byte{byte(KindTransfer), 1, 2})
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = DecodeInstruction([]byte{99})
	assert.ErrorIs(t, err, ErrInvalidInstruction)

	bad := (&Instruction{Kind: KindInitializeMint2}).Encode()
	bad[len(bad)-1] = 2
	_, err = DecodeInstruction(bad)
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
	assert.Equal(t, "Unknown(99)", Kind(99).String())
}

func TestExecuteChecksAccountCount(t *testing.T) {
	inst := Transfer(programID, key(1), key(2), key(3), 1)
	ctx := syscall.NewExecutionContext(programID, []*syscall.AccountInfo{owned(key(1), TokenAccountSize)}, inst.Data, 200_000)
	err := New(programID).Execute(ctx)
	assert.ErrorIs(t, err, ErrInvalidNumberOfAccounts)
	assert.Equal(t, uint64(ComputeUnits), ctx.GetComputeUnitsConsumed())
}
