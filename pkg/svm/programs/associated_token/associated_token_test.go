package associated_token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/system"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

type program interface {
	Execute(ctx *syscall.ExecutionContext) error
}

type executor map[types.Pubkey]program

func (e executor) ExecuteProgram(ctx *syscall.ExecutionContext) error {
	return e[ctx.ProgramID].Execute(ctx)
}

var tokenProgramID = types.Token2022ProgramID

func newExecutor() executor {
	return executor{
		types.SystemProgramID:          system.New(),
		tokenProgramID:                 token.New(tokenProgramID),
		types.AssociatedTokenProgramID: New(),
	}
}

func key(b byte) types.Pubkey {
	return types.Pubkey(types.SHA256([]byte{'a', b}))
}

type fixture struct {
	payer, wallet, mint *syscall.AccountInfo
}

func newFixture() *fixture {
	mint := token.NewMint(6, key(9), nil)
	mintAcc := types.NewAccountWithData(types.RentExemptMinimum(token.MintSize), mint.Serialize(), tokenProgramID)
	return &fixture{
		payer:  syscall.NewAccountInfo(key(1), types.NewAccount(10_000_000_000, types.SystemProgramID), true, true),
		wallet: syscall.NewAccountInfo(key(2), nil, false, false),
		mint:   syscall.NewAccountInfo(key(3), mintAcc, false, false),
	}
}

func (f *fixture) run(t *testing.T, inst *types.Instruction, ata *syscall.AccountInfo) error {
	t.Helper()
	accounts := []*syscall.AccountInfo{
		f.payer,
		ata,
		f.wallet,
		f.mint,
		syscall.NewAccountInfo(types.SystemProgramID, nil, false, false),
		syscall.NewAccountInfo(tokenProgramID, nil, false, false),
	}
	ctx := syscall.NewExecutionContext(types.AssociatedTokenProgramID, accounts, inst.Data, 400_000)
	ctx.SetProgramExecutor(newExecutor())
	ctx.BeginFrame()
	if err := New().Execute(ctx); err != nil {
		return err
	}
	return ctx.VerifyFrame()
}

func TestCreate(t *testing.T) {
	f := newFixture()
	inst, err := Create(f.payer.Pubkey, f.wallet.Pubkey, f.mint.Pubkey, tokenProgramID)
	require.NoError(t, err)

	ata := syscall.NewAccountInfo(inst.Accounts[1].Pubkey, nil, false, true)
	require.NoError(t, f.run(t, inst, ata))

	assert.Equal(t, tokenProgramID, ata.Owner)
	assert.Len(t, ata.Data, token.TokenAccountSize)
	assert.Equal(t, uint64(types.RentExemptMinimum(token.TokenAccountSize)), *ata.Lamports)

	account, err := token.DeserializeTokenAccount(ata.Data)
	require.NoError(t, err)
	assert.Equal(t, f.wallet.Pubkey, account.Owner)
	assert.Equal(t, f.mint.Pubkey, account.Mint)

	err = f.run(t, inst, ata)
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)

	idem, err := CreateIdempotent(f.payer.Pubkey, f.wallet.Pubkey, f.mint.Pubkey, tokenProgramID)
	require.NoError(t, err)
	require.NoError(t, f.run(t, idem, ata))
}

func TestCreateWrongAddress(t *testing.T) {
	f := newFixture()
	inst, err := Create(f.payer.Pubkey, f.wallet.Pubkey, f.mint.Pubkey, tokenProgramID)
	require.NoError(t, err)

	wrong := syscall.NewAccountInfo(key(7), nil, false, true)
	err = f.run(t, inst, wrong)
	assert.ErrorIs(t, err, ErrInvalidSeeds)
	assert.Nil(t, wrong.Data)
}

func TestCreateForeignMint(t *testing.T) {
	f := newFixture()
	f.mint.Owner = types.TokenProgramID
	inst, err := Create(f.payer.Pubkey, f.wallet.Pubkey, f.mint.Pubkey, tokenProgramID)
	require.NoError(t, err)

	ata := syscall.NewAccountInfo(inst.Accounts[1].Pubkey, nil, false, true)
	err = f.run(t, inst, ata)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}
