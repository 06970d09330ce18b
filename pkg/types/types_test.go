package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) Pubkey {
	return Pubkey(SHA256([]byte{b}))
}

func TestPubkeyText(t *testing.T) {
	pk := key(1)
	parsed, err := PubkeyFromBase58(pk.String())
	require.NoError(t, err)
	assert.Equal(t, pk, parsed)

	var decoded Pubkey
	require.NoError(t, decoded.UnmarshalText([]byte(pk.String())))
	assert.Equal(t, pk, decoded)

	_, err = PubkeyFromBase58("0OIl")
	assert.Error(t, err)
	_, err = PubkeyFromBase58("2")
	assert.Error(t, err)

	assert.True(t, ZeroPubkey.IsZero())
	assert.True(t, Token2022ProgramID.IsTokenProgram())
	assert.False(t, SystemProgramID.IsTokenProgram())
}

func TestRentMinimumBalance(t *testing.T) {
	assert.Equal(t, Lamports(890_880), RentExemptMinimum(0))
	assert.Equal(t, Lamports(2_039_280), RentExemptMinimum(165))
	assert.Equal(t, Lamports(2_280), Rent{LamportsPerByteYear: 10, ExemptionThreshold: 1.5}.MinimumBalance(24))
}

func TestAccountClone(t *testing.T) {
	a := NewAccountWithData(5, []byte{1, 2}, key(2))
	c := a.Clone()
	c.Data[0] = 9
	c.Lamports = 1
	assert.Equal(t, []byte{1, 2}, a.Data)
	assert.Equal(t, Lamports(5), a.Lamports)

	assert.Nil(t, (*Account)(nil).Clone())
	assert.Nil(t, NewAccount(1, key(2)).Clone().Data)
}

func TestNewMessageOrdersKeys(t *testing.T) {
	payer, signer, writable, readonly, program := key(1), key(2), key(3), key(4), key(5)
	insts := []*Instruction{
		{
			ProgramID: program,
			Accounts: []AccountMeta{
				NewAccountMeta(readonly, false, false),
				NewAccountMeta(signer, true, false),
				NewAccountMeta(writable, false, true),
				NewAccountMeta(payer, false, false),
			},
			Data: []byte{7},
		},
		{ProgramID: SystemProgramID, Accounts: []AccountMeta{NewAccountMeta(readonly, false, true)}},
	}

	msg, err := NewMessage(payer, insts, ZeroHash)
	require.NoError(t, err)
	assert.Equal(t, []Pubkey{payer, signer, readonly, writable, program, SystemProgramID}, msg.AccountKeys)
	assert.Equal(t, MessageHeader{NumRequiredSignatures: 2, NumReadonlySignedAccounts: 1, NumReadonlyUnsignedAccounts: 2}, msg.Header)
	assert.Equal(t, []Pubkey{payer, signer}, msg.Signers())

	assert.True(t, msg.IsWritable(0))
	assert.False(t, msg.IsWritable(1))
	assert.True(t, msg.IsWritable(2))
	assert.True(t, msg.IsWritable(3))
	assert.False(t, msg.IsWritable(4))

	inst, err := msg.Instruction(0)
	require.NoError(t, err)
	assert.Equal(t, program, inst.ProgramID)
	assert.Equal(t, NewAccountMeta(signer, true, false), inst.Accounts[1])
	assert.Equal(t, NewAccountMeta(readonly, false, true), inst.Accounts[0])

	_, err = msg.Instruction(2)
	assert.ErrorIs(t, err, ErrInvalidAccountIndex)

	_, err = NewMessage(payer, nil, ZeroHash)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestTransactionWire(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	msg, err := NewMessage(key(1), []*Instruction{
		{ProgramID: key(9), Accounts: []AccountMeta{NewAccountMeta(key(2), false, true)}, Data: data},
		{ProgramID: key(9)},
	}, SHA256([]byte("blockhash")))
	require.NoError(t, err)
	tx := &Transaction{Signatures: []Signature{{1, 2, 3}}, Message: *msg}

	wire, err := tx.Serialize()
	require.NoError(t, err)
	decoded, err := DeserializeTransaction(wire)
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures, decoded.Signatures)
	assert.Equal(t, msg.Header, decoded.Message.Header)
	assert.Equal(t, msg.AccountKeys, decoded.Message.AccountKeys)
	assert.Equal(t, msg.RecentBlockhash, decoded.Message.RecentBlockhash)
	require.Len(t, decoded.Message.Instructions, 2)
	assert.Equal(t, data, decoded.Message.Instructions[0].Data)
	assert.Empty(t, decoded.Message.Instructions[1].Data)
	again, err := decoded.Serialize()
	require.NoError(t, err)
	assert.Equal(t, wire, again)

	_, err = DeserializeTransaction(append(wire, 0))
	assert.ErrorIs(t, err, ErrMalformedTransaction)
	for _, n := range []int{0, 1, 64, len(wire) - 1} {
		_, err = DeserializeTransaction(wire[:n])
		assert.ErrorIs(t, err, ErrMalformedTransaction, "prefix of %d bytes", n)
	}
	_, err = DeserializeTransaction([]byte{0xff, 0xff, 0x7f})
	assert.ErrorIs(t, err, ErrMalformedTransaction)

	encode := func(mutate func(m *Message)) []byte {
		m := *msg
		m.Instructions = []CompiledInstruction{{ProgramIDIndex: 2, AccountIndices: []uint8{1}}}
		mutate(&m)
		buf, err := m.Serialize()
		require.NoError(t, err)
		return append([]byte{1}, append(make([]byte, 64), buf...)...)
	}
	_, err = DeserializeTransaction(encode(func(m *Message) {}))
	require.NoError(t, err)
	_, err = DeserializeTransaction(encode(func(m *Message) { m.Instructions[0].AccountIndices = []uint8{0, 200} }))
	assert.ErrorIs(t, err, ErrMalformedTransaction)
	_, err = DeserializeTransaction(encode(func(m *Message) { m.Instructions[0].ProgramIDIndex = 77 }))
	assert.ErrorIs(t, err, ErrMalformedTransaction)

	// Message.Serialize refuses this many keys, so the wire is assembled by hand.
	wide := []byte{1}
	wide = append(wide, make([]byte, 64)...)
	wide = append(wide, 1, 0, 0)
	wide = appendShortVec(wide, MaxAccountKeys+44)
	wide = append(wide, make([]byte, 32*(MaxAccountKeys+44))...)
	wide = append(wide, make([]byte, 32)...)
	wide = append(wide, 0)
	_, err = DeserializeTransaction(wide)
	assert.ErrorIs(t, err, ErrMalformedTransaction)
	assert.Contains(t, err.Error(), "300 account keys")
}

func TestShortVec(t *testing.T) {
	cases := map[int][]byte{
		0:      {0x00},
		0x7f:   {0x7f},
		0x80:   {0x80, 0x01},
		300:    {0xac, 0x02},
		0x3fff: {0xff, 0x7f},
		0x4000: {0x80, 0x80, 0x01},
	}
	for n, want := range cases {
		assert.Equal(t, want, appendShortVec(nil, n), "encode %d", n)
		r := &wireReader{data: want}
		assert.Equal(t, n, r.shortVec("len"), "decode %d", n)
		assert.NoError(t, r.err)
	}
}
