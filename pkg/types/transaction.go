package types

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage        = errors.New("message has no instructions")
	ErrTooManyAccountKeys  = errors.New("too many account keys")
	ErrInvalidAccountIndex = errors.New("invalid account index")
)

// MaxAccountKeys is the largest number of keys a message can reference.
const MaxAccountKeys = 256

// Transaction represents a complete transaction with signatures.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// Message represents a transaction message (the part that gets signed).
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// MessageHeader contains counts for account types.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction is an instruction with account indices.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndices []uint8
	Data           []byte
}

// Instruction is an expanded instruction with full account info.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

type keyFlags struct {
	signer   bool
	writable bool
}

// NewMessage compiles instructions into a message paid for by payer.
// Keys are ordered writable signers first (payer leading), then read-only
// signers, writable non-signers and read-only non-signers. Program ids are
// read-only non-signers unless an instruction also lists them otherwise.
func NewMessage(payer Pubkey, instructions []*Instruction, recentBlockhash Hash) (*Message, error) {
	if len(instructions) == 0 {
		return nil, ErrEmptyMessage
	}

	order := []Pubkey{payer}
	flags := map[Pubkey]*keyFlags{payer: {signer: true, writable: true}}
	add := func(pk Pubkey, signer, writable bool) {
		f, ok := flags[pk]
		if !ok {
			f = &keyFlags{}
			flags[pk] = f
			order = append(order, pk)
		}
		f.signer = f.signer || signer
		f.writable = f.writable || writable
	}
	for _, inst := range instructions {
		for _, meta := range inst.Accounts {
			add(meta.Pubkey, meta.IsSigner, meta.IsWritable)
		}
		add(inst.ProgramID, false, false)
	}
	if len(order) > MaxAccountKeys {
		return nil, fmt.Errorf("%w: %d", ErrTooManyAccountKeys, len(order))
	}

	var groups [4][]Pubkey
	for _, pk := range order {
		f := flags[pk]
		switch {
		case f.signer && f.writable:
			groups[0] = append(groups[0], pk)
		case f.signer:
			groups[1] = append(groups[1], pk)
		case f.writable:
			groups[2] = append(groups[2], pk)
		default:
			groups[3] = append(groups[3], pk)
		}
	}

	msg := &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       uint8(len(groups[0]) + len(groups[1])),
			NumReadonlySignedAccounts:   uint8(len(groups[1])),
			NumReadonlyUnsignedAccounts: uint8(len(groups[3])),
		},
		RecentBlockhash: recentBlockhash,
	}
	index := make(map[Pubkey]uint8, len(order))
	for _, group := range groups {
		for _, pk := range group {
			index[pk] = uint8(len(msg.AccountKeys))
			msg.AccountKeys = append(msg.AccountKeys, pk)
		}
	}

	for _, inst := range instructions {
		compiled := CompiledInstruction{
			ProgramIDIndex: index[inst.ProgramID],
			AccountIndices: make([]uint8, len(inst.Accounts)),
			Data:           append([]byte(nil), inst.Data...),
		}
		for i, meta := range inst.Accounts {
			compiled.AccountIndices[i] = index[meta.Pubkey]
		}
		msg.Instructions = append(msg.Instructions, compiled)
	}
	return msg, nil
}

// IsSigner reports whether the key at index i must sign.
func (m *Message) IsSigner(i int) bool {
	return i < int(m.Header.NumRequiredSignatures)
}

// IsWritable reports whether the key at index i may be modified.
func (m *Message) IsWritable(i int) bool {
	numSigners := int(m.Header.NumRequiredSignatures)
	if i < numSigners {
		return i < numSigners-int(m.Header.NumReadonlySignedAccounts)
	}
	return i < len(m.AccountKeys)-int(m.Header.NumReadonlyUnsignedAccounts)
}

// Signers returns the keys that must sign the message.
func (m *Message) Signers() []Pubkey {
	n := int(m.Header.NumRequiredSignatures)
	if n > len(m.AccountKeys) {
		n = len(m.AccountKeys)
	}
	return m.AccountKeys[:n]
}

// Instruction expands the i-th compiled instruction.
func (m *Message) Instruction(i int) (*Instruction, error) {
	if i < 0 || i >= len(m.Instructions) {
		return nil, fmt.Errorf("%w: instruction %d", ErrInvalidAccountIndex, i)
	}
	ix := m.Instructions[i]
	if int(ix.ProgramIDIndex) >= len(m.AccountKeys) {
		return nil, fmt.Errorf("%w: program index %d", ErrInvalidAccountIndex, ix.ProgramIDIndex)
	}
	inst := &Instruction{
		ProgramID: m.AccountKeys[ix.ProgramIDIndex],
		Accounts:  make([]AccountMeta, len(ix.AccountIndices)),
		Data:      ix.Data,
	}
	for j, idx := range ix.AccountIndices {
		if int(idx) >= len(m.AccountKeys) {
			return nil, fmt.Errorf("%w: account index %d", ErrInvalidAccountIndex, idx)
		}
		inst.Accounts[j] = NewAccountMeta(m.AccountKeys[idx], m.IsSigner(int(idx)), m.IsWritable(int(idx)))
	}
	return inst, nil
}

// Serialize encodes the message as it is signed.
func (m *Message) Serialize() ([]byte, error) {
	if len(m.AccountKeys) > MaxAccountKeys {
		return nil, fmt.Errorf("%w: %d", ErrTooManyAccountKeys, len(m.AccountKeys))
	}
	buf := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	}
	buf = appendShortVec(buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}
	buf = append(buf, m.RecentBlockhash[:]...)
	buf = appendShortVec(buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf = append(buf, ix.ProgramIDIndex)
		buf = appendShortVec(buf, len(ix.AccountIndices))
		buf = append(buf, ix.AccountIndices...)
		buf = appendShortVec(buf, len(ix.Data))
		buf = append(buf, ix.Data...)
	}
	return buf, nil
}

// Serialize encodes the transaction in wire format: the signatures as a
// short vector followed by the message.
func (tx *Transaction) Serialize() ([]byte, error) {
	msg, err := tx.Message.Serialize()
	if err != nil {
		return nil, err
	}
	buf := appendShortVec(nil, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		buf = append(buf, sig[:]...)
	}
	return append(buf, msg...), nil
}

// appendShortVec appends n as a little-endian base-128 length prefix of
// at most three bytes.
func appendShortVec(buf []byte, n int) []byte {
	for n >= 0x80 {
		buf = append(buf, byte(n)|0x80)
		n >>= 7
	}
	return append(buf, byte(n))
}

// ErrMalformedTransaction is returned for wire bytes that do not decode.
var ErrMalformedTransaction = errors.New("malformed transaction")

// wireReader walks wire-format bytes. The first failure sticks and every
// later read returns zero values.
type wireReader struct {
	data []byte
	err  error
}

func (r *wireReader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated %s", ErrMalformedTransaction, what)
	}
}

func (r *wireReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.data) {
		r.fail(what)
		return nil
	}
	out := r.data[:n]
	r.data = r.data[n:]
	return out
}

func (r *wireReader) byte(what string) byte {
	b := r.take(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *wireReader) shortVec(what string) int {
	n := 0
	for shift := 0; shift < 21; shift += 7 {
		b := r.take(1, what)
		if b == nil {
			return 0
		}
		n |= int(b[0]&0x7f) << shift
		if b[0] < 0x80 {
			return n
		}
	}
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s length overflows", ErrMalformedTransaction, what)
	}
	return 0
}

// count reads a vector length whose elements take at least size bytes
// each, so a forged length cannot force a large allocation.
func (r *wireReader) count(size int, what string) int {
	n := r.shortVec(what)
	if n*size > len(r.data) {
		r.fail(what)
		return 0
	}
	return n
}

func (r *wireReader) bytes(what string) []byte {
	n := r.shortVec(what)
	return append([]byte(nil), r.take(n, what)...)
}

// checkIndexes fails the read when ix references a key past numKeys.
func (r *wireReader) checkIndexes(i int, ix *CompiledInstruction, numKeys int) {
	if r.err != nil {
		return
	}
	if int(ix.ProgramIDIndex) >= numKeys {
		r.err = fmt.Errorf("%w: instruction %d program index %d out of range", ErrMalformedTransaction, i, ix.ProgramIDIndex)
		return
	}
	for _, idx := range ix.AccountIndices {
		if int(idx) >= numKeys {
			r.err = fmt.Errorf("%w: instruction %d account index %d out of range", ErrMalformedTransaction, i, idx)
			return
		}
	}
}

// DeserializeTransaction decodes a wire-format transaction. Trailing bytes
// are rejected.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	r := &wireReader{data: data}
	tx := &Transaction{}

	tx.Signatures = make([]Signature, r.count(len(Signature{}), "signatures"))
	for i := range tx.Signatures {
		copy(tx.Signatures[i][:], r.take(len(Signature{}), "signature"))
	}

	msg := &tx.Message
	msg.Header.NumRequiredSignatures = r.byte("header")
	msg.Header.NumReadonlySignedAccounts = r.byte("header")
	msg.Header.NumReadonlyUnsignedAccounts = r.byte("header")

	msg.AccountKeys = make([]Pubkey, r.count(len(Pubkey{}), "account keys"))
	for i := range msg.AccountKeys {
		copy(msg.AccountKeys[i][:], r.take(len(Pubkey{}), "account key"))
	}
	if r.err == nil && len(msg.AccountKeys) > MaxAccountKeys {
		r.err = fmt.Errorf("%w: %d account keys", ErrMalformedTransaction, len(msg.AccountKeys))
	}
	copy(msg.RecentBlockhash[:], r.take(len(Hash{}), "blockhash"))

	msg.Instructions = make([]CompiledInstruction, r.count(3, "instructions"))
	for i := range msg.Instructions {
		ix := &msg.Instructions[i]
		ix.ProgramIDIndex = r.byte("program index")
		ix.AccountIndices = r.bytes("account indices")
		ix.Data = r.bytes("instruction data")
		r.checkIndexes(i, ix, len(msg.AccountKeys))
	}

	if r.err != nil {
		return nil, r.err
	}
	if len(r.data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTransaction, len(r.data))
	}
	return tx, nil
}

// TransactionResult is the outcome of executing one transaction.
type TransactionResult struct {
	Signature     Signature
	Success       bool
	Error         error
	Logs          []string
	ComputeUnits  ComputeUnits
	AccountDeltas []AccountDelta
}
