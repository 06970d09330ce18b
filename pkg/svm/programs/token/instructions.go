package token

import (
	"encoding/binary"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Kind is the leading byte of token instruction data. Values match the
// upstream token program so clients can share encoders.
type Kind uint8

const (
	KindTransfer           Kind = 3
	KindMintTo             Kind = 7
	KindMintToChecked      Kind = 14
	KindInitializeAccount3 Kind = 18
	KindInitializeMint2    Kind = 20
)

var kindNames = map[Kind]string{
	KindTransfer:           "Transfer",
	KindMintTo:             "MintTo",
	KindMintToChecked:      "MintToChecked",
	KindInitializeAccount3: "InitializeAccount3",
	KindInitializeMint2:    "InitializeMint2",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// Instruction is a decoded token instruction. Which fields are meaningful
// depends on Kind:
//
//	InitializeMint2     Decimals, Authority (mint authority), FreezeAuthority
//	InitializeAccount3  Authority (token account owner)
//	Transfer, MintTo    Amount
//	MintToChecked       Amount, Decimals
type Instruction struct {
	Kind            Kind
	Amount          uint64
	Decimals        uint8
	Authority       types.Pubkey
	FreezeAuthority *types.Pubkey
}

// minPayload is the shortest payload each kind accepts. Extra bytes are
// ignored, as the upstream program does.
var minPayload = map[Kind]int{
	KindTransfer:           8,
	KindMintTo:             8,
	KindMintToChecked:      9,
	KindInitializeAccount3: 32,
	KindInitializeMint2:    34,
}

// DecodeInstruction parses instruction data.
func DecodeInstruction(data []byte) (*Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty instruction data", ErrInvalidInstructionData)
	}
	inst := &Instruction{Kind: Kind(data[0])}
	want, ok := minPayload[inst.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstruction, data[0])
	}
	payload := data[1:]
	if len(payload) < want {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidInstructionData, inst.Kind, want, len(payload))
	}

	switch inst.Kind {
	case KindTransfer, KindMintTo:
		inst.Amount = binary.LittleEndian.Uint64(payload)
	case KindMintToChecked:
		inst.Amount = binary.LittleEndian.Uint64(payload)
		inst.Decimals = payload[8]
	case KindInitializeAccount3:
		copy(inst.Authority[:], payload)
	case KindInitializeMint2:
		inst.Decimals = payload[0]
		copy(inst.Authority[:], payload[1:33])
		switch payload[33] {
		case 0:
		case 1:
			if len(payload) < 66 {
				return nil, fmt.Errorf("%w: freeze authority truncated", ErrInvalidInstructionData)
			}
			freeze := types.Pubkey(payload[34:66])
			inst.FreezeAuthority = &freeze
		default:
			return nil, fmt.Errorf("%w: bad freeze authority tag %d", ErrInvalidInstructionData, payload[33])
		}
	}
	return inst, nil
}

// Encode renders the instruction data, kind byte first.
func (inst *Instruction) Encode() []byte {
	data := []byte{byte(inst.Kind)}
	switch inst.Kind {
	case KindTransfer, KindMintTo:
		data = binary.LittleEndian.AppendUint64(data, inst.Amount)
	case KindMintToChecked:
		data = binary.LittleEndian.AppendUint64(data, inst.Amount)
		data = append(data, inst.Decimals)
	case KindInitializeAccount3:
		data = append(data, inst.Authority[:]...)
	case KindInitializeMint2:
		data = append(data, inst.Decimals)
		data = append(data, inst.Authority[:]...)
		if inst.FreezeAuthority == nil {
			data = append(data, 0)
		} else {
			data = append(append(data, 1), inst.FreezeAuthority[:]...)
		}
	}
	return data
}

func build(programID types.Pubkey, inst Instruction, accounts ...types.AccountMeta) *types.Instruction {
	return &types.Instruction{ProgramID: programID, Accounts: accounts, Data: inst.Encode()}
}

// InitializeMint2 builds an InitializeMint2 instruction for programID.
// Accounts: mint (writable).
func InitializeMint2(programID, mint types.Pubkey, decimals uint8, mintAuthority types.Pubkey, freezeAuthority *types.Pubkey) *types.Instruction {
	return build(programID,
		Instruction{Kind: KindInitializeMint2, Decimals: decimals, Authority: mintAuthority, FreezeAuthority: freezeAuthority},
		types.NewAccountMeta(mint, false, true))
}

// InitializeAccount3 builds an InitializeAccount3 instruction for
// programID. Accounts: token account (writable), mint.
func InitializeAccount3(programID, account, mint, owner types.Pubkey) *types.Instruction {
	return build(programID,
		Instruction{Kind: KindInitializeAccount3, Authority: owner},
		types.NewAccountMeta(account, false, true),
		types.NewAccountMeta(mint, false, false))
}

// Transfer builds a Transfer instruction for programID. Accounts: source
// (writable), destination (writable), owner or delegate (signer).
func Transfer(programID, source, destination, authority types.Pubkey, amount uint64) *types.Instruction {
	return build(programID,
		Instruction{Kind: KindTransfer, Amount: amount},
		types.NewAccountMeta(source, false, true),
		types.NewAccountMeta(destination, false, true),
		types.NewAccountMeta(authority, true, false))
}

// MintTo builds a MintTo instruction for programID. Accounts: mint
// (writable), destination (writable), mint authority (signer).
func MintTo(programID, mint, destination, authority types.Pubkey, amount uint64) *types.Instruction {
	return build(programID,
		Instruction{Kind: KindMintTo, Amount: amount},
		mintToAccounts(mint, destination, authority)...)
}

// MintToChecked is MintTo with the mint's decimals asserted.
func MintToChecked(programID, mint, destination, authority types.Pubkey, amount uint64, decimals uint8) *types.Instruction {
	return build(programID,
		Instruction{Kind: KindMintToChecked, Amount: amount, Decimals: decimals},
		mintToAccounts(mint, destination, authority)...)
}

func mintToAccounts(mint, destination, authority types.Pubkey) []types.AccountMeta {
	return []types.AccountMeta{
		types.NewAccountMeta(mint, false, true),
		types.NewAccountMeta(destination, false, true),
		types.NewAccountMeta(authority, true, false),
	}
}
