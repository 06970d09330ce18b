package system

import (
	"encoding/binary"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Instruction discriminators, a little-endian u32 at the head of the data.
const (
	InstructionCreateAccount uint32 = 0
	InstructionAssign        uint32 = 1
	InstructionTransfer      uint32 = 2
	InstructionAllocate      uint32 = 8
)

var payloadLen = map[uint32]int{
	InstructionCreateAccount: 8 + 8 + 32,
	InstructionAssign:        32,
	InstructionTransfer:      8,
	InstructionAllocate:      8,
}

var instructionNames = map[uint32]string{
	InstructionCreateAccount: "CreateAccount",
	InstructionAssign:        "Assign",
	InstructionTransfer:      "Transfer",
	InstructionAllocate:      "Allocate",
}

// Instruction is a decoded System Program instruction. Only the fields
// its Kind carries are meaningful:
//
//	CreateAccount  Lamports, Space, Owner
//	Assign         Owner
//	Transfer       Lamports
//	Allocate       Space
type Instruction struct {
	Kind     uint32
	Lamports uint64
	Space    uint64
	Owner    types.Pubkey
}

// Name returns the instruction's name for logs.
func (inst *Instruction) Name() string {
	return instructionNames[inst.Kind]
}

// Encode writes the discriminator followed by the payload.
func (inst *Instruction) Encode() []byte {
	data := make([]byte, 4+payloadLen[inst.Kind])
	binary.LittleEndian.PutUint32(data, inst.Kind)
	body := data[4:]
	switch inst.Kind {
	case InstructionCreateAccount:
		binary.LittleEndian.PutUint64(body[0:8], inst.Lamports)
		binary.LittleEndian.PutUint64(body[8:16], inst.Space)
		copy(body[16:48], inst.Owner[:])
	case InstructionAssign:
		copy(body, inst.Owner[:])
	case InstructionTransfer:
		binary.LittleEndian.PutUint64(body, inst.Lamports)
	case InstructionAllocate:
		binary.LittleEndian.PutUint64(body, inst.Space)
	}
	return data
}

// DecodeInstruction parses instruction data. The payload must have the
// exact length its discriminator calls for.
func DecodeInstruction(data []byte) (*Instruction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes, need a 4 byte discriminator", ErrInvalidInstructionData, len(data))
	}
	inst := &Instruction{Kind: binary.LittleEndian.Uint32(data)}
	want, ok := payloadLen[inst.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstructionData, inst.Kind)
	}
	body := data[4:]
	if len(body) != want {
		return nil, fmt.Errorf("%w: %s takes %d bytes, got %d", ErrInvalidInstructionData, inst.Name(), want, len(body))
	}

	switch inst.Kind {
	case InstructionCreateAccount:
		inst.Lamports = binary.LittleEndian.Uint64(body[0:8])
		inst.Space = binary.LittleEndian.Uint64(body[8:16])
		copy(inst.Owner[:], body[16:48])
	case InstructionAssign:
		copy(inst.Owner[:], body)
	case InstructionTransfer:
		inst.Lamports = binary.LittleEndian.Uint64(body)
	case InstructionAllocate:
		inst.Space = binary.LittleEndian.Uint64(body)
	}
	return inst, nil
}
