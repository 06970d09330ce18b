// Package compute_budget lets a transaction choose its own compute unit
// limit.
//
// Limits are read from the message before any instruction runs; when the
// instruction itself executes it only checks its data.
package compute_budget

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// ProgramID is the address of the Compute Budget Program.
var ProgramID = types.MustPubkeyFromBase58("ComputeBudget111111111111111111111111111111")

// InstructionSetComputeUnitLimit is the only instruction type served.
const InstructionSetComputeUnitLimit uint8 = 2

const (
	// MaxComputeUnits caps the limit a transaction may request.
	MaxComputeUnits uint32 = 1_400_000

	// ComputeUnits charged per instruction.
	ComputeUnits = 150
)

var (
	ErrInvalidInstructionData  = errors.New("invalid instruction data")
	ErrUnknownInstruction      = errors.New("unknown compute budget instruction")
	ErrComputeUnitLimitTooHigh = errors.New("compute unit limit too high")
	ErrDuplicateInstruction    = errors.New("duplicate compute budget instruction")
)

// SetComputeUnitLimitInstruction sets the transaction's compute unit limit.
type SetComputeUnitLimitInstruction struct {
	ComputeUnitLimit uint32
}

// Decode decodes the instruction body, without the type byte.
func (inst *SetComputeUnitLimitInstruction) Decode(data []byte) error {
	if len(data) != 4 {
		return fmt.Errorf("%w: SetComputeUnitLimit requires 4 bytes, got %d", ErrInvalidInstructionData, len(data))
	}
	inst.ComputeUnitLimit = binary.LittleEndian.Uint32(data)
	if inst.ComputeUnitLimit > MaxComputeUnits {
		return fmt.Errorf("%w: %d > %d", ErrComputeUnitLimitTooHigh, inst.ComputeUnitLimit, MaxComputeUnits)
	}
	return nil
}

// Encode encodes the instruction including its type byte.
func (inst *SetComputeUnitLimitInstruction) Encode() []byte {
	data := make([]byte, 5)
	data[0] = InstructionSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], inst.ComputeUnitLimit)
	return data
}

// SetComputeUnitLimit builds an instruction requesting units for the
// whole transaction.
func SetComputeUnitLimit(units uint32) *types.Instruction {
	return &types.Instruction{
		ProgramID: ProgramID,
		Data:      (&SetComputeUnitLimitInstruction{ComputeUnitLimit: units}).Encode(),
	}
}

func decode(data []byte) (*SetComputeUnitLimitInstruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty instruction", ErrInvalidInstructionData)
	}
	if data[0] != InstructionSetComputeUnitLimit {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInstruction, data[0])
	}
	inst := &SetComputeUnitLimitInstruction{}
	if err := inst.Decode(data[1:]); err != nil {
		return nil, err
	}
	return inst, nil
}

// Program is the Compute Budget Program.
type Program struct{}

// New creates a new Program instance.
func New() *Program {
	return &Program{}
}

// Execute validates the instruction. The limit it carries has already
// been applied by the time it runs.
func (p *Program) Execute(ctx *syscall.ExecutionContext) error {
	if err := ctx.ConsumeComputeUnits(ComputeUnits); err != nil {
		return err
	}
	_, err := decode(ctx.InstructionData)
	return err
}

// GetProgramID returns the Compute Budget Program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return ProgramID
}

// ComputeUnitLimit returns the limit msg requests, or defaultLimit when it
// carries no SetComputeUnitLimit instruction.
func ComputeUnitLimit(msg *types.Message, defaultLimit uint64) (uint64, error) {
	limit := defaultLimit
	seen := false
	for i := range msg.Instructions {
		ci := &msg.Instructions[i]
		if int(ci.ProgramIDIndex) >= len(msg.AccountKeys) || msg.AccountKeys[ci.ProgramIDIndex] != ProgramID {
			continue
		}
		inst, err := decode(ci.Data)
		if err != nil {
			return 0, fmt.Errorf("instruction %d: %w", i, err)
		}
		if seen {
			return 0, fmt.Errorf("instruction %d: %w", i, ErrDuplicateInstruction)
		}
		seen = true
		limit = uint64(inst.ComputeUnitLimit)
	}
	return limit, nil
}
