package bank

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/associated_token"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/compute_budget"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/system"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Program is a native program. It runs against the accounts and
// instruction data installed in ctx.
type Program interface {
	Execute(ctx *syscall.ExecutionContext) error
}

// ProgramFunc is a function adapter for Program.
type ProgramFunc func(ctx *syscall.ExecutionContext) error

// Execute implements Program.
func (f ProgramFunc) Execute(ctx *syscall.ExecutionContext) error {
	return f(ctx)
}

// ProgramRegistry manages the mapping of program IDs to their
// implementations. It is the executor every instruction and every
// cross-program invocation is routed through.
type ProgramRegistry struct {
	mu       sync.RWMutex
	programs map[types.Pubkey]Program
	names    map[types.Pubkey]string
}

// NewProgramRegistry creates an empty program registry.
func NewProgramRegistry() *ProgramRegistry {
	return &ProgramRegistry{
		programs: make(map[types.Pubkey]Program),
		names:    make(map[types.Pubkey]string),
	}
}

// RegisterProgram registers a program under id with a name for logs.
func (r *ProgramRegistry) RegisterProgram(id types.Pubkey, name string, program Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[id] = program
	r.names[id] = name
}

// GetProgram returns the program registered under id.
func (r *ProgramRegistry) GetProgram(id types.Pubkey) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	program, ok := r.programs[id]
	return program, ok
}

// GetProgramName returns the name id was registered with.
func (r *ProgramRegistry) GetProgramName(id types.Pubkey) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// HasProgram checks if a program is registered.
func (r *ProgramRegistry) HasProgram(id types.Pubkey) bool {
	_, ok := r.GetProgram(id)
	return ok
}

// ListPrograms returns all registered program IDs in byte order.
func (r *ProgramRegistry) ListPrograms() []types.Pubkey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]types.Pubkey, 0, len(r.programs))
	for id := range r.programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})
	return ids
}

// ExecuteProgram implements syscall.ProgramExecutor.
func (r *ProgramRegistry) ExecuteProgram(ctx *syscall.ExecutionContext) error {
	program, ok := r.GetProgram(ctx.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, ctx.ProgramID.String())
	}
	return program.Execute(ctx)
}

// RegisterNativePrograms registers the builtin programs along with the
// tether program, which is deployed at tetherID.
func RegisterNativePrograms(registry *ProgramRegistry, tetherID types.Pubkey) {
	registry.RegisterProgram(types.SystemProgramID, "System Program", system.New())
	registry.RegisterProgram(types.TokenProgramID, "Token Program", token.New(types.TokenProgramID))
	registry.RegisterProgram(types.Token2022ProgramID, "Token-2022 Program", token.New(types.Token2022ProgramID))
	registry.RegisterProgram(types.AssociatedTokenProgramID, "Associated Token Program", associated_token.New())
	registry.RegisterProgram(compute_budget.ProgramID, "Compute Budget Program", compute_budget.New())
	registry.RegisterProgram(tetherID, "Tether Program", tether.NewWithID(tetherID))
}
