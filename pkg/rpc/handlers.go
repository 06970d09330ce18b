package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Devansh-Aage/Tether/pkg/bank"
	"github.com/Devansh-Aage/Tether/pkg/poh"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Version is reported by getVersion.
var Version = "0.1.0"

// Ledger is the part of the bank the handlers read and write through.
type Ledger interface {
	GetAccount(pubkey types.Pubkey) (*types.Account, error)
	ProcessTransaction(tx *types.Transaction) *types.TransactionResult
	Slot() uint64
	RecentBlockhash() types.Hash
	SignatureSlot(sig types.Signature) (uint64, bool)
	Rent() types.Rent
	TetherProgramID() types.Pubkey
}

// Scanner iterates over every stored account.
type Scanner interface {
	ForEach(fn func(pubkey types.Pubkey, account *types.Account) error) error
}

// Handler is the function signature for RPC method handlers.
type Handler func(params json.RawMessage) (interface{}, *RPCError)

// Handlers maps method names to their implementations.
type Handlers struct {
	ledger   Ledger
	scanner  Scanner
	handlers map[string]Handler
}

// NewHandlers creates the method table over ledger. scanner backs
// getProgramAccounts and may be nil, in which case that method is not
// served.
func NewHandlers(ledger Ledger, scanner Scanner) *Handlers {
	h := &Handlers{
		ledger:   ledger,
		scanner:  scanner,
		handlers: make(map[string]Handler),
	}
	h.registerHandlers()
	return h
}

// GetHandler returns the handler for a method, or nil if not found.
func (h *Handlers) GetHandler(method string) Handler {
	return h.handlers[method]
}

func (h *Handlers) registerHandlers() {
	h.handlers["getAccountInfo"] = h.handleGetAccountInfo
	h.handlers["getBalance"] = h.handleGetBalance
	h.handlers["getTokenAccountBalance"] = h.handleGetTokenAccountBalance
	h.handlers["getMinimumBalanceForRentExemption"] = h.handleGetMinimumBalanceForRentExemption
	h.handlers["getPosition"] = h.handleGetPosition
	h.handlers["getSlot"] = h.handleGetSlot
	h.handlers["getLatestBlockhash"] = h.handleGetLatestBlockhash
	h.handlers["getSignatureStatuses"] = h.handleGetSignatureStatuses
	h.handlers["getHealth"] = h.handleGetHealth
	h.handlers["getVersion"] = h.handleGetVersion
	h.handlers["sendTransaction"] = h.handleSendTransaction
	if h.scanner != nil {
		h.handlers["getProgramAccounts"] = h.handleGetProgramAccounts
	}
}

func (h *Handlers) context() Context {
	return Context{Slot: h.ledger.Slot()}
}

// positional splits params into at least min positional arguments.
func positional(params json.RawMessage, min int) ([]json.RawMessage, *RPCError) {
	var raw []json.RawMessage
	if len(params) > 0 {
		if err := json.Unmarshal(params, &raw); err != nil {
			return nil, NewRPCError(InvalidParams, "invalid params: expected array")
		}
	}
	if len(raw) < min {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("expected at least %d params, got %d", min, len(raw)))
	}
	return raw, nil
}

func pubkeyParam(raw json.RawMessage) (types.Pubkey, *RPCError) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return types.Pubkey{}, NewRPCError(InvalidParams, "invalid pubkey parameter")
	}
	pk, err := types.PubkeyFromBase58(s)
	if err != nil {
		return types.Pubkey{}, NewRPCError(InvalidParams, fmt.Sprintf("invalid pubkey: %v", err))
	}
	return pk, nil
}

func accountOptions(raw []json.RawMessage, index int) (AccountInfoOptions, *RPCError) {
	var options AccountInfoOptions
	if len(raw) > index {
		if err := json.Unmarshal(raw[index], &options); err != nil {
			return options, NewRPCError(InvalidParams, "invalid options")
		}
	}
	if err := ValidateEncoding(options.Encoding); err != nil {
		return options, NewRPCError(UnsupportedEncoding, err.Error())
	}
	return options, nil
}

func encodeAccount(account *types.Account, options AccountInfoOptions) (AccountInfoResult, *RPCError) {
	data, err := EncodeAccountData(SliceData(account.Data, options.DataSlice), options.Encoding)
	if err != nil {
		return AccountInfoResult{}, NewRPCError(InvalidParams, err.Error())
	}
	return AccountInfoResult{
		Lamports:   uint64(account.Lamports),
		Data:       data,
		Owner:      account.Owner.String(),
		Executable: account.Executable,
		RentEpoch:  uint64(account.RentEpoch),
		Space:      uint64(len(account.Data)),
	}, nil
}

func (h *Handlers) getAccount(pubkey types.Pubkey) (*types.Account, *RPCError) {
	account, err := h.ledger.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}
	return account, nil
}

// handleGetAccountInfo handles the getAccountInfo RPC method.
// Params: [pubkey, {encoding, dataSlice}]
func (h *Handlers) handleGetAccountInfo(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pubkey, rpcErr := pubkeyParam(raw[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	options, rpcErr := accountOptions(raw, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, rpcErr := h.getAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if account == nil {
		return ContextualResult{Context: h.context(), Value: nil}, nil
	}
	result, rpcErr := encodeAccount(account, options)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return ContextualResult{Context: h.context(), Value: result}, nil
}

// handleGetBalance handles the getBalance RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetBalance(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pubkey, rpcErr := pubkeyParam(raw[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := h.getAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var balance uint64
	if account != nil {
		balance = uint64(account.Lamports)
	}
	return ContextualResult{Context: h.context(), Value: balance}, nil
}

// handleGetTokenAccountBalance handles the getTokenAccountBalance RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetTokenAccountBalance(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pubkey, rpcErr := pubkeyParam(raw[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := h.getAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if account == nil || !account.Owner.IsTokenProgram() {
		return nil, NewRPCError(InvalidParams, "not a token account")
	}
	ta, err := token.DeserializeTokenAccount(account.Data)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("not a token account: %v", err))
	}
	mintAccount, rpcErr := h.getAccount(ta.Mint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if mintAccount == nil {
		return nil, NewRPCError(InternalError, "mint not found")
	}
	mint, err := token.DeserializeMint(mintAccount.Data)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("invalid mint: %v", err))
	}

	return ContextualResult{
		Context: h.context(),
		Value: TokenAmount{
			Amount:         strconv.FormatUint(ta.Amount, 10),
			Decimals:       mint.Decimals,
			UIAmountString: FormatUnits(ta.Amount, mint.Decimals),
		},
	}, nil
}

// handleGetMinimumBalanceForRentExemption handles the
// getMinimumBalanceForRentExemption RPC method.
// Params: [dataSize]
func (h *Handlers) handleGetMinimumBalanceForRentExemption(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var size uint64
	if err := json.Unmarshal(raw[0], &size); err != nil {
		return nil, NewRPCError(InvalidParams, "invalid data size")
	}
	return uint64(h.ledger.Rent().MinimumBalance(size)), nil
}

// handleGetPosition handles the getPosition RPC method.
// Params: [wallet, seed]
func (h *Handlers) handleGetPosition(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	wallet, rpcErr := pubkeyParam(raw[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	var seed uint64
	if err := json.Unmarshal(raw[1], &seed); err != nil {
		return nil, NewRPCError(InvalidParams, "invalid seed")
	}

	programID := h.ledger.TetherProgramID()
	address, _, err := tether.FindParticipantAddress(programID, wallet, seed)
	if err != nil {
		return nil, NewRPCError(InternalError, err.Error())
	}
	account, rpcErr := h.getAccount(address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	result := PositionResult{Address: address.String()}
	switch {
	case account == nil:
		return ContextualResult{Context: h.context(), Value: nil}, nil
	case account.Owner == programID:
		p, err := tether.ParticipantFromAccount(programID, account)
		if err != nil {
			return nil, NewRPCError(InternalError, err.Error())
		}
		result.Stake = p.Stake()
		result.ActiveTime = p.ActiveTime()
		result.Participant = p.Key().String()
		result.Bump = p.Bump()
	default:
		result.Closed = true
	}
	return ContextualResult{Context: h.context(), Value: result}, nil
}

// handleGetProgramAccounts handles the getProgramAccounts RPC method.
// Params: [programID, {encoding, dataSlice}]
func (h *Handlers) handleGetProgramAccounts(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := pubkeyParam(raw[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	options, rpcErr := accountOptions(raw, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	result := []KeyedAccount{}
	err := h.scanner.ForEach(func(pubkey types.Pubkey, account *types.Account) error {
		if account.Owner != owner {
			return nil
		}
		encoded, rpcErr := encodeAccount(account, options)
		if rpcErr != nil {
			return rpcErr
		}
		result = append(result, KeyedAccount{Pubkey: pubkey.String(), Account: encoded})
		return nil
	})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, NewRPCError(InternalError, err.Error())
	}
	return result, nil
}

// handleGetSlot handles the getSlot RPC method.
func (h *Handlers) handleGetSlot(json.RawMessage) (interface{}, *RPCError) {
	return h.ledger.Slot(), nil
}

func (h *Handlers) handleGetLatestBlockhash(json.RawMessage) (interface{}, *RPCError) {
	slot := h.ledger.Slot()
	return &ContextualResult{
		Context: Context{Slot: slot},
		Value: &BlockhashResult{
			Blockhash:            h.ledger.RecentBlockhash().String(),
			LastValidBlockHeight: slot + poh.MaxRecentEntries,
		},
	}, nil
}

// maxSignatureQuery bounds one getSignatureStatuses call.
const maxSignatureQuery = 256

// handleGetSignatureStatuses reports, per signature, the slot it was
// committed in, or null once it has aged out of the recent history.
func (h *Handlers) handleGetSignatureStatuses(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var encoded []string
	if err := json.Unmarshal(raw[0], &encoded); err != nil {
		return nil, NewRPCError(InvalidParams, "invalid signatures: expected array")
	}
	if len(encoded) > maxSignatureQuery {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("too many signatures: %d > %d", len(encoded), maxSignatureQuery))
	}

	statuses := make([]*SignatureStatus, len(encoded))
	for i, s := range encoded {
		sig, err := types.SignatureFromBase58(s)
		if err != nil {
			return nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid signature %q: %v", s, err))
		}
		if slot, ok := h.ledger.SignatureSlot(sig); ok {
			statuses[i] = &SignatureStatus{Slot: slot, ConfirmationStatus: "finalized"}
		}
	}
	return &ContextualResult{Context: h.context(), Value: statuses}, nil
}

// handleGetHealth handles the getHealth RPC method.
func (h *Handlers) handleGetHealth(json.RawMessage) (interface{}, *RPCError) {
	account, rpcErr := h.getAccount(h.ledger.TetherProgramID())
	if rpcErr != nil {
		return nil, rpcErr
	}
	if account == nil || !account.Executable {
		return nil, NewRPCError(InternalError, "tether program is not loaded")
	}
	return "ok", nil
}

// handleGetVersion handles the getVersion RPC method.
func (h *Handlers) handleGetVersion(json.RawMessage) (interface{}, *RPCError) {
	return VersionResult{Core: Version}, nil
}

// handleSendTransaction handles the sendTransaction RPC method. The
// transaction is executed before the call returns.
// Params: [encodedTransaction, {encoding}]
func (h *Handlers) handleSendTransaction(params json.RawMessage) (interface{}, *RPCError) {
	raw, rpcErr := positional(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var encoded string
	if err := json.Unmarshal(raw[0], &encoded); err != nil {
		return nil, NewRPCError(InvalidParams, "invalid transaction parameter")
	}
	var options SendTransactionOptions
	if len(raw) > 1 {
		if err := json.Unmarshal(raw[1], &options); err != nil {
			return nil, NewRPCError(InvalidParams, "invalid options")
		}
	}
	if options.Encoding == EncodingBase64Zstd {
		return nil, NewRPCError(UnsupportedEncoding, "transactions must be base58 or base64")
	}
	wire, err := DecodeAccountData(encoded, options.Encoding)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("failed to decode transaction: %v", err))
	}
	tx, err := types.DeserializeTransaction(wire)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("failed to deserialize transaction: %v", err))
	}

	result := h.ledger.ProcessTransaction(tx)
	if result.Error != nil {
		return nil, sendTransactionError(result)
	}
	return result.Signature.String(), nil
}

// codedError is a program failure with a numeric code, such as a tether
// or token program error.
type codedError interface {
	error
	Code() uint32
}

func sendTransactionError(result *types.TransactionResult) *RPCError {
	data := SendTransactionErrorData{
		Err:  result.Error.Error(),
		Logs: result.Logs,
	}
	if data.Logs == nil {
		data.Logs = []string{}
	}
	var instErr *bank.InstructionError
	if errors.As(result.Error, &instErr) {
		index := instErr.Index
		data.InstructionIndex = &index
	}
	var coded codedError
	if errors.As(result.Error, &coded) {
		code := coded.Code()
		data.ProgramErrorCode = &code
	}
	return &RPCError{
		Code:    SendTransactionError,
		Message: "Transaction failed: " + result.Error.Error(),
		Data:    data,
	}
}
