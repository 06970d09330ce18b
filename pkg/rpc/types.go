// Package rpc serves the ledger over JSON-RPC 2.0.
package rpc

import (
	"encoding/json"
)

// JSONRPCVersion is the only protocol version accepted.
const JSONRPCVersion = "2.0"

// Standard JSON-RPC 2.0 error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603

	// Ledger specific
	SendTransactionError = -32002
	UnsupportedEncoding  = -32011
)

// RPCRequest represents a JSON-RPC 2.0 request.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// RPCResponse represents a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// NewRPCError creates a new RPC error.
func NewRPCError(code int, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}

// Context carries the slot a result was read at.
type Context struct {
	Slot uint64 `json:"slot"`
}

// ContextualResult wraps a result with context.
type ContextualResult struct {
	Context Context     `json:"context"`
	Value   interface{} `json:"value"`
}

// AccountInfoResult represents the result of getAccountInfo.
type AccountInfoResult struct {
	Lamports   uint64        `json:"lamports"`
	Data       []interface{} `json:"data"` // [data, encoding]
	Owner      string        `json:"owner"`
	Executable bool          `json:"executable"`
	RentEpoch  uint64        `json:"rentEpoch"`
	Space      uint64        `json:"space"`
}

// KeyedAccount is one entry of getProgramAccounts.
type KeyedAccount struct {
	Pubkey  string            `json:"pubkey"`
	Account AccountInfoResult `json:"account"`
}

// TokenAmount is a raw token amount with its mint's precision.
type TokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

// PositionResult describes a staking position record.
type PositionResult struct {
	Address     string `json:"address"`
	Closed      bool   `json:"closed"`
	Stake       uint64 `json:"stake,omitempty"`
	ActiveTime  int64  `json:"activeTime,omitempty"`
	Participant string `json:"participant,omitempty"`
	Bump        uint8  `json:"bump,omitempty"`
}

// SendTransactionErrorData is attached to failed sendTransaction calls.
type SendTransactionErrorData struct {
	Err              string   `json:"err"`
	InstructionIndex *int     `json:"instructionIndex,omitempty"`
	ProgramErrorCode *uint32  `json:"programErrorCode,omitempty"`
	Logs             []string `json:"logs"`
}

// BlockhashResult is the value of getLatestBlockhash.
type BlockhashResult struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SignatureStatus is one entry of getSignatureStatuses. Only committed
// transactions are reported, so Err is always null.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// VersionResult represents the result of getVersion.
type VersionResult struct {
	Core string `json:"tether-core"`
}

// AccountInfoOptions represents optional parameters for account queries.
type AccountInfoOptions struct {
	Encoding  string     `json:"encoding,omitempty"` // base58, base64, base64+zstd
	DataSlice *DataSlice `json:"dataSlice,omitempty"`
}

// DataSlice represents a slice of account data.
type DataSlice struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// SendTransactionOptions represents optional parameters for sendTransaction.
type SendTransactionOptions struct {
	Encoding string `json:"encoding,omitempty"` // base58 or base64
}
