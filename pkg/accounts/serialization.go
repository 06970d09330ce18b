package accounts

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Stored account layout, little-endian:
//
//	0   version     u8 (StorageVersion)
//	1   lamports    u64
//	9   owner       [32]byte
//	41  executable  u8
//	42  rent_epoch  u64
//	50  data_len    u32
//	54  data        data_len bytes
//
// The same bytes feed the accounts hash, so the layout is part of the
// snapshot format.

// StorageVersion is written as the first byte of every stored account.
const StorageVersion = 1

const (
	offVersion    = 0
	offLamports   = 1
	offOwner      = 9
	offExecutable = 41
	offRentEpoch  = 42
	offDataLen    = 50

	// StoredHeaderSize is the size of a stored account without its data.
	StoredHeaderSize = 54

	// MaxAccountDataLen bounds the data a stored account may carry.
	MaxAccountDataLen = 10 * 1024 * 1024
)

var (
	// ErrInvalidAccountData is returned when stored bytes do not decode.
	ErrInvalidAccountData = errors.New("invalid account data")

	errNilAccount = errors.New("cannot serialize nil account")
)

// SerializeAccount encodes account in the stored layout.
func SerializeAccount(account *types.Account) ([]byte, error) {
	if account == nil {
		return nil, errNilAccount
	}
	if len(account.Data) > MaxAccountDataLen {
		return nil, fmt.Errorf("%w: %d bytes of data", ErrInvalidAccountData, len(account.Data))
	}

	buf := make([]byte, StoredHeaderSize+len(account.Data))
	buf[offVersion] = StorageVersion
	binary.LittleEndian.PutUint64(buf[offLamports:], uint64(account.Lamports))
	copy(buf[offOwner:offExecutable], account.Owner[:])
	if account.Executable {
		buf[offExecutable] = 1
	}
	binary.LittleEndian.PutUint64(buf[offRentEpoch:], uint64(account.RentEpoch))
	binary.LittleEndian.PutUint32(buf[offDataLen:], uint32(len(account.Data)))
	copy(buf[StoredHeaderSize:], account.Data)
	return buf, nil
}

// DeserializeAccount decodes the stored layout. Trailing bytes are an
// error.
func DeserializeAccount(b []byte) (*types.Account, error) {
	if len(b) < StoredHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrInvalidAccountData, len(b), StoredHeaderSize)
	}
	if b[offVersion] != StorageVersion {
		return nil, fmt.Errorf("%w: storage version %d", ErrInvalidAccountData, b[offVersion])
	}
	dataLen := int(binary.LittleEndian.Uint32(b[offDataLen:]))
	if len(b) != StoredHeaderSize+dataLen {
		return nil, fmt.Errorf("%w: data_len %d but %d bytes follow the header", ErrInvalidAccountData, dataLen, len(b)-StoredHeaderSize)
	}
	if b[offExecutable] > 1 {
		return nil, fmt.Errorf("%w: executable flag %d", ErrInvalidAccountData, b[offExecutable])
	}

	account := &types.Account{
		Lamports:   types.Lamports(binary.LittleEndian.Uint64(b[offLamports:])),
		Executable: b[offExecutable] == 1,
		RentEpoch:  types.Epoch(binary.LittleEndian.Uint64(b[offRentEpoch:])),
	}
	copy(account.Owner[:], b[offOwner:offExecutable])
	if dataLen > 0 {
		account.Data = append([]byte(nil), b[StoredHeaderSize:]...)
	}
	return account, nil
}
