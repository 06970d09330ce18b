package rpc

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/mr-tron/base58"
)

// Encoding types accepted for account data and transactions.
const (
	EncodingBase58     = "base58"
	EncodingBase64     = "base64"
	EncodingBase64Zstd = "base64+zstd"
)

// maxBase58Data bounds account data returned as base58.
const maxBase58Data = 128

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

type codec struct {
	encode func([]byte) (string, error)
	decode func(string) ([]byte, error)
}

var codecs = map[string]codec{
	EncodingBase58: {
		encode: func(data []byte) (string, error) {
			if len(data) > maxBase58Data {
				return "", fmt.Errorf("%d bytes is too large for base58, use base64", len(data))
			}
			return base58.Encode(data), nil
		},
		decode: base58.Decode,
	},
	EncodingBase64: {
		encode: func(data []byte) (string, error) { return base64.StdEncoding.EncodeToString(data), nil },
		decode: base64.StdEncoding.DecodeString,
	},
	EncodingBase64Zstd: {
		encode: func(data []byte) (string, error) {
			return base64.StdEncoding.EncodeToString(zstdEncoder.EncodeAll(data, nil)), nil
		},
		decode: func(s string) ([]byte, error) {
			compressed, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, err
			}
			return zstdDecoder.DecodeAll(compressed, nil)
		},
	},
}

// lookup resolves encoding, defaulting to base64.
func lookup(encoding string) (string, codec, error) {
	if encoding == "" {
		encoding = EncodingBase64
	}
	c, ok := codecs[encoding]
	if !ok {
		return "", codec{}, fmt.Errorf("unsupported encoding: %s", encoding)
	}
	return encoding, c, nil
}

// EncodeAccountData encodes account data as a [data, encoding] pair.
func EncodeAccountData(data []byte, encoding string) ([]interface{}, error) {
	name, c, err := lookup(encoding)
	if err != nil {
		return nil, err
	}
	encoded, err := c.encode(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{encoded, name}, nil
}

// DecodeAccountData reverses EncodeAccountData.
func DecodeAccountData(encoded string, encoding string) ([]byte, error) {
	_, c, err := lookup(encoding)
	if err != nil {
		return nil, err
	}
	return c.decode(encoded)
}

func ValidateEncoding(encoding string) error {
	_, _, err := lookup(encoding)
	return err
}

// SliceData returns the part of data selected by slice, clamped to the
// data length.
func SliceData(data []byte, slice *DataSlice) []byte {
	if slice == nil {
		return data
	}
	dataLen := uint64(len(data))
	if slice.Offset >= dataLen {
		return []byte{}
	}
	end := slice.Offset + slice.Length
	if end > dataLen || end < slice.Offset {
		end = dataLen
	}
	return data[slice.Offset:end]
}

// FormatUnits renders amount with decimals fractional digits, trimming
// trailing zeros.
func FormatUnits(amount uint64, decimals uint8) string {
	s := strconv.FormatUint(amount, 10)
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
