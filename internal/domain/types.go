package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the number of decimals of the voting token and the
// treasury's native unit.
const TokenDecimals int32 = 18

// ParseAmount converts a whole-unit decimal string ("1.5") into base units.
// A "wei:" prefix takes the value as raw base units.
func ParseAmount(s string, decimals int32) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if raw, ok := strings.CutPrefix(s, "wei:"); ok {
		v, err := uint256.FromDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q: %v", ErrInvalidParameter, s, err)
		}
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %v", ErrInvalidParameter, s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: amount %q is negative", ErrInvalidParameter, s)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimals", ErrInvalidParameter, s, decimals)
	}
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: amount %q overflows", ErrInvalidParameter, s)
	}
	return v, nil
}

// FormatAmount renders base units as a whole-unit decimal string.
func FormatAmount(v *uint256.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -decimals).String()
}

// ParseAddress parses a hex address, rejecting malformed input.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", ErrInvalidParameter, s)
	}
	return common.HexToAddress(s), nil
}

// ParseHash parses a 32-byte hex value. Shorter input is left-padded.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hexutil.Decode("0x" + s)
	if err != nil || len(b) > common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: invalid 32-byte value %q", ErrInvalidParameter, s)
	}
	return common.BytesToHash(b), nil
}
