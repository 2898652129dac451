package tip20

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMemoTooLong   = errors.New("memo longer than 32 bytes")
)

// ParseUnits converts a decimal string such as "1.5" into base units with
// the given number of decimals. It rejects negative values and more
// fractional digits than decimals allows.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return n, nil
}

// FormatUnits renders base units as a decimal string, trimming trailing
// fractional zeros.
func FormatUnits(n *big.Int, decimals uint8) string {
	if n == nil {
		return "0"
	}
	neg := n.Sign() < 0
	digits := new(big.Int).Abs(n).String()
	d := int(decimals)
	if len(digits) <= d {
		digits = strings.Repeat("0", d-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-d], strings.TrimRight(digits[len(digits)-d:], "0")
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseMemo turns a memo argument into bytes32. A 0x-prefixed value is
// decoded as hex and left-padded; anything else is taken as UTF-8 text and
// right-padded.
func ParseMemo(s string) (common.Hash, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := hexBytes(s)
		if err != nil {
			return common.Hash{}, fmt.Errorf("memo: %w", err)
		}
		if len(b) > common.HashLength {
			return common.Hash{}, ErrMemoTooLong
		}
		return common.BytesToHash(b), nil
	}
	if len(s) > common.HashLength {
		return common.Hash{}, ErrMemoTooLong
	}
	var h common.Hash
	copy(h[:], s)
	return h, nil
}

// FormatMemo renders a memo as text when it is printable UTF-8 padded with
// zeros, and as hex otherwise.
func FormatMemo(h common.Hash) string {
	text := strings.TrimRight(string(h[:]), "\x00")
	if text == "" {
		return h.Hex()
	}
	for _, r := range text {
		if r < 0x20 || r == 0x7f || r == utf8.RuneError {
			return h.Hex()
		}
	}
	return text
}

func hexBytes(s string) ([]byte, error) {
	s = s[2:]
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}
