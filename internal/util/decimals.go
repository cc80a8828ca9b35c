package util

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// NativeDecimals is the number of decimal places of the lumen (1 XLM = 10^7 stroops).
const NativeDecimals = 7

var (
	ErrEmptyAmount     = errors.New("amount cannot be empty")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has more decimal places than the asset supports")
)

// IsNativeToken checks if the asset identifier names the native lumen
func IsNativeToken(token string) bool {
	return token == "" || strings.EqualFold(token, "native") || strings.EqualFold(token, "XLM")
}

// ToBaseUnits converts a human-readable amount to base units
// e.g., "10" XLM (7 decimals) -> "100000000"
//
// The conversion is exact: an amount with more fractional digits than
// decimals is rejected instead of truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, ErrEmptyAmount
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals: %d", decimals)
	}

	// Handle negative numbers
	negative := false
	digits := amount
	switch {
	case strings.HasPrefix(digits, "-"):
		negative = true
		digits = digits[1:]
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}

	whole, frac, _ := strings.Cut(digits, ".")
	if strings.Contains(frac, ".") || (whole == "" && frac == "") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	// Trailing zeros never change the value, so they don't count against decimals
	frac = strings.TrimRight(frac, "0")
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %s has %d, max %d", ErrTooManyDecimals, amount, len(frac), decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}

	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if negative {
		result.Neg(result)
	}
	return result, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FromBaseUnits converts base units to a human-readable amount
// e.g., "10000000" with 7 decimals -> "1"
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	negative := false
	if strings.HasPrefix(str, "-") {
		negative = true
		str = str[1:]
	}
	if decimals <= 0 {
		if negative {
			return "-" + str
		}
		return str
	}

	// Pad with leading zeros if needed
	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	// Insert decimal point
	insertPos := len(str) - decimals
	whole := str[:insertPos]
	frac := strings.TrimRight(str[insertPos:], "0")

	result := whole
	if frac != "" {
		result = whole + "." + frac
	}
	if negative {
		result = "-" + result
	}
	return result
}

// CompareDecimal compares two decimal strings exactly at the given scale.
func CompareDecimal(a, b string, decimals int) (int, error) {
	x, err := ToBaseUnits(a, decimals)
	if err != nil {
		return 0, err
	}
	y, err := ToBaseUnits(b, decimals)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}
