package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatUnits converts a raw base-unit amount to a human-readable decimal
// string. Example: amount=1234500000000000000, decimals=18 => "1.2345".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)

	s := value.Text('f', int(decimals))
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// ParseUnits converts a decimal string to base units. It is the inverse of
// FormatUnits and rejects more fractional digits than the asset carries.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(value, "-")
	if neg {
		return nil, fmt.Errorf("negative amount %q", value)
	}

	whole, frac := value, ""
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole, frac = value[:i], value[i+1:]
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", value, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return big.NewInt(0), nil
	}
	out, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return out, nil
}

// ValueUSD computes the USD value of a raw base-unit amount at a unit price.
func ValueUSD(amount *big.Int, decimals uint8, priceUSD float64) float64 {
	if amount == nil || priceUSD == 0 {
		return 0
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	units := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)
	value, _ := new(big.Float).Mul(units, big.NewFloat(priceUSD)).Float64()
	return value
}
