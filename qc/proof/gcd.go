package proof

import (
	"math/big"
	"strings"

	"github.com/paw-chain/qc/qc/types"
)

// GCDFactor returns gcd(|x-y|, n). For a congruence of squares x² ≡ y² (mod n)
// the result is a factor of n; it is non-trivial unless it equals 1 or n.
func GCDFactor(n, x, y *big.Int) (*big.Int, error) {
	if n == nil || x == nil || y == nil {
		return nil, types.ErrInvalidArgument.Wrap("n, x and y are required")
	}
	if n.Sign() <= 0 {
		return nil, types.ErrInvalidArgument.Wrapf("n must be positive, got %s", n)
	}
	diff := new(big.Int).Sub(x, y)
	diff.Abs(diff)
	return new(big.Int).GCD(nil, nil, diff, n), nil
}

// IsNonTrivialFactor reports whether f splits n.
func IsNonTrivialFactor(f, n *big.Int) bool {
	return f.Cmp(big.NewInt(1)) > 0 && f.Cmp(n) < 0
}

// ParseInteger reads a decimal or 0x-prefixed hexadecimal integer of any size.
func ParseInteger(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	base := 10
	if hexDigits, ok := strings.CutPrefix(strings.ToLower(trimmed), "0x"); ok {
		trimmed, base = hexDigits, 16
	}
	v, ok := new(big.Int).SetString(trimmed, base)
	if !ok {
		return nil, types.ErrInvalidArgument.Wrapf("not an integer: %q", s)
	}
	return v, nil
}
