// Package proof checks algebraic certificates submitted with linear-algebra
// and factoring jobs.
package proof

import (
	"math/bits"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/paw-chain/qc/qc/types"
)

// bitVector is a bit string packed into 64-bit words, most significant
// character first.
type bitVector struct {
	words []uint64
	n     int
}

// parseBits accepts only '0' and '1' after trimming surrounding whitespace.
func parseBits(s string) (bitVector, error) {
	s = strings.TrimSpace(s)
	v := bitVector{words: make([]uint64, (len(s)+63)/64), n: len(s)}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			v.words[i/64] |= 1 << (uint(i) % 64)
		default:
			return bitVector{}, types.ErrInvalidBitString.Wrapf("unexpected %q at position %d", s[i], i)
		}
	}
	return v, nil
}

// dot is the inner product of v and w over GF(2).
func (v bitVector) dot(w bitVector) uint {
	var parity int
	for i := range v.words {
		parity += bits.OnesCount64(v.words[i] & w.words[i])
	}
	return uint(parity & 1)
}

// VerifyGF2 reports whether M·v = 0 over GF(2), where each entry of rows is a
// row of M. Every row must have as many bits as the vector; this is checked
// for all rows before any product is computed.
func VerifyGF2(rows []string, vector string) (bool, error) {
	v, err := parseBits(vector)
	if err != nil {
		return false, errorsmod.Wrap(err, "vector")
	}

	matrix := make([]bitVector, len(rows))
	for i, row := range rows {
		r, err := parseBits(row)
		if err != nil {
			return false, errorsmod.Wrapf(err, "row %d", i)
		}
		if r.n != v.n {
			return false, types.ErrRowLengthMismatch.Wrapf("row %d has %d bits, vector has %d", i, r.n, v.n)
		}
		matrix[i] = r
	}

	for _, r := range matrix {
		if r.dot(v) != 0 {
			return false, nil
		}
	}
	return true, nil
}
