package compare

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/paw-chain/qc/qc/schema"
	"github.com/paw-chain/qc/qc/types"
	"github.com/paw-chain/qc/qc/ulp"
)

// walk reads both streams in lock step. Divergent records are counted, not
// returned as errors; a stream that runs out first adds one final difference.
func (c *Comparator) walk(a, b io.Reader, s *schema.Schema, opts Options) (*Result, error) {
	ra, rb := bufio.NewReader(a), bufio.NewReader(b)
	res := &Result{Mode: opts.Mode, Summary: Summary{SchemaID: s.ID}}
	sum := &res.Summary

	for {
		la, err := nextLine(ra)
		if err != nil {
			return nil, err
		}
		lb, err := nextLine(rb)
		if err != nil {
			return nil, err
		}
		if la == nil && lb == nil {
			break
		}
		if la == nil || lb == nil {
			sum.Differences++
			break
		}

		recA, err := decodeRecord(la, sum.RecordCount+1)
		if err != nil {
			return nil, err
		}
		recB, err := decodeRecord(lb, sum.RecordCount+1)
		if err != nil {
			return nil, err
		}
		sum.RecordCount++

		switch opts.Mode {
		case ModeBitExact:
			if !recordsEqual(s, recA, recB) {
				sum.Differences++
			}
		case ModeFPTolerant:
			sum.Differences += tolerantDiffs(s, recA, recB, opts, sum)
		}
	}

	res.Equal = sum.Differences == 0
	return res, nil
}

// nextLine returns the next line without its terminator, or nil at end of
// stream. Read errors other than io.EOF are returned unchanged.
func nextLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(line) == 0 {
		return nil, nil
	}
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'}), nil
}

func decodeRecord(line []byte, n int) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, types.ErrMalformedRecord.Wrapf("record %d: %s", n, err)
	}
	if dec.More() {
		return nil, types.ErrMalformedRecord.Wrapf("record %d: trailing data", n)
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return nil, types.ErrMalformedRecord.Wrapf("record %d: expected object, got %T", n, v)
	}
	return rec, nil
}

// recordsEqual is structural equality with numbers compared by value.
func recordsEqual(s *schema.Schema, a, b map[string]any) bool {
	if !sameKeys(a, b) {
		return false
	}
	for k, va := range a {
		if forbiddenSpecial(s, k, va) || forbiddenSpecial(s, k, b[k]) {
			return false
		}
		if !jsonEqual(va, b[k]) {
			return false
		}
	}
	return true
}

// tolerantDiffs counts mismatching fields of one record pair and folds the
// observed numeric error into sum.
func tolerantDiffs(s *schema.Schema, a, b map[string]any, opts Options, sum *Summary) int {
	if !sameKeys(a, b) {
		return 1
	}

	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	diffs := 0
	for _, k := range keys {
		va, vb := a[k], b[k]
		if forbiddenSpecial(s, k, va) || forbiddenSpecial(s, k, vb) {
			diffs++
			continue
		}
		if jsonEqual(va, vb) {
			continue
		}

		ea, aIsVec := va.([]any)
		eb, bIsVec := vb.([]any)
		switch {
		case aIsVec && bIsVec:
			if len(ea) != len(eb) {
				diffs++
				continue
			}
			for i := range ea {
				if !sameNumeric(ea[i], eb[i], opts, sum) {
					diffs++
					break
				}
			}
		case isNumeric(va) || isNumeric(vb):
			if !sameNumeric(va, vb, opts, sum) {
				diffs++
			}
		default:
			diffs++
		}
	}
	return diffs
}

// sameNumeric applies the tolerance rule to a pair of scalars. Special tokens
// only match themselves; zeros of either sign always match.
func sameNumeric(a, b any, opts Options, sum *Summary) bool {
	if types.IsSpecialToken(a) || types.IsSpecialToken(b) {
		return a == b
	}
	na, okA := a.(json.Number)
	nb, okB := b.(json.Number)
	if !okA || !okB {
		return false
	}
	fa, errA := na.Float64()
	fb, errB := nb.Float64()
	if errA != nil || errB != nil {
		return false
	}
	if fa == 0 && fb == 0 {
		return true
	}

	relErr := ulp.RelErr(fa, fb)
	dist := ulp.Distance(fa, fb)
	if relErr > sum.RelErrMax {
		sum.RelErrMax = relErr
	}
	if dist > sum.ULPMax {
		sum.ULPMax = dist
	}
	// OR, not AND: 1.2 and 1.2000001 lie within rel_tol but ~4.5e8 ULPs apart.
	return relErr <= opts.RelTol || dist <= opts.MaxULP
}

func isNumeric(v any) bool {
	if _, ok := v.(json.Number); ok {
		return true
	}
	return types.IsSpecialToken(v)
}

// forbiddenSpecial reports a special token in a numeric field of a schema that
// does not admit them.
func forbiddenSpecial(s *schema.Schema, name string, v any) bool {
	if s.AllowSpecialFloats {
		return false
	}
	f, ok := s.Field(name)
	if !ok {
		return false
	}
	switch f.Type {
	case schema.FieldFloat:
		return types.IsSpecialToken(v)
	case schema.FieldVector:
		elems, _ := v.([]any)
		for _, e := range elems {
			if types.IsSpecialToken(e) {
				return true
			}
		}
	}
	return false
}

func sameKeys(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// jsonEqual compares decoded JSON values. Numbers are equal when they denote
// the same decimal value, so 1 and 1.0 match.
func jsonEqual(a, b any) bool {
	switch va := a.(type) {
	case json.Number:
		vb, ok := b.(json.Number)
		if !ok {
			return false
		}
		return va == vb || numbersEqual(string(va), string(vb))
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !jsonEqual(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || !sameKeys(va, vb) {
			return false
		}
		for k := range va {
			if !jsonEqual(va[k], vb[k]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// decimal is a number literal reduced to its significant digits and a power
// of ten: value = digits * 10^exp. Zero is digits "0", exp 0, never negative.
type decimal struct {
	neg    bool
	digits string
	exp    *big.Int
}

// parseDecimal reduces a JSON number literal. Only the exponent is held as an
// integer, so the cost is linear in the literal length whatever its magnitude.
func parseDecimal(s string) (decimal, bool) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	mant, expStr := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant, expStr = s[:i], s[i+1:]
	}
	exp := new(big.Int)
	if expStr != "" {
		if _, ok := exp.SetString(expStr, 10); !ok {
			return decimal{}, false
		}
	}

	intPart, frac, _ := strings.Cut(mant, ".")
	digits := intPart + frac
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return decimal{}, false
	}
	exp.Sub(exp, big.NewInt(int64(len(frac))))

	trimmed := strings.TrimRight(digits, "0")
	exp.Add(exp, big.NewInt(int64(len(digits)-len(trimmed))))
	trimmed = strings.TrimLeft(trimmed, "0")
	if trimmed == "" {
		return decimal{digits: "0", exp: new(big.Int)}, true
	}
	return decimal{neg: neg, digits: trimmed, exp: exp}, true
}

// numbersEqual reports whether two number literals denote the same value.
func numbersEqual(a, b string) bool {
	da, okA := parseDecimal(a)
	db, okB := parseDecimal(b)
	return okA && okB && da.neg == db.neg && da.digits == db.digits && da.exp.Cmp(db.exp) == 0
}
