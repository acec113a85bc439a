package canon

import (
	"encoding/json"
	"fmt"
	stdmath "math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/cast"

	"github.com/paw-chain/qc/qc/schema"
	"github.com/paw-chain/qc/qc/types"
)

// TimestampLayout is the canonical timestamp rendering: UTC, millisecond
// precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// timestampInputs are the accepted timestamp encodings. Layouts without a zone
// are interpreted as UTC.
var timestampInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// normalizer turns raw records into canonical field values for one schema.
// It carries the cross-record state needed for vector length checks.
type normalizer struct {
	schema    *schema.Schema
	vectorLen map[string]int
}

func newNormalizer(s *schema.Schema) *normalizer {
	return &normalizer{schema: s, vectorLen: make(map[string]int)}
}

// record is one normalized record: values aligned with schema.Fields, nil for
// dropped optional fields.
type record []any

func (n *normalizer) normalize(idx int, raw map[string]any) (record, error) {
	rec := make(record, len(n.schema.Fields))
	for i, f := range n.schema.Fields {
		val, ok := lookup(raw, f)
		if !ok || val == nil {
			if f.Optional {
				continue
			}
			return nil, types.ErrMissingField.Wrapf("record %d: %s", idx, f.Name)
		}
		if f.Optional && isBlank(val) {
			continue
		}

		norm, err := n.normalizeField(f, val)
		if err != nil {
			return nil, fmt.Errorf("record %d field %s: %w", idx, f.Name, err)
		}
		rec[i] = norm
	}
	return rec, nil
}

func lookup(raw map[string]any, f schema.Field) (any, bool) {
	if v, ok := raw[f.Name]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := raw[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func (n *normalizer) normalizeField(f schema.Field, v any) (any, error) {
	switch f.Type {
	case schema.FieldString:
		return normalizeString(v)
	case schema.FieldFloat:
		return normalizeFloat(v, n.schema.AllowSpecialFloats)
	case schema.FieldInteger:
		return normalizeInteger(v)
	case schema.FieldTimestamp:
		return normalizeTimestamp(v)
	case schema.FieldVector:
		vec, err := normalizeVector(v, n.schema.AllowSpecialFloats)
		if err != nil {
			return nil, err
		}
		if want, seen := n.vectorLen[f.Name]; seen && want != len(vec) {
			return nil, types.ErrValueError.Wrapf("vector length mismatch: expected %d, got %d", want, len(vec))
		}
		n.vectorLen[f.Name] = len(vec)
		return vec, nil
	}
	return nil, types.ErrInvalidSchema.Wrapf("field type %q", f.Type)
}

func normalizeString(v any) (string, error) {
	switch x := v.(type) {
	case map[string]any, []any:
		return "", types.ErrTypeMismatch.Wrapf("expected scalar, got %T", v)
	case json.Number:
		return x.String(), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", types.ErrTypeMismatch.Wrap(err.Error())
	}
	return s, nil
}

func normalizeFloat(v any, allowSpecial bool) (floatValue, error) {
	if types.IsSpecialToken(v) {
		if !allowSpecial {
			return floatValue{}, types.ErrValueError.Wrapf("special float token %q not permitted by schema", v)
		}
		return floatValue{special: v.(string)}, nil
	}

	switch x := v.(type) {
	case map[string]any, []any, bool:
		return floatValue{}, types.ErrTypeMismatch.Wrapf("expected number, got %T", v)
	case json.Number:
		v = x.String()
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return floatValue{}, types.ErrValueError.Wrap("empty float value")
		}
		v = x
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return floatValue{}, types.ErrValueError.Wrapf("not a number: %v", v)
	}
	if stdmath.IsNaN(f) || stdmath.IsInf(f, 0) {
		return floatValue{}, types.ErrValueError.Wrapf("non-finite value %v must be encoded as a special token", v)
	}
	if f == 0 {
		f = 0 // collapses -0.0
	}
	return floatValue{v: f}, nil
}

func normalizeInteger(v any) (math.Int, error) {
	var text string
	switch x := v.(type) {
	case json.Number:
		text = x.String()
	case string:
		text = strings.TrimSpace(x)
	case float64:
		if x != stdmath.Trunc(x) || stdmath.IsInf(x, 0) {
			return math.Int{}, types.ErrValueError.Wrapf("not an integer: %v", x)
		}
		text = strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any, []any, bool:
		return math.Int{}, types.ErrTypeMismatch.Wrapf("expected integer, got %T", v)
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return math.Int{}, types.ErrTypeMismatch.Wrap(err.Error())
		}
		return math.NewInt(i), nil
	}

	// Base 10 only: "010" is ten, and prefixes or digit separators are errors.
	if b, ok := new(big.Int).SetString(text, 10); ok {
		if b.BitLen() > math.MaxBitLen {
			return math.Int{}, types.ErrValueError.Wrapf("integer %q exceeds %d bits", text, math.MaxBitLen)
		}
		return math.NewIntFromBigInt(b), nil
	}
	// Integral decimal floats such as "3.0" or "1e3" are accepted.
	if !decimalLiteral.MatchString(text) {
		return math.Int{}, types.ErrValueError.Wrapf("not an integer: %q", text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != stdmath.Trunc(f) || stdmath.Abs(f) > 1<<53 {
		return math.Int{}, types.ErrValueError.Wrapf("not an integer: %q", text)
	}
	return math.NewInt(int64(f)), nil
}

// decimalLiteral matches plain decimal numbers with an optional exponent.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

func normalizeTimestamp(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", types.ErrTypeMismatch.Wrapf("timestamp must be a string, got %T", v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampInputs {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		return t.Truncate(time.Millisecond).Format(TimestampLayout), nil
	}
	return "", types.ErrValueError.Wrapf("unparseable timestamp %q", s)
}

func normalizeVector(v any, allowSpecial bool) ([]floatValue, error) {
	var elems []any
	switch x := v.(type) {
	case []any:
		elems = x
	case []float64:
		elems = make([]any, len(x))
		for i, f := range x {
			elems[i] = f
		}
	default:
		return nil, types.ErrTypeMismatch.Wrapf("vector must be a list, got %T", v)
	}

	out := make([]floatValue, len(elems))
	for i, e := range elems {
		f, err := normalizeFloat(e, allowSpecial)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}
