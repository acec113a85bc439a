package canon

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"cosmossdk.io/math"
)

// floatValue is a normalized float: either a finite number (never -0.0) or
// one of the special tokens.
type floatValue struct {
	special string
	v       float64
}

// appendValue writes the canonical JSON rendering of a normalized value.
func appendValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case string:
		return appendString(buf, x)
	case floatValue:
		appendFloat(buf, x)
	case math.Int:
		buf.WriteString(x.String())
	case []floatValue:
		buf.WriteByte('[')
		for i, f := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendFloat(buf, f)
		}
		buf.WriteByte(']')
	}
	return nil
}

func appendFloat(buf *bytes.Buffer, f floatValue) {
	if f.special != "" {
		buf.WriteByte('"')
		buf.WriteString(f.special)
		buf.WriteByte('"')
		return
	}
	buf.WriteString(FormatFloat(f.v))
}

// appendString writes s as a JSON string. HTML characters are left as is so
// the output is plain UTF-8.
func appendString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// FormatFloat renders a finite float with the shortest digits that round-trip.
// Decimal exponents in [-4, 16) use fixed notation with at least one fractional
// digit ("1.0", "0.0001"); everything else uses d.ddde±XX ("1e+16", "1.5e-05").
// Zero of either sign renders as "0.0".
func FormatFloat(f float64) string {
	if f == 0 {
		return "0.0"
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expPart)

	var sb strings.Builder
	if strings.HasPrefix(mant, "-") {
		sb.WriteByte('-')
		mant = mant[1:]
	}
	digits := strings.Replace(mant, ".", "", 1)

	if exp >= -4 && exp < 16 {
		if exp >= 0 {
			if len(digits) <= exp+1 {
				sb.WriteString(digits)
				sb.WriteString(strings.Repeat("0", exp+1-len(digits)))
				sb.WriteString(".0")
			} else {
				sb.WriteString(digits[:exp+1])
				sb.WriteByte('.')
				sb.WriteString(digits[exp+1:])
			}
		} else {
			sb.WriteString("0.")
			sb.WriteString(strings.Repeat("0", -exp-1))
			sb.WriteString(digits)
		}
		return sb.String()
	}

	sb.WriteString(digits[:1])
	if len(digits) > 1 {
		sb.WriteByte('.')
		sb.WriteString(digits[1:])
	}
	sb.WriteByte('e')
	if exp < 0 {
		sb.WriteByte('-')
		exp = -exp
	} else {
		sb.WriteByte('+')
	}
	if exp < 10 {
		sb.WriteByte('0')
	}
	sb.WriteString(strconv.Itoa(exp))
	return sb.String()
}
