package canon

import (
	"strings"

	"cosmossdk.io/math"

	"github.com/paw-chain/qc/qc/schema"
	"github.com/paw-chain/qc/qc/types"
)

func primaryKeyIndexes(s *schema.Schema) []int {
	idx := make([]int, 0, len(s.PrimaryKey))
	for _, k := range s.PrimaryKey {
		for i, f := range s.Fields {
			if f.Name == k {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

// compareKeys orders two records by the primary-key tuple. An absent optional
// key sorts before any present value.
func compareKeys(s *schema.Schema, keys []int, a, b record) int {
	for _, i := range keys {
		if cmp := compareValue(s.Fields[i].Type, a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func compareValue(t schema.FieldType, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch t {
	case schema.FieldInteger:
		return a.(math.Int).BigInt().Cmp(b.(math.Int).BigInt())
	case schema.FieldFloat:
		return compareFloat(a.(floatValue), b.(floatValue))
	default:
		// strings and canonical timestamps order lexicographically
		return strings.Compare(a.(string), b.(string))
	}
}

// compareFloat orders -Inf < finite < Inf < NaN.
func compareFloat(a, b floatValue) int {
	ra, rb := floatRank(a), floatRank(b)
	if ra != rb {
		return ra - rb
	}
	if ra != 1 {
		return 0
	}
	switch {
	case a.v < b.v:
		return -1
	case a.v > b.v:
		return 1
	}
	return 0
}

func floatRank(f floatValue) int {
	switch f.special {
	case types.TokenNegInf:
		return 0
	case types.TokenInf:
		return 2
	case types.TokenNaN:
		return 3
	}
	return 1
}
