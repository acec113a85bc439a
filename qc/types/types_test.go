package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestDefaultParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestNewParams(t *testing.T) {
	p, err := NewParams("0.05", "0.001", "0.005", 10, 20)
	require.NoError(t, err)
	require.True(t, p.DupRate.Equal(math.LegacyNewDecWithPrec(5, 2)))

	_, err = NewParams("1.5", "0.001", "0.005", 10, 20)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewParams("abc", "0.001", "0.005", 10, 20)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewParams("0.05", "-0.1", "0.005", 10, 20)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestComputeCount(t *testing.T) {
	tests := []struct {
		name   string
		nItems int
		rate   string
		floor  uint64
		want   int
	}{
		{"floor wins", 1000, "0.001", 10, 10},
		{"rate wins", 100000, "0.005", 20, 500},
		{"half rounds to even down", 25, "0.1", 0, 2},
		{"half rounds to even up", 35, "0.1", 0, 4},
		{"zero rate", 500, "0", 3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeCount(tc.nItems, math.LegacyMustNewDecFromStr(tc.rate), tc.floor)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestIsSpecialToken(t *testing.T) {
	require.True(t, IsSpecialToken("NaN"))
	require.True(t, IsSpecialToken("Inf"))
	require.True(t, IsSpecialToken("-Inf"))
	require.False(t, IsSpecialToken("nan"))
	require.False(t, IsSpecialToken("Infinity"))
	require.False(t, IsSpecialToken(1.0))
}

func TestRecoverySuggestion(t *testing.T) {
	err := ErrUnknownSchema.Wrap("schema_id nope@1")
	require.Contains(t, RecoverySuggestion(err), "schema id")
	require.Contains(t, RecoverySuggestion(nil), "No recovery suggestion")

	tooLarge := ErrUploadTooLarge.Wrapf("limit %d bytes", 1024)
	require.Contains(t, RecoverySuggestion(tooLarge), "max_upload_bytes")
	require.Equal(t, uint32(26), ErrUploadTooLarge.ABCICode())
	require.Equal(t, ModuleName, ErrUploadTooLarge.Codespace())
}
