package compare

import (
	"github.com/paw-chain/qc/qc/types"
)

// Mode selects the equality rule applied on the slow path.
type Mode string

const (
	// ModeBitExact counts any structural difference between records.
	ModeBitExact Mode = "bit_exact"
	// ModeFPTolerant accepts numeric values within RelTol or MaxULP.
	ModeFPTolerant Mode = "fp_tolerant"
)

// Default tolerances for ModeFPTolerant.
const (
	DefaultRelTol = 1e-4
	DefaultMaxULP = 2
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeBitExact, ModeFPTolerant:
		return m, nil
	default:
		return "", types.ErrInvalidMode.Wrapf("got %q, want %s or %s", s, ModeBitExact, ModeFPTolerant)
	}
}

// Options configures a comparison.
type Options struct {
	Mode   Mode
	RelTol float64
	MaxULP uint64
}

// DefaultOptions returns the default tolerances for mode.
func DefaultOptions(mode Mode) Options {
	return Options{Mode: mode, RelTol: DefaultRelTol, MaxULP: DefaultMaxULP}
}

// Validate rejects unknown modes and negative tolerances.
func (o Options) Validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.RelTol < 0 {
		return types.ErrInvalidArgument.Wrapf("rel_tol must be >= 0, got %g", o.RelTol)
	}
	return nil
}

// Summary carries the diagnostics of a comparison. On the fast path only
// SchemaID is set.
type Summary struct {
	SchemaID    string  `json:"schema_id"`
	RecordCount int     `json:"record_count"`
	RelErrMax   float64 `json:"rel_err_max"`
	ULPMax      uint64  `json:"ulp_max"`
	Differences int     `json:"differences"`
}

// Result is the verdict of a comparison.
type Result struct {
	Equal    bool    `json:"equal"`
	Mode     Mode    `json:"mode"`
	FastPath bool    `json:"fast_path"`
	Summary  Summary `json:"summary"`
}
