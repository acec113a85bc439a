// Package dispute turns sampled mismatch counts into accept or slash
// decisions with an exact one-sided binomial test.
package dispute

import (
	"math"

	"github.com/paw-chain/qc/qc/metrics"
	"github.com/paw-chain/qc/qc/types"
)

// Outcome of a dispute.
type Outcome string

const (
	OutcomeAccept      Outcome = "accept"
	OutcomeRejectSlash Outcome = "reject_slash"
)

// Default test parameters: 1% tolerated error rate at 1% significance.
const (
	DefaultEps0  = 0.01
	DefaultAlpha = 0.01
)

// Decision records the inputs and statistics behind an outcome.
type Decision struct {
	Outcome   Outcome `json:"outcome"`
	XMismatch int     `json:"x_mismatch"`
	NChecked  int     `json:"n_checked"`
	Eps0      float64 `json:"eps0"`
	Alpha     float64 `json:"alpha"`
	// CDF is P(X <= x) under the null hypothesis.
	CDF float64 `json:"cdf"`
	// PValue is P(X >= x) under the null hypothesis.
	PValue float64 `json:"p_value"`
}

// Decide tests H0 "error rate <= eps0" against x mismatches out of n checked
// items and rejects when the observation is significant at alpha.
func Decide(x, n int, eps0, alpha float64) (Outcome, error) {
	d, err := Evaluate(x, n, eps0, alpha)
	if err != nil {
		return "", err
	}
	return d.Outcome, nil
}

// Evaluate is Decide with the test statistics attached.
func Evaluate(x, n int, eps0, alpha float64) (*Decision, error) {
	if err := validate(x, n, eps0, alpha); err != nil {
		return nil, err
	}

	d := &Decision{
		XMismatch: x,
		NChecked:  n,
		Eps0:      eps0,
		Alpha:     alpha,
		CDF:       BinomialCDF(x, n, eps0),
		PValue:    BinomialSF(x, n, eps0),
	}
	d.Outcome = OutcomeRejectSlash
	if d.PValue >= alpha {
		d.Outcome = OutcomeAccept
	}

	metrics.NewQCMetrics().DisputeDecisions.WithLabelValues(string(d.Outcome)).Inc()
	return d, nil
}

func validate(x, n int, eps0, alpha float64) error {
	if n <= 0 {
		return types.ErrInvalidArgument.Wrapf("n_checked must be > 0, got %d", n)
	}
	if x < 0 || x > n {
		return types.ErrInvalidArgument.Wrapf("x_mismatch must be within [0,%d], got %d", n, x)
	}
	if !(eps0 >= 0 && eps0 <= 1) {
		return types.ErrInvalidArgument.Wrapf("eps0 must be within [0,1], got %g", eps0)
	}
	if !(alpha >= 0 && alpha <= 1) {
		return types.ErrInvalidArgument.Wrapf("alpha must be within [0,1], got %g", alpha)
	}
	return nil
}

// BinomialCDF returns P(X <= k) for X ~ Binomial(n, p). Terms are summed in
// log space from 0 up to k, so the result never decreases as k grows.
func BinomialCDF(k, n int, p float64) float64 {
	switch {
	case k < 0:
		return 0
	case k >= n:
		return 1
	case p <= 0:
		return 1
	case p >= 1:
		return 0
	}

	lp, lq := math.Log(p), math.Log1p(-p)
	sum := 0.0
	for i := 0; i <= k; i++ {
		sum += math.Exp(logPMF(i, n, lp, lq))
	}
	return math.Min(sum, 1)
}

// BinomialSF returns P(X >= k) for X ~ Binomial(n, p). Terms are summed from
// n down to k, so the result never increases as k grows.
func BinomialSF(k, n int, p float64) float64 {
	switch {
	case k <= 0:
		return 1
	case k > n:
		return 0
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	}

	lp, lq := math.Log(p), math.Log1p(-p)
	sum := 0.0
	for i := n; i >= k; i-- {
		sum += math.Exp(logPMF(i, n, lp, lq))
	}
	return math.Min(sum, 1)
}

// logPMF is log C(n,i) + i*log(p) + (n-i)*log(1-p).
func logPMF(i, n int, lp, lq float64) float64 {
	return lgamma(n+1) - lgamma(i+1) - lgamma(n-i+1) + float64(i)*lp + float64(n-i)*lq
}

func lgamma(n int) float64 {
	v, _ := math.Lgamma(float64(n))
	return v
}
