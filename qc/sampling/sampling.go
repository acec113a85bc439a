// Package sampling plans which items of a package are audited.
//
// Plans are a pure function of the request and a secret: providers cannot
// predict the sampled positions before they commit to their output, and any
// auditor holding the same secret reproduces the same plan.
package sampling

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/paw-chain/qc/qc/metrics"
	"github.com/paw-chain/qc/qc/types"
)

// Request identifies the package to plan for.
type Request struct {
	JobID       string `json:"job_id"`
	Window      string `json:"window"`
	Tier        string `json:"tier"`
	PackageID   string `json:"package_id"`
	NItems      int    `json:"n_items"`
	SecretEpoch string `json:"secret_epoch"`
	// SeedHex, when set, replaces the derived job seed.
	SeedHex string `json:"seed_hex,omitempty"`
}

// Plan is the audit plan for one package. Seeds are deliberately absent.
type Plan struct {
	DupSelected   bool  `json:"dup_selected"`
	CanaryIndices []int `json:"canary_indices"`
	SpotIndices   []int `json:"spot_indices"`
	CanaryCount   int   `json:"canary_count"`
	SpotCount     int   `json:"spot_count"`
}

// Sampler plans packages under a fixed policy and master secret.
type Sampler struct {
	params  types.Params
	secret  SecretSource
	logger  log.Logger
	metrics *metrics.QCMetrics
}

// NewSampler validates params and returns a sampler. secret may be nil when
// every request carries an explicit seed.
func NewSampler(params types.Params, secret SecretSource, logger log.Logger) (*Sampler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Sampler{
		params:  params,
		secret:  secret,
		logger:  logger.With("module", "qc/sampling"),
		metrics: metrics.NewQCMetrics(),
	}, nil
}

// Plan computes the sampling plan for req.
func (s *Sampler) Plan(req Request) (*Plan, error) {
	plan, err := PlanSampling(req, s.params, s.secret)
	if err != nil {
		return nil, err
	}

	source := "derived"
	if req.SeedHex != "" {
		source = "explicit"
	}
	s.metrics.SamplingPlans.WithLabelValues(strconv.FormatBool(plan.DupSelected), source).Inc()
	s.logger.Debug("sampling plan computed",
		"job_id", req.JobID,
		"package_id", req.PackageID,
		"n_items", req.NItems,
		"dup_selected", plan.DupSelected,
		"canaries", len(plan.CanaryIndices),
		"spots", len(plan.SpotIndices),
		"seed_source", source,
	)
	return plan, nil
}

// PlanSampling computes a plan with the given policy and master secret. Canary
// and spot indices are both drawn from the package seed's generator starting
// at counter 0, which is also the duplication draw.
func PlanSampling(req Request, params types.Params, secret SecretSource) (*Plan, error) {
	if req.NItems <= 0 {
		return nil, types.ErrInvalidItemCount.Wrapf("n_items must be > 0, got %d", req.NItems)
	}

	jobSeed, err := resolveJobSeed(req, secret)
	if err != nil {
		return nil, err
	}
	pkgSeed := DerivePackageSeed(jobSeed, req.PackageID)

	canaryCount := params.CanaryCount(req.NItems)
	spotCount := params.SpotCount(req.NItems)
	return &Plan{
		DupSelected:   DupSelected(pkgSeed, params.DupRate),
		CanaryIndices: ChooseIndices(pkgSeed, req.NItems, canaryCount),
		SpotIndices:   ChooseIndices(pkgSeed, req.NItems, spotCount),
		CanaryCount:   canaryCount,
		SpotCount:     spotCount,
	}, nil
}

func resolveJobSeed(req Request, secret SecretSource) ([]byte, error) {
	if req.SeedHex != "" {
		return ParseSeed(req.SeedHex)
	}
	if secret == nil {
		return nil, types.ErrMissingMasterKey.Wrap("no master secret configured and no explicit seed given")
	}

	var seed []byte
	err := secret.UseMasterKey(func(key []byte) error {
		seed = DeriveJobSeed(key, req.JobID, req.Window, req.Tier, req.SecretEpoch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seed, nil
}

// ParseSeed decodes a hex seed with an optional 0x prefix.
func ParseSeed(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	seed, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, types.ErrInvalidSeed.Wrapf("%q: %s", s, err)
	}
	if len(seed) == 0 {
		return nil, types.ErrInvalidSeed.Wrapf("%q decodes to no bytes", s)
	}
	return seed, nil
}

// two256 is the size of the DRBG output range.
var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// DupSelected rolls the package's duplication decision: the first DRBG output,
// read as a fraction of 2^256, is compared with rate without rounding either
// side.
func DupSelected(pkgSeed []byte, rate math.LegacyDec) bool {
	if rate.IsNil() || !rate.IsPositive() {
		return false
	}
	// draw/2^256 < rate  <=>  draw*10^18 < rate*10^18*2^256
	lhs := new(big.Int).Mul(DRBG(pkgSeed, 0), math.LegacyOneDec().BigInt())
	rhs := new(big.Int).Mul(rate.BigInt(), two256)
	return lhs.Cmp(rhs) < 0
}
