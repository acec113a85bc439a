package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// Params is the QC sampling policy. It is read-only once loaded; no component
// mutates it.
type Params struct {
	DupRate            math.LegacyDec `json:"dup_rate"`
	CanaryRate         math.LegacyDec `json:"canary_rate"`
	MinCanariesPerPkg  uint64         `json:"min_canaries_per_pkg"`
	SpotRate           math.LegacyDec `json:"spot_rate"`
	MinSpotItemsPerPkg uint64         `json:"min_spot_items_per_pkg"`
}

// DefaultParams returns default QC policy parameters
func DefaultParams() Params {
	return Params{
		DupRate:            math.LegacyNewDecWithPrec(5, 2), // 5%
		CanaryRate:         math.LegacyNewDecWithPrec(1, 3), // 0.1%
		MinCanariesPerPkg:  10,
		SpotRate:           math.LegacyNewDecWithPrec(5, 3), // 0.5%
		MinSpotItemsPerPkg: 20,
	}
}

// Validate checks that every rate is a probability.
func (p Params) Validate() error {
	if err := validateRate("dup_rate", p.DupRate); err != nil {
		return err
	}
	if err := validateRate("canary_rate", p.CanaryRate); err != nil {
		return err
	}
	return validateRate("spot_rate", p.SpotRate)
}

// CanaryCount is max(min_canaries_per_pkg, round(nItems * canary_rate)).
func (p Params) CanaryCount(nItems int) int {
	return ComputeCount(nItems, p.CanaryRate, p.MinCanariesPerPkg)
}

// SpotCount is max(min_spot_items_per_pkg, round(nItems * spot_rate)).
func (p Params) SpotCount(nItems int) int {
	return ComputeCount(nItems, p.SpotRate, p.MinSpotItemsPerPkg)
}

// ComputeCount returns max(floor, round(nItems*rate)). The product is exact and
// rounds half to even.
func ComputeCount(nItems int, rate math.LegacyDec, floor uint64) int {
	scaled := math.LegacyNewDec(int64(nItems)).Mul(rate).RoundInt64()
	if scaled < 0 {
		scaled = 0
	}
	if uint64(scaled) < floor {
		return int(floor)
	}
	return int(scaled)
}

// String renders the params the way the CLI prints them.
func (p Params) String() string {
	return fmt.Sprintf("dup_rate=%s canary_rate=%s min_canaries_per_pkg=%d spot_rate=%s min_spot_items_per_pkg=%d",
		p.DupRate, p.CanaryRate, p.MinCanariesPerPkg, p.SpotRate, p.MinSpotItemsPerPkg)
}

func validateRate(name string, rate math.LegacyDec) error {
	if rate.IsNil() {
		return ErrInvalidParams.Wrapf("%s must be set", name)
	}
	if rate.IsNegative() || rate.GT(math.LegacyOneDec()) {
		return ErrInvalidParams.Wrapf("%s must be within [0,1], got %s", name, rate)
	}
	return nil
}

// NewParams parses decimal rate strings (e.g. "0.05") into validated Params.
func NewParams(dupRate, canaryRate, spotRate string, minCanaries, minSpot uint64) (Params, error) {
	dup, err := math.LegacyNewDecFromStr(dupRate)
	if err != nil {
		return Params{}, ErrInvalidParams.Wrapf("dup_rate %q: %s", dupRate, err)
	}
	canary, err := math.LegacyNewDecFromStr(canaryRate)
	if err != nil {
		return Params{}, ErrInvalidParams.Wrapf("canary_rate %q: %s", canaryRate, err)
	}
	spot, err := math.LegacyNewDecFromStr(spotRate)
	if err != nil {
		return Params{}, ErrInvalidParams.Wrapf("spot_rate %q: %s", spotRate, err)
	}

	p := Params{
		DupRate:            dup,
		CanaryRate:         canary,
		MinCanariesPerPkg:  minCanaries,
		SpotRate:           spot,
		MinSpotItemsPerPkg: minSpot,
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
