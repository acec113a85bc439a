package dispute

import (
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/paw-chain/qc/qc/types"
)

// DetectProbSpot is the chance that nSpot independent spot checks catch at
// least one bad item when a fraction eps of items is bad.
func DetectProbSpot(eps float64, nSpot int) float64 {
	return 1 - math.Pow(1-eps, float64(nSpot))
}

// DetectProbCanary is DetectProbSpot for canary items.
func DetectProbCanary(eps float64, nCanary int) float64 {
	return 1 - math.Pow(1-eps, float64(nCanary))
}

// DetectProbTotal combines the three audit mechanisms for one package.
// Duplication is assumed to catch any mismatch; spot and canary checks are
// treated as independent.
func DetectProbTotal(eps float64, nSpot, nCanary int, dupRate float64) float64 {
	pSpot := DetectProbSpot(eps, nSpot)
	pCanary := DetectProbCanary(eps, nCanary)
	pNonDup := 1 - (1-pSpot)*(1-pCanary)
	return dupRate + (1-dupRate)*pNonDup
}

// DetectionRow is the detection probability at one error rate.
type DetectionRow struct {
	Eps     float64 `json:"eps"`
	PDetect float64 `json:"p_detect"`
}

// DetectionReport is the detection power of a policy for packages of NItems.
type DetectionReport struct {
	NItems  int            `json:"n_items"`
	NCanary int            `json:"n_canary"`
	NSpot   int            `json:"n_spot"`
	DupRate float64        `json:"dup_rate"`
	Rows    []DetectionRow `json:"rows"`
}

// DetectionTable evaluates params at each error rate in epsValues.
func DetectionTable(epsValues []float64, nItems int, params types.Params) (*DetectionReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return detectionReport(epsValues, nItems, params.DupRate, params.CanaryCount(nItems), params.SpotCount(nItems))
}

// TuningCell is one (dup rate, spot rate) candidate of a tuning grid.
type TuningCell struct {
	SpotRate float64 `json:"spot_rate"`
	DetectionReport
}

// TuningGrid evaluates every combination of dupRates and spotRates with a
// fixed canary rate. Count floors come from params.
func TuningGrid(nItems int, canaryRate sdkmath.LegacyDec, dupRates, spotRates []sdkmath.LegacyDec, epsValues []float64, params types.Params) ([]TuningCell, error) {
	cells := make([]TuningCell, 0, len(dupRates)*len(spotRates))
	nCanary := types.ComputeCount(nItems, canaryRate, params.MinCanariesPerPkg)
	for _, dup := range dupRates {
		for _, spot := range spotRates {
			candidate := params
			candidate.CanaryRate = canaryRate
			candidate.DupRate = dup
			candidate.SpotRate = spot
			if err := candidate.Validate(); err != nil {
				return nil, err
			}

			report, err := detectionReport(epsValues, nItems, dup, nCanary, candidate.SpotCount(nItems))
			if err != nil {
				return nil, err
			}
			cells = append(cells, TuningCell{SpotRate: spot.MustFloat64(), DetectionReport: *report})
		}
	}
	return cells, nil
}

func detectionReport(epsValues []float64, nItems int, dupRate sdkmath.LegacyDec, nCanary, nSpot int) (*DetectionReport, error) {
	if nItems <= 0 {
		return nil, types.ErrInvalidItemCount.Wrapf("n_items must be > 0, got %d", nItems)
	}
	dup := dupRate.MustFloat64()

	report := &DetectionReport{
		NItems:  nItems,
		NCanary: nCanary,
		NSpot:   nSpot,
		DupRate: dup,
		Rows:    make([]DetectionRow, 0, len(epsValues)),
	}
	for _, eps := range epsValues {
		if !(eps >= 0 && eps <= 1) {
			return nil, types.ErrInvalidArgument.Wrapf("eps must be within [0,1], got %g", eps)
		}
		report.Rows = append(report.Rows, DetectionRow{
			Eps:     eps,
			PDetect: DetectProbTotal(eps, nSpot, nCanary, dup),
		})
	}
	return report, nil
}
