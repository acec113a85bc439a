package sampling

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/paw-chain/qc/qc/types"
)

var testKey = StaticSecret("test-master-key")

func baseRequest() Request {
	return Request{
		JobID:       "job-1",
		Window:      "2025-01",
		Tier:        "gold",
		PackageID:   "pkg-0",
		NItems:      100,
		SecretEpoch: "epoch-7",
	}
}

func TestSeedDerivation(t *testing.T) {
	jobSeed := DeriveJobSeed([]byte("test-master-key"), "job-1", "2025-01", "gold", "epoch-7")
	require.Equal(t, "e82afe65b921edfdbda0ddb80cd2ca90cc9e1febf228cd777ea2cae1648debda", hex.EncodeToString(jobSeed))

	pkgSeed := DerivePackageSeed(jobSeed, "pkg-0")
	require.Equal(t, "ee93e1fb47440386dbc66ce3d11e4d08d4d023aea13838f1bbd3214208b65387", hex.EncodeToString(pkgSeed))

	draw := DRBG(make([]byte, 32), 0)
	require.Equal(t, "110118909243472959525209279776201070552704727706260662882627192243684723630034", draw.String())
}

func TestPlanKnownVectors(t *testing.T) {
	plan, err := PlanSampling(baseRequest(), types.DefaultParams(), testKey)
	require.NoError(t, err)
	require.False(t, plan.DupSelected)
	require.Equal(t, 10, plan.CanaryCount)
	require.Equal(t, 20, plan.SpotCount)
	require.Equal(t, []int{19, 40, 86, 85, 34, 41, 21, 42, 77, 6}, plan.CanaryIndices)
	require.Equal(t, []int{19, 40, 86, 85, 34, 41, 21, 42, 77, 6, 43, 67, 35, 76, 89, 16, 92, 72, 10, 36}, plan.SpotIndices)

	req := baseRequest()
	req.NItems = 1000
	req.SeedHex = "0x" + strings.Repeat("ab", 32)
	plan, err = PlanSampling(req, types.DefaultParams(), nil)
	require.NoError(t, err)
	require.Equal(t, []int{972, 769, 309, 280, 756, 126, 95, 113, 901, 412}, plan.CanaryIndices)
}

func TestDupSelected(t *testing.T) {
	jobSeed, err := ParseSeed("01")
	require.NoError(t, err)

	// pkg-11 draws ~0.0440, pkg-2 ~0.0707, pkg-0 ~0.7897
	require.True(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-11"), math.LegacyNewDecWithPrec(5, 2)))
	require.False(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-2"), math.LegacyNewDecWithPrec(5, 2)))
	require.True(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-2"), math.LegacyNewDecWithPrec(8, 2)))
	require.False(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-0"), math.LegacyNewDecWithPrec(78, 2)))
	require.True(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-0"), math.LegacyNewDecWithPrec(79, 2)))

	require.False(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-11"), math.LegacyZeroDec()))
	require.True(t, DupSelected(DerivePackageSeed(jobSeed, "pkg-0"), math.LegacyOneDec()))
}

func TestPlanDeterminism(t *testing.T) {
	sampler, err := NewSampler(types.DefaultParams(), testKey, nil)
	require.NoError(t, err)

	req := baseRequest()
	req.NItems = 5000
	first, err := sampler.Plan(req)
	require.NoError(t, err)
	second, err := sampler.Plan(req)
	require.NoError(t, err)
	require.Equal(t, first, second)

	req.PackageID = "pkg-1"
	other, err := sampler.Plan(req)
	require.NoError(t, err)
	require.NotEqual(t, first.CanaryIndices, other.CanaryIndices)
	require.NotEqual(t, first.SpotIndices, other.SpotIndices)

	req = baseRequest()
	req.NItems = 5000
	req.SecretEpoch = "epoch-8"
	rotated, err := sampler.Plan(req)
	require.NoError(t, err)
	require.NotEqual(t, first.CanaryIndices, rotated.CanaryIndices)
}

func TestExplicitSeedReplacesJobSeed(t *testing.T) {
	jobSeed := DeriveJobSeed(testKey, "job-1", "2025-01", "gold", "epoch-7")

	derived, err := PlanSampling(baseRequest(), types.DefaultParams(), testKey)
	require.NoError(t, err)

	req := baseRequest()
	req.SeedHex = hex.EncodeToString(jobSeed)
	explicit, err := PlanSampling(req, types.DefaultParams(), nil)
	require.NoError(t, err)
	require.Equal(t, derived, explicit)

	req.SeedHex = "0X" + hex.EncodeToString(jobSeed)
	prefixed, err := PlanSampling(req, types.DefaultParams(), nil)
	require.NoError(t, err)
	require.Equal(t, derived, prefixed)
}

func TestPlanErrors(t *testing.T) {
	for _, n := range []int{0, -1} {
		req := baseRequest()
		req.NItems = n
		_, err := PlanSampling(req, types.DefaultParams(), testKey)
		require.ErrorIs(t, err, types.ErrInvalidItemCount)
	}

	for _, seed := range []string{"zz", "0x", "abc"} {
		req := baseRequest()
		req.SeedHex = seed
		_, err := PlanSampling(req, types.DefaultParams(), testKey)
		require.ErrorIs(t, err, types.ErrInvalidSeed, seed)
	}

	_, err := PlanSampling(baseRequest(), types.DefaultParams(), nil)
	require.ErrorIs(t, err, types.ErrMissingMasterKey)

	t.Setenv("QC_TEST_EMPTY_KEY", "")
	_, err = PlanSampling(baseRequest(), types.DefaultParams(), EnvSecret{Var: "QC_TEST_EMPTY_KEY"})
	require.ErrorIs(t, err, types.ErrMissingMasterKey)

	_, err = NewSampler(types.Params{}, testKey, nil)
	require.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestSecretSourcesAgree(t *testing.T) {
	want, err := PlanSampling(baseRequest(), types.DefaultParams(), testKey)
	require.NoError(t, err)

	t.Setenv(DefaultMasterKeyEnv, "test-master-key")
	fromEnv, err := PlanSampling(baseRequest(), types.DefaultParams(), EnvSecret{})
	require.NoError(t, err)
	require.Equal(t, want, fromEnv)

	enclave, err := NewEnclaveSecret([]byte("test-master-key"))
	require.NoError(t, err)
	fromEnclave, err := PlanSampling(baseRequest(), types.DefaultParams(), enclave)
	require.NoError(t, err)
	require.Equal(t, want, fromEnclave)

	t.Setenv("QC_TEST_SEALED_KEY", "test-master-key")
	sealed, err := EnclaveSecretFromEnv("QC_TEST_SEALED_KEY")
	require.NoError(t, err)
	fromSealed, err := PlanSampling(baseRequest(), types.DefaultParams(), sealed)
	require.NoError(t, err)
	require.Equal(t, want, fromSealed)

	_, err = NewEnclaveSecret(nil)
	require.ErrorIs(t, err, types.ErrMissingMasterKey)
}

func TestChooseIndicesExhaustsSmallPopulation(t *testing.T) {
	seed := []byte("seed")
	got := ChooseIndices(seed, 5, 10)
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4}, got)

	require.Empty(t, ChooseIndices(seed, 5, 0))

	// a floor above n_items still yields every index exactly once
	req := baseRequest()
	req.NItems = 3
	plan, err := PlanSampling(req, types.DefaultParams(), testKey)
	require.NoError(t, err)
	require.Equal(t, 10, plan.CanaryCount)
	require.Len(t, plan.CanaryIndices, 3)
	require.Len(t, plan.SpotIndices, 3)
}

func TestPlanIndexBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		req := Request{
			JobID:       rapid.StringMatching(`job-[0-9]{1,4}`).Draw(t, "job"),
			Window:      "w",
			Tier:        rapid.SampledFrom([]string{"bronze", "silver", "gold"}).Draw(t, "tier"),
			PackageID:   fmt.Sprintf("pkg-%d", rapid.IntRange(0, 1000).Draw(t, "pkg")),
			NItems:      rapid.IntRange(1, 20000).Draw(t, "n"),
			SecretEpoch: "e",
		}
		plan, err := PlanSampling(req, types.DefaultParams(), testKey)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		for name, indices := range map[string][]int{"canary": plan.CanaryIndices, "spot": plan.SpotIndices} {
			seen := make(map[int]bool, len(indices))
			for _, i := range indices {
				if i < 0 || i >= req.NItems {
					t.Fatalf("%s index %d outside [0,%d)", name, i, req.NItems)
				}
				if seen[i] {
					t.Fatalf("%s index %d repeated", name, i)
				}
				seen[i] = true
			}
		}
		if len(plan.CanaryIndices) != min(plan.CanaryCount, req.NItems) {
			t.Fatalf("got %d canaries, want %d", len(plan.CanaryIndices), min(plan.CanaryCount, req.NItems))
		}
	})
}
