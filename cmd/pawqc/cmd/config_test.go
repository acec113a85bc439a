package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/qc/qc/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pawqc.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "plain", cfg.LogFormat)
	require.Equal(t, "QC_MASTER_KEY", cfg.MasterKeyEnv)

	params, err := cfg.Params()
	require.NoError(t, err)
	require.Equal(t, types.DefaultParams().String(), params.String())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `log_level = "debug"
log_format = "json"
master_key_env = "MY_QC_KEY"
max_upload_bytes = 4096

[policy]
dup_rate = "0.1"
canary_rate = "0.02"
min_canaries_per_pkg = 3
spot_rate = "0.05"
min_spot_items_per_pkg = 7
`)
	t.Setenv("PAWQC_POLICY_SPOT_RATE", "0.2")

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "MY_QC_KEY", cfg.MasterKeyEnv)
	require.Equal(t, int64(4096), cfg.MaxUploadBytes)

	params, err := cfg.Params()
	require.NoError(t, err)
	require.True(t, params.DupRate.Equal(math.LegacyNewDecWithPrec(1, 1)))
	require.True(t, params.CanaryRate.Equal(math.LegacyNewDecWithPrec(2, 2)))
	require.True(t, params.SpotRate.Equal(math.LegacyNewDecWithPrec(2, 1)), "environment overrides the file")
	require.Equal(t, uint64(3), params.MinCanariesPerPkg)
	require.Equal(t, uint64(7), params.MinSpotItemsPerPkg)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"rate above one", "[policy]\ndup_rate = \"1.5\"\n"},
		{"negative rate", "[policy]\nspot_rate = \"-0.1\"\n"},
		{"rate not a decimal", "[policy]\ncanary_rate = \"ten percent\"\n"},
		{"unknown log format", "log_format = \"xml\"\n"},
		{"unknown log level", "log_level = \"loud\"\n"},
		{"missing schemas dir", "schemas_dir = \"/does/not/exist\"\n"},
		{"negative upload limit", "max_upload_bytes = -1\n"},
		{"not toml", "log_level = \n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(viper.New(), writeConfig(t, tc.body))
			require.ErrorIs(t, err, types.ErrInvalidParams)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "absent.toml"))
	require.ErrorIs(t, err, types.ErrInvalidParams)
}
