package cmd

import (
	"strings"

	"cosmossdk.io/math"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/paw-chain/qc/qc/sampling"
	"github.com/paw-chain/qc/qc/types"
)

// EnvPrefix namespaces environment overrides, e.g. PAWQC_POLICY_DUP_RATE.
const EnvPrefix = "PAWQC"

// Config is the pawqc configuration file (TOML).
type Config struct {
	LogLevel       string       `mapstructure:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat      string       `mapstructure:"log_format" validate:"oneof=plain json"`
	SchemasDir     string       `mapstructure:"schemas_dir" validate:"omitempty,dir"`
	MasterKeyEnv   string       `mapstructure:"master_key_env" validate:"required"`
	MetricsFile    string       `mapstructure:"metrics_file"`
	MaxUploadBytes int64        `mapstructure:"max_upload_bytes" validate:"gte=0"`
	Policy         PolicyConfig `mapstructure:"policy"`
}

// PolicyConfig is the [policy] table. Rates are decimal strings so they are
// parsed exactly.
type PolicyConfig struct {
	DupRate            string `mapstructure:"dup_rate" validate:"required,rate"`
	CanaryRate         string `mapstructure:"canary_rate" validate:"required,rate"`
	MinCanariesPerPkg  uint64 `mapstructure:"min_canaries_per_pkg"`
	SpotRate           string `mapstructure:"spot_rate" validate:"required,rate"`
	MinSpotItemsPerPkg uint64 `mapstructure:"min_spot_items_per_pkg"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("rate", validateRate)
}

// validateRate accepts decimal strings within [0,1].
func validateRate(fl validator.FieldLevel) bool {
	d, err := math.LegacyNewDecFromStr(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.LTE(math.LegacyOneDec())
}

func setDefaults(v *viper.Viper) {
	params := types.DefaultParams()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "plain")
	v.SetDefault("schemas_dir", "")
	v.SetDefault("master_key_env", sampling.DefaultMasterKeyEnv)
	v.SetDefault("metrics_file", "")
	v.SetDefault("max_upload_bytes", int64(0))
	v.SetDefault("policy.dup_rate", decString(params.DupRate))
	v.SetDefault("policy.canary_rate", decString(params.CanaryRate))
	v.SetDefault("policy.min_canaries_per_pkg", params.MinCanariesPerPkg)
	v.SetDefault("policy.spot_rate", decString(params.SpotRate))
	v.SetDefault("policy.min_spot_items_per_pkg", params.MinSpotItemsPerPkg)
}

// decString drops the trailing zeros LegacyDec.String pads to 18 places.
func decString(d math.LegacyDec) string {
	s := strings.TrimRight(d.String(), "0")
	return strings.TrimSuffix(s, ".")
}

// LoadConfig layers defaults, the optional TOML file at path and PAWQC_*
// environment variables, in increasing precedence, then validates the result.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, types.ErrInvalidParams.Wrapf("read config %s: %s", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.ErrInvalidParams.Wrapf("decode config: %s", err)
	}
	if err := configValidate.Struct(&cfg); err != nil {
		return nil, types.ErrInvalidParams.Wrapf("config: %s", err)
	}
	return &cfg, nil
}

// Params converts the [policy] table into validated policy params.
func (c *Config) Params() (types.Params, error) {
	p := c.Policy
	return types.NewParams(
		strings.TrimSpace(p.DupRate),
		strings.TrimSpace(p.CanaryRate),
		strings.TrimSpace(p.SpotRate),
		p.MinCanariesPerPkg,
		p.MinSpotItemsPerPkg,
	)
}
