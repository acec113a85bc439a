package cmd

import (
	"io"
	"strings"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/paw-chain/qc/qc/schema"
	"github.com/paw-chain/qc/qc/types"
	"github.com/paw-chain/qc/qc/upload"
)

const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagSchemasDir  = "schemas-dir"
	flagMetricsFile = "metrics-file"
)

// appEnv is what every subcommand needs once configuration has been loaded.
type appEnv struct {
	cfg      *Config
	params   types.Params
	logger   log.Logger
	registry *schema.Registry
}

func (e *appEnv) uploadOptions() upload.Options {
	return upload.Options{MaxBytes: e.cfg.MaxUploadBytes}
}

// NewRootCmd creates the pawqc root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	env := &appEnv{}

	rootCmd := &cobra.Command{
		Use:   "pawqc",
		Short: "PAW compute quality-control toolkit",
		Long: `pawqc canonicalizes provider output, commits to it with Merkle roots,
compares results under bit-exact or floating-point tolerant rules, plans
audit sampling, decides disputes and checks GF(2) certificates.

Every command prints JSON on stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			if err := bindRootFlags(v, cmd.Root().PersistentFlags()); err != nil {
				return err
			}

			path, err := cmd.Flags().GetString(flagConfig)
			if err != nil {
				return err
			}
			cfg, err := LoadConfig(v, path)
			if err != nil {
				return err
			}
			return env.init(cfg, cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if env.cfg == nil || env.cfg.MetricsFile == "" {
				return nil
			}
			return prometheus.WriteToTextfile(env.cfg.MetricsFile, prometheus.DefaultGatherer)
		},
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "path to a pawqc TOML config file")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "log level (trace|debug|info|warn|error|disabled)")
	rootCmd.PersistentFlags().String(flagLogFormat, "plain", "log format (plain|json)")
	rootCmd.PersistentFlags().String(flagSchemasDir, "", "directory of extra schema YAML files")
	rootCmd.PersistentFlags().String(flagMetricsFile, "", "write Prometheus metrics in text format to this file on exit")

	rootCmd.AddCommand(
		CanonicalizeCmd(env),
		MerkleCmd(env),
		CompareCmd(env),
		PlanCmd(env),
		DisputeCmd(env),
		DetectionCmd(env),
		TuneCmd(env),
		VerifyGF2Cmd(env),
		CommitCmd(env),
		GCDCmd(env),
		SchemasCmd(env),
	)
	return rootCmd
}

// bindRootFlags maps every root flag except --config onto the config key of
// the same name, e.g. --log-level onto log_level.
func bindRootFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == flagConfig {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

func (e *appEnv) init(cfg *Config, logOut io.Writer) error {
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	registry, err := schema.DefaultRegistry()
	if err != nil {
		return err
	}
	if cfg.SchemasDir != "" {
		if registry, err = schema.LoadDir(cfg.SchemasDir, registry); err != nil {
			return err
		}
	}
	logger.Debug("schema registry loaded", "schemas", registry.IDs(), "dir", cfg.SchemasDir)

	e.cfg, e.params, e.logger, e.registry = cfg, params, logger, registry
	return nil
}

func newLogger(cfg *Config, w io.Writer) (log.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, types.ErrInvalidParams.Wrapf("log_level: %s", err)
	}
	opts := []log.Option{log.LevelOption(level)}
	if cfg.LogFormat == "json" {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(w, opts...).With("module", "pawqc"), nil
}
