package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
)

const envPrefix = "GLMBENCH"

// newRootCmd builds the command tree with its own viper instance. Flag
// values are resolved as flag > environment (GLMBENCH_<KEY>) > config file
// > default.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfgFile string

	root := &cobra.Command{
		Use:           "glmbench",
		Short:         "Benchmark GLM fitting routines on synthetic data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return errors.Wrapf(err, "read config %s", cfgFile)
				}
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return errors.Wrap(err, "bind flags")
			}
			if err := log.SetupLoggerTo(cmd.ErrOrStderr(), cmd.ErrOrStderr(), v.GetString("log-level")); err != nil {
				return err
			}
			errors.SetZerologWarnFunc(log.WarnFunc("glmbench"))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or TOML)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(v), newCVCmd(v))
	return root
}
