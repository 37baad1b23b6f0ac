package main

import (
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/datajms/skope-rules/metrics"
)

// envPrefix prefixes the environment variables that set flags, as in
// SKOPE_STORE for --store
const envPrefix = "SKOPE"

type rootCmdConfig struct {
	verbose    bool
	configFile string
	metricsOut string
	settings   *viper.Viper
	registry   *prometheus.Registry
	mt         *metrics.Metrics
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{settings: viper.New(), registry: prometheus.NewRegistry()}
	rootCmd := &cobra.Command{
		Use:   "skoperules",
		Short: "skoperules is a tool to learn fraud detection rules",
		Long:  `A tool to learn interpretable fraud detection rules from labelled data, rank them, and use them to score records`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := config.bind(cmd)
			if err != nil {
				return err
			}
			logrus.SetOutput(os.Stderr)
			if config.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.PersistentFlags().StringVar(&(config.configFile), "config", "", "path to a YAML file with values for any flag, keyed by flag name")
	rootCmd.PersistentFlags().StringVar(&(config.metricsOut), "metrics-out", "", "path to a file to which metrics will be dumped in Prometheus text format when the command finishes")
	rootCmd.AddCommand(versionCmd(), fitCmd(config), scoreCmd(config), rulesCmd(config), splitCmd(config))
	return rootCmd
}

/*
bind sets the flags of the command that were not given on the command line
from SKOPE_ prefixed environment variables or the config file, in that
order of precedence.
*/
func (rcc *rootCmdConfig) bind(cmd *cobra.Command) error {
	v := rcc.settings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if rcc.configFile != "" {
		v.SetConfigFile(rcc.configFile)
		err := v.ReadInConfig()
		if err != nil {
			return err
		}
	}
	err := v.BindPFlags(cmd.Flags())
	if err != nil {
		return err
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		err = cmd.Flags().Set(f.Name, v.GetString(f.Name))
	})
	return err
}

func (rcc *rootCmdConfig) Logf(format string, a ...interface{}) {
	logrus.Debugf(format, a...)
}
