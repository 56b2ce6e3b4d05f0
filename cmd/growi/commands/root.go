package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/growi/internal/constants"
)

// Viper keys shared by flags, environment and the config file.
const (
	keyConfig       = "config"
	keyURL          = "url"
	keyToken        = "token"
	keyOutput       = "output"
	keyDebug        = "debug"
	keyTrace        = "trace"
	keyOTLPEndpoint = "otlp_endpoint"
	keyNATSURL      = "nats_url"
	keyNATSPrefix   = "nats_prefix"
	keyTimeout      = "timeout"
	keyRetries      = "retries"
)

// EnvPrefix is prepended to every environment variable the CLI reads.
const EnvPrefix = "GROWI"

// NewRootCommand builds the growi command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "growi",
		Short: "GROWI wiki CLI",
		Long: `A command-line interface for a GROWI wiki.

Pages can be read, listed, created, updated and renamed, files attached and
tags queried. Updates and renames always carry the page's current revision, so
a concurrent edit is reported instead of overwritten.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.growi/config.yml)")
	flags.StringP("url", "u", "", "wiki base URL")
	flags.StringP("token", "t", "", "API access token")
	flags.StringP("output", "o", OutputFormatTable, "output format (table, json, yaml)")
	flags.Bool("debug", false, "log HTTP requests and responses to stderr")
	flags.Bool("trace", false, "export OpenTelemetry spans")
	flags.String("otlp-endpoint", "", "OTLP/HTTP endpoint for --trace (default writes spans to stderr)")
	flags.String("nats-url", "", "publish page events to this NATS server")
	flags.String("nats-prefix", "", "subject prefix for page events")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "HTTP request timeout")
	flags.Int("retries", constants.DefaultRetryMax, "retries for transport errors, 429 and 5xx")

	bindings := map[string]string{
		keyConfig:       "config",
		keyURL:          "url",
		keyToken:        "token",
		keyOutput:       "output",
		keyDebug:        "debug",
		keyTrace:        "trace",
		keyOTLPEndpoint: "otlp-endpoint",
		keyNATSURL:      "nats-url",
		keyNATSPrefix:   "nats-prefix",
		keyTimeout:      "timeout",
		keyRetries:      "retries",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewPageCommand())
	rootCmd.AddCommand(NewAttachCommand())
	rootCmd.AddCommand(NewTagsCommand())

	return rootCmd
}

func initConfig() error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return nil
}

// configFilePath returns --config or $HOME/.growi/config.yml.
func configFilePath() (string, error) {
	if configFile := viper.GetString(keyConfig); configFile != "" {
		return filepath.Clean(configFile), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".growi", "config.yml"), nil
}
