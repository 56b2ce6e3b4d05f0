package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/growi/internal/constants"
)

const masked = "***"

// Config represents the CLI configuration file.
type Config struct {
	URL          string `json:"url,omitempty"           yaml:"url,omitempty"`
	Token        string `json:"token,omitempty"         yaml:"token,omitempty"`
	Output       string `json:"output,omitempty"        yaml:"output,omitempty"`
	Debug        bool   `json:"debug,omitempty"         yaml:"debug,omitempty"`
	Trace        bool   `json:"trace,omitempty"         yaml:"trace,omitempty"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`
	NATSURL      string `json:"nats_url,omitempty"      yaml:"nats_url,omitempty"`
	NATSPrefix   string `json:"nats_prefix,omitempty"   yaml:"nats_prefix,omitempty"`
	Timeout      string `json:"timeout,omitempty"       yaml:"timeout,omitempty"`
	Retries      int    `json:"retries,omitempty"       yaml:"retries,omitempty"`
}

type configField struct {
	get   func(*Config) string
	set   func(*Config, string) error
	unset func(*Config)
}

func configFields() map[string]configField {
	return map[string]configField{
		keyURL: {
			get: func(c *Config) string { return c.URL },
			set: func(c *Config, v string) error {
				if strings.TrimSpace(v) == "" {
					return constants.ErrNoWikiConfigured
				}

				c.URL = v

				return nil
			},
			unset: func(c *Config) { c.URL = "" },
		},
		keyToken: {
			get:   func(c *Config) string { return maskToken(c.Token) },
			set:   func(c *Config, v string) error { c.Token = v; return nil },
			unset: func(c *Config) { c.Token = "" },
		},
		keyOutput: {
			get: func(c *Config) string { return c.Output },
			set: func(c *Config, v string) error {
				switch v {
				case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
					c.Output = v

					return nil
				default:
					return fmt.Errorf("%w: %q", constants.ErrInvalidOutput, v)
				}
			},
			unset: func(c *Config) { c.Output = "" },
		},
		keyDebug: {
			get:   func(c *Config) string { return strconv.FormatBool(c.Debug) },
			set:   boolSetter(func(c *Config, v bool) { c.Debug = v }),
			unset: func(c *Config) { c.Debug = false },
		},
		keyTrace: {
			get:   func(c *Config) string { return strconv.FormatBool(c.Trace) },
			set:   boolSetter(func(c *Config, v bool) { c.Trace = v }),
			unset: func(c *Config) { c.Trace = false },
		},
		keyOTLPEndpoint: {
			get:   func(c *Config) string { return c.OTLPEndpoint },
			set:   func(c *Config, v string) error { c.OTLPEndpoint = v; return nil },
			unset: func(c *Config) { c.OTLPEndpoint = "" },
		},
		keyNATSURL: {
			get:   func(c *Config) string { return c.NATSURL },
			set:   func(c *Config, v string) error { c.NATSURL = v; return nil },
			unset: func(c *Config) { c.NATSURL = "" },
		},
		keyNATSPrefix: {
			get:   func(c *Config) string { return c.NATSPrefix },
			set:   func(c *Config, v string) error { c.NATSPrefix = v; return nil },
			unset: func(c *Config) { c.NATSPrefix = "" },
		},
		keyTimeout: {
			get: func(c *Config) string { return c.Timeout },
			set: func(c *Config, v string) error {
				_, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid timeout: %w", err)
				}

				c.Timeout = v

				return nil
			},
			unset: func(c *Config) { c.Timeout = "" },
		},
		keyRetries: {
			get: func(c *Config) string { return strconv.Itoa(c.Retries) },
			set: func(c *Config, v string) error {
				retries, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("invalid retries: %w", err)
				}

				c.Retries = retries

				return nil
			},
			unset: func(c *Config) { c.Retries = 0 },
		},
	}
}

func boolSetter(apply func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", v, err)
		}

		apply(c, parsed)

		return nil
	}
}

func lookupField(key string) (configField, error) {
	field, ok := configFields()[strings.ReplaceAll(key, "-", "_")]
	if !ok {
		return configField{}, fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return field, nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the growi CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfigFile()
			if err != nil {
				return err
			}

			config.Token = maskToken(config.Token)

			return render(cmd, config, func(table *tablewriter.Table) {
				table.Header("Key", "Value")

				fields := configFields()

				keys := make([]string, 0, len(fields))
				for key := range fields {
					keys = append(keys, key)
				}

				sort.Strings(keys)

				for _, key := range keys {
					_ = table.Append([]string{key, formatValue(fields[key].get(config))})
				}
			})
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := lookupField(args[0])
			if err != nil {
				return err
			}

			config, err := loadConfigFile()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), field.get(config))

			return err
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := lookupField(args[0])
			if err != nil {
				return err
			}

			config, err := loadConfigFile()
			if err != nil {
				return err
			}

			err = field.set(config, args[1])
			if err != nil {
				return err
			}

			err = saveConfigFile(config)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return err
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := lookupField(args[0])
			if err != nil {
				return err
			}

			config, err := loadConfigFile()
			if err != nil {
				return err
			}

			field.unset(config)

			err = saveConfigFile(config)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return err
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)

			return err
		},
	}
}

// loadConfigFile reads the file alone so flag and environment overrides are
// never written back.
func loadConfigFile() (*Config, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func saveConfigFile(config *Config) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}

	return masked
}
