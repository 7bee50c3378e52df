package cmd

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
		Long:  `Commands for managing somafm configuration.`,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the effective configuration",
		Long: `Dump the effective configuration in YAML format: built-in defaults
merged with any config file and environment overrides.

Redirect the output to create a configuration template:

  somafm config dump > ~/.somafm.yaml

Environment variables use the SOMAFM_ prefix and underscores for nesting.
Example: player.binary -> SOMAFM_PLAYER_BINARY`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.dumpConfig(a.stdout)
		},
	}

	configCmd.AddCommand(dumpCmd)
	return configCmd
}

func (a *app) dumpConfig(w io.Writer) error {
	yamlData, err := yaml.Marshal(toMap(a.cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Fprintln(w, "# somafm configuration")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Durations use Go syntax: 15s, 1m30s")
	fmt.Fprintln(w, "# player.args must contain {url}, replaced by the stream's playlist URL.")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Environment variable overrides:")
	fmt.Fprintln(w, "#   SOMAFM_DIRECTORY_URL, SOMAFM_DIRECTORY_TIMEOUT")
	fmt.Fprintln(w, "#   SOMAFM_SNAPSHOT_DRIVER, SOMAFM_SNAPSHOT_PATH")
	fmt.Fprintln(w, "#   SOMAFM_PLAYER_BINARY, SOMAFM_PLAYER_KILL_BY_NAME")
	fmt.Fprintln(w, "#   SOMAFM_PLAYBACK_DEFAULT_CHANNEL, SOMAFM_PLAYBACK_QUALITY")
	fmt.Fprintln(w, "#   SOMAFM_LOGGING_LEVEL, SOMAFM_LOGGING_FORMAT")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w)
	_, err = w.Write(yamlData)
	return err
}

// toMap converts a config struct to a map keyed by mapstructure tags,
// formatting durations for human readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Name
		}

		switch fv := field.Interface().(type) {
		case time.Duration:
			result[key] = fv.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = fv
			}
		}
	}
	return result
}
