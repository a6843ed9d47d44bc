// Package app implements the main application commands.
package app

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
)

const (
	// EnvPrefix prefixes the environment variables bound to the command line flags.
	EnvPrefix = "GOBIZADMIN"

	configKey         = "config"
	defaultConfigPath = "./etc/"
)

var rootCmd = &cobra.Command{
	Use:   "go-bizadmin",
	Short: "GoBizAdmin is a web-based back office for multi-location businesses",
	Long: `GoBizAdmin is a web-based back office for multi-location businesses.
It signs the operator in against the business platform, keeps the current location
and renders location scoped pages according to the operator's permissions.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().String(configKey, defaultConfigPath, "Directory holding main.toml")

	if err := viper.BindPFlag(configKey, rootCmd.PersistentFlags().Lookup(configKey)); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configPath returns the config directory from the flag or GOBIZADMIN_CONFIG.
func configPath() string {
	path := viper.GetString(configKey)
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return path
}

// readConfig reads and validates the configuration.
func readConfig() (config.Config, error) {
	return config.ReadConfig(configPath())
}
