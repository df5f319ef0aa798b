// Package cmd wires the backport command-line interface.
package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/Iron-Ham/backport/internal/cmd/config"
	"github.com/Iron-Ham/backport/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "backport",
	Short: "Port commits onto release branches",
	Long: `Backport cherry-picks commits onto one or more target branches. When a
cherry-pick conflicts it tries the configured automatic resolvers, points at
related commits that are missing from the target branch, and then walks you
through resolving the conflicts by hand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/backport/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(pickCmd)
	configcmd.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	cfgFile := viper.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BACKPORT")
	// Replace dots with underscores for nested keys in env vars
	// e.g., BACKPORT_HINTS_MAX_COMMITS for hints.max_commits
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()

	// Repository settings override the user's unless a file was given
	if cfgFile == "" {
		if _, err := os.Stat(config.RepoConfigFileName); err == nil {
			viper.SetConfigFile(config.RepoConfigFileName)
			_ = viper.MergeInConfig()
		}
	}
}
