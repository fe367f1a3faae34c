package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spetersoncode/byline/internal/config"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spf13/cobra"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file commands",
	Long: `Manage the byline configuration file (~/.byline/config.toml).

Settings are resolved in this order: command-line flags, BYLINE_* environment
variables, the config file, built-in defaults.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented sample config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if path == "" {
			return werrors.General("cannot determine home directory")
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return werrors.Conflict("config file already exists at %s", path).
				WithSuggestion("Use --force to overwrite it.")
		}
		if err := config.WriteConfigFile(path); err != nil {
			return werrors.WrapInternal(err, "failed to write config file")
		}
		OutputLine("Wrote %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		cfg.DB = GetDBPath()
		cfg.TimeStyle = GetTimeStyle()
		cfg.NoColor = IsNoColor()

		if IsJSON() {
			return printJSON(cfg)
		}
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			return werrors.WrapInternal(err, "failed to encode config")
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(config.DefaultConfigPath())
		return nil
	},
}
