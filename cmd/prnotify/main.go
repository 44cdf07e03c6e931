package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "prnotify",
	Short:         "Notify HTTP endpoints about pull request events",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Defaults
	v := viper.GetViper()
	v.SetDefault("config", "")

	// Environment variables support: PRNOTIFY_CONFIG, ...
	v.SetEnvPrefix("PRNOTIFY")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(pressCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(responsesCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
