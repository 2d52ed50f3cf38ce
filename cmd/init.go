package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/naflume/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize naflume configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the naflume server and writes the config file (default .naflume.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
