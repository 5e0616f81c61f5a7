package cmd

import (
	"fmt"
	"os"

	"github.com/chengshang-tools/update-server/config"
	"github.com/spf13/cobra"
)

var configPath string

var RootCmd = &cobra.Command{
	Use:   "update-server",
	Short: "Update distribution server for the desktop auto-updater",
	Long: `update-server answers auto-updater checks with the newest release for a
platform and lets administrators register new releases.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("UPDATE_SERVER_CONFIG"), "path to a TOML config file")
	addServerFlags(RootCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// Execute 执行根命令
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
