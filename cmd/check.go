package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/resolver"
	"github.com/spf13/cobra"
)

var checkFlags struct {
	seed    string
	target  string
	current string
}

var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve an update check offline against a seed file",
	Long: `Load a seed file into a throwaway catalog and print the manifest the server
would return for --target and --current. Useful before deploying a new seed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := catalog.LoadSeedFile(checkFlags.seed)
		if err != nil {
			return err
		}
		c := catalog.NewMemoryCatalog()
		if err := catalog.Seed(cmd.Context(), c, seed); err != nil {
			return err
		}
		result, err := resolver.New(c).CheckForUpdate(cmd.Context(), checkFlags.target, checkFlags.current)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	},
}

func init() {
	CheckCmd.Flags().StringVar(&checkFlags.seed, "seed", "", "YAML seed file")
	CheckCmd.Flags().StringVar(&checkFlags.target, "target", "", "platform identifier, e.g. windows-x86_64")
	CheckCmd.Flags().StringVar(&checkFlags.current, "current", "", "installed version")
	_ = CheckCmd.MarkFlagRequired("seed")
	_ = CheckCmd.MarkFlagRequired("target")
	_ = CheckCmd.MarkFlagRequired("current")
	RootCmd.AddCommand(CheckCmd)
}
