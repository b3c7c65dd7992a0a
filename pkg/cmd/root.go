package cmd

import (
	"os"

	"github.com/nuvion/relkit/pkg/config"
	"github.com/spf13/cobra"
)

// Cfg holds the resolved release configuration, available to all
// subcommands after PersistentPreRunE completes.
var Cfg *config.Release

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relkit",
		Short: "Release publishing pipeline",
		Long: `relkit publishes release artifacts across three channels: a signed
APT repository, a cloud-hosted mirror of it, and a Homebrew formula.

All parameters come from RELKIT_* environment variables or release.toml;
see 'relkit init'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(wd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			Cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}

	root.AddCommand(newInitCmd())
	root.AddCommand(newPublishCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newProvisionCmd())
	root.AddCommand(newFormulaCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
