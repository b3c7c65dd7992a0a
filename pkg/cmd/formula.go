package cmd

import (
	"fmt"

	"github.com/nuvion/relkit/pkg/formula"
	"github.com/spf13/cobra"
)

func newFormulaCmd() *cobra.Command {
	formulaCmd := &cobra.Command{
		Use:   "formula <Formula.rb>",
		Short: "Rewrite a Homebrew formula's url, sha256, and version",
		Long: `Replaces the url, sha256, and version fields of the formula's primary
artifact in place. A nested resource block, when present, is left
byte-identical. The replacement values come from RELKIT_URL,
RELKIT_SHA256, and RELKIT_VERSION, or the matching flags.`,
		Args: cobra.ExactArgs(1),
		RunE: runFormula,
	}

	formulaCmd.Flags().String("url", "", "artifact download URL")
	formulaCmd.Flags().String("sha256", "", "artifact checksum")
	formulaCmd.Flags().String("version", "", "release version")

	return formulaCmd
}

func runFormula(cmd *cobra.Command, args []string) error {
	upd := formula.Update{
		URL:     Cfg.URL,
		SHA256:  Cfg.SHA256,
		Version: Cfg.Version,
	}

	// Flags take precedence over env/file config.
	for _, f := range []struct {
		name string
		dest *string
	}{
		{"url", &upd.URL},
		{"sha256", &upd.SHA256},
		{"version", &upd.Version},
	} {
		val, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return err
		}
		if val != "" {
			*f.dest = val
		}
	}

	if err := formula.Rewrite(args[0], upd); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
	return nil
}
