package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/nuvion/relkit/pkg/provision"
	"github.com/spf13/cobra"
)

func newProvisionCmd() *cobra.Command {
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the durable hosting path for the repository",
		Long: `Creates the storage bucket, CDN backend, URL map, managed certificate,
HTTPS proxy, forwarding rule, and optional DNS record. Every step checks
for the resource before creating it, so re-running is safe.`,
		RunE: runProvision,
	}

	provisionCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return provisionCmd
}

func runProvision(cmd *cobra.Command, args []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	if !yes {
		confirmed, err := confirmProvision()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	gcloud, err := provision.Detect()
	if err != nil {
		return err
	}

	plan := &provision.Plan{
		GCloud: gcloud,
		Config: Cfg,
		Out:    cmd.OutOrStdout(),
	}

	address, err := plan.Apply(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Public address: %s\n", address)
	return nil
}

// confirmProvision prompts before mutating cloud resources.
func confirmProvision() (bool, error) {
	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Provision hosting for gs://%s (%s)?", Cfg.Bucket, Cfg.Domain)).
				Value(&confirmed),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}
