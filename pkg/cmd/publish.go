package cmd

import (
	"github.com/nuvion/relkit/pkg/aptrepo"
	"github.com/nuvion/relkit/pkg/signing"
	"github.com/spf13/cobra"
)

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <package.deb>",
		Short: "Publish a package into the signed APT repository",
		Long: `Adds the package to the configured repository, publishes or updates
the distribution, exports the signing public key, and installs the client
bootstrap script into the public directory.`,
		Args: cobra.ExactArgs(1),
		RunE: runPublish,
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	aptly, err := aptrepo.Detect()
	if err != nil {
		return err
	}

	exporter, err := signing.NewExporter()
	if err != nil {
		return err
	}

	builder := &aptrepo.Builder{
		Aptly:    aptly,
		Exporter: exporter,
		Config:   Cfg,
		Out:      cmd.OutOrStdout(),
	}

	return builder.Run(cmd.Context(), args[0])
}
