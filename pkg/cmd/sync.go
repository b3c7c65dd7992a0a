package cmd

import (
	"fmt"

	"github.com/nuvion/relkit/pkg/hosting"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync [public-dir]",
		Short: "Mirror the published snapshot to its hosting target",
		Long: `Pushes the local public directory tree to the configured hosting
target. Files are created or overwritten; objects outside the pushed set
are never deleted, so earlier package versions keep coexisting.

The target is the configured bucket, or a static file root given with
--dest. The public directory defaults to the configured one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSync,
	}

	syncCmd.Flags().String("dest", "", "static file root to mirror into instead of the bucket")

	return syncCmd
}

func runSync(cmd *cobra.Command, args []string) error {
	localDir := Cfg.PublicDir
	if len(args) == 1 {
		localDir = args[0]
	}

	dest, err := cmd.Flags().GetString("dest")
	if err != nil {
		return err
	}

	var target hosting.Target
	switch {
	case dest != "":
		target = &hosting.DirTarget{Root: dest}
	case Cfg.Bucket != "":
		gcs, err := hosting.NewGCSTarget(cmd.Context(), Cfg.Bucket, Cfg.Prefix)
		if err != nil {
			return err
		}
		defer gcs.Close()
		target = gcs
	default:
		return fmt.Errorf("no hosting target: set RELKIT_BUCKET or pass --dest")
	}

	if err := hosting.Sync(cmd.Context(), localDir, target); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced %s to %s\n", localDir, target.Name())
	return nil
}
