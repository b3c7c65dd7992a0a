package aptrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nuvion/relkit/pkg/bootstrap"
	"github.com/nuvion/relkit/pkg/config"
)

// ErrArtifactMissing indicates the package file to publish does not exist.
// It is raised before any repository operation runs.
var ErrArtifactMissing = errors.New("package artifact not found")

// KeyExporter is the part of the signing exporter the builder needs.
type KeyExporter interface {
	ExportPublicKey(ctx context.Context, keyID, dest string) (bool, error)
}

// Builder turns a single package artifact into an updated, signed,
// publicly servable repository snapshot.
type Builder struct {
	Aptly    *Aptly
	Exporter KeyExporter
	Config   *config.Release
	Out      io.Writer
}

// Run executes the publish pipeline for the package at debPath:
// create-if-absent repo, add the artifact, publish or update the
// distribution, export the public key, and install companion assets.
// Steps run sequentially and the first failure aborts the rest.
func (b *Builder) Run(ctx context.Context, debPath string) error {
	if _, err := os.Stat(debPath); err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactMissing, debPath)
	}

	cfg := b.Config

	created, err := b.Aptly.CreateRepo(ctx, cfg.Repo, cfg.Distribution, cfg.Component)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(b.Out, "Created repo %q\n", cfg.Repo)
	}

	if err := b.Aptly.AddPackage(ctx, cfg.Repo, debPath); err != nil {
		return err
	}
	fmt.Fprintf(b.Out, "Added %s to repo %q\n", filepath.Base(debPath), cfg.Repo)

	// Publishing twice with create semantics is rejected by the store, so
	// inspect what is already published and switch to update.
	published, err := b.Aptly.PublishedDistributions(ctx)
	if err != nil {
		return err
	}
	if contains(published, cfg.Distribution) {
		if err := b.Aptly.UpdatePublished(ctx, cfg.Distribution); err != nil {
			return err
		}
		fmt.Fprintf(b.Out, "Updated published distribution %q\n", cfg.Distribution)
	} else {
		if err := b.Aptly.Publish(ctx, cfg.Repo, cfg.Distribution, cfg.Component, cfg.Architecture); err != nil {
			return err
		}
		fmt.Fprintf(b.Out, "Published distribution %q (%s)\n", cfg.Distribution, cfg.Architecture)
	}

	keyPath := filepath.Join(cfg.PublicDir, config.KeyFileName)
	wrote, err := b.Exporter.ExportPublicKey(ctx, cfg.KeyID, keyPath)
	if err != nil {
		return err
	}
	if wrote {
		fmt.Fprintf(b.Out, "Exported public key to %s\n", keyPath)
	}

	if err := b.installBootstrap(); err != nil {
		return err
	}

	published, err = b.Aptly.PublishedDistributions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(b.Out, "Published distributions:\n")
	for _, d := range published {
		fmt.Fprintf(b.Out, "  %s\n", d)
	}

	return nil
}

// installBootstrap renders the client install script into the public
// directory, world-readable and not executable (clients pipe it to sh).
func (b *Builder) installBootstrap() error {
	cfg := b.Config

	repoURL := "https://" + cfg.Domain
	if cfg.Domain == "" && cfg.Bucket != "" {
		repoURL = "https://storage.googleapis.com/" + cfg.Bucket
	}

	script, err := bootstrap.Render(bootstrap.Params{
		Package:      cfg.Package,
		Distribution: cfg.Distribution,
		Component:    cfg.Component,
		Architecture: cfg.Architecture,
		RepoURL:      repoURL,
		KeyFile:      config.KeyFileName,
	})
	if err != nil {
		return fmt.Errorf("rendering bootstrap script: %w", err)
	}

	dest := filepath.Join(cfg.PublicDir, config.BootstrapFileName)
	if err := os.WriteFile(dest, []byte(script), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
