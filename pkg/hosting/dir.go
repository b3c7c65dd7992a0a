package hosting

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirTarget serves a snapshot from a static file root, e.g. a directory
// exported by a cluster-local web server.
type DirTarget struct {
	Root string
}

var _ Target = &DirTarget{}

func (d *DirTarget) Name() string {
	return d.Root
}

// Push copies every regular file under localDir into the root, preserving
// relative paths. Files already present in the root but absent from
// localDir are left alone.
func (d *DirTarget) Push(ctx context.Context, localDir string) error {
	return filepath.WalkDir(localDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(d.Root, rel)

		if entry.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		return copyFile(path, dest)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	return os.Chmod(dest, 0o644)
}
