package hosting

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSTarget mirrors a snapshot into a Google Cloud Storage bucket, keyed by
// the file's slash-separated path relative to the snapshot root.
type GCSTarget struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ Target = &GCSTarget{}

// NewGCSTarget creates a bucket-backed target. The client authenticates via
// application default credentials. prefix, when non-empty, is prepended to
// every object key.
func NewGCSTarget(ctx context.Context, bucket, prefix string) (*GCSTarget, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSTarget{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCSTarget) Name() string {
	return "gs://" + g.bucket
}

// Push uploads every regular file under localDir. Existing objects with the
// same key are overwritten; no object is ever deleted.
func (g *GCSTarget) Push(ctx context.Context, localDir string) error {
	return filepath.WalkDir(localDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		return g.upload(ctx, path, g.ObjectKey(rel))
	})
}

// ObjectKey maps a relative file path to its object name in the bucket.
func (g *GCSTarget) ObjectKey(rel string) string {
	key := filepath.ToSlash(rel)
	if g.prefix != "" {
		key = strings.TrimSuffix(g.prefix, "/") + "/" + key
	}
	return key
}

func (g *GCSTarget) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing upload of %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying storage client.
func (g *GCSTarget) Close() error {
	return g.client.Close()
}
