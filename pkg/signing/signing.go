package signing

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nuvion/relkit/pkg/tool"
)

// EngineEnvVar overrides the gpg binary used for key export.
const EngineEnvVar = "RELKIT_GPG"

// ErrEmptyKeyExport is returned when gpg exits zero but produces no key
// material. A repository served with an empty key file fails client-side
// verification, so this silent-success case is treated as fatal.
var ErrEmptyKeyExport = errors.New("signing key export produced no output")

// Exporter exports the public half of a signing identity.
type Exporter struct {
	run tool.Runner
}

// NewExporter locates gpg, honoring the RELKIT_GPG override.
func NewExporter() (*Exporter, error) {
	t, err := tool.Find(EngineEnvVar, "gpg")
	if err != nil {
		return nil, err
	}
	return &Exporter{run: t.Run}, nil
}

// ExportPublicKey writes the armored public key to dest unless dest already
// exists. keyID selects a specific identity; empty exports the default one.
// Returns whether a new file was written.
func (e *Exporter) ExportPublicKey(ctx context.Context, keyID, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}

	args := []string{"--export", "--armor"}
	if keyID != "" {
		args = append(args, keyID)
	}

	out, err := e.run(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("exporting public key: %w", err)
	}
	if len(out) == 0 {
		return false, ErrEmptyKeyExport
	}

	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", dest, err)
	}
	return true, nil
}
