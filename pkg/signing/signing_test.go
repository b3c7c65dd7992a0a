package signing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const armoredKey = "-----BEGIN PGP PUBLIC KEY BLOCK-----\nxyz\n-----END PGP PUBLIC KEY BLOCK-----\n"

func fakeExporter(output []byte, err error) (*Exporter, *[][]string) {
	calls := &[][]string{}
	e := &Exporter{run: func(ctx context.Context, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		return output, err
	}}
	return e, calls
}

func TestExportPublicKey(t *testing.T) {
	e, calls := fakeExporter([]byte(armoredKey), nil)
	dest := filepath.Join(t.TempDir(), "nuvion.asc")

	wrote, err := e.ExportPublicKey(context.Background(), "", dest)
	if err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}
	if !wrote {
		t.Error("expected a write")
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading exported key: %v", err)
	}
	if string(data) != armoredKey {
		t.Errorf("exported key = %q, want %q", data, armoredKey)
	}

	info, _ := os.Stat(dest)
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("key permissions = %o, want 0644", perm)
	}

	want := []string{"--export", "--armor"}
	if !reflect.DeepEqual((*calls)[0], want) {
		t.Errorf("gpg args = %v, want %v", (*calls)[0], want)
	}
}

func TestExportPublicKeyWithKeyID(t *testing.T) {
	e, calls := fakeExporter([]byte(armoredKey), nil)

	if _, err := e.ExportPublicKey(context.Background(), "ABCD1234", filepath.Join(t.TempDir(), "k.asc")); err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}

	want := []string{"--export", "--armor", "ABCD1234"}
	if !reflect.DeepEqual((*calls)[0], want) {
		t.Errorf("gpg args = %v, want %v", (*calls)[0], want)
	}
}

func TestExportPublicKeySkipsExisting(t *testing.T) {
	e, calls := fakeExporter([]byte(armoredKey), nil)
	dest := filepath.Join(t.TempDir(), "nuvion.asc")
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	wrote, err := e.ExportPublicKey(context.Background(), "", dest)
	if err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}
	if wrote {
		t.Error("existing key file was rewritten")
	}
	if len(*calls) != 0 {
		t.Error("gpg was invoked despite an existing key file")
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "existing" {
		t.Error("existing key file content changed")
	}
}

func TestExportPublicKeyEmptyOutput(t *testing.T) {
	// gpg exits zero but exports nothing, e.g. when no key is configured.
	e, _ := fakeExporter([]byte{}, nil)
	dest := filepath.Join(t.TempDir(), "nuvion.asc")

	_, err := e.ExportPublicKey(context.Background(), "", dest)
	if !errors.Is(err, ErrEmptyKeyExport) {
		t.Fatalf("err = %v, want ErrEmptyKeyExport", err)
	}

	if _, statErr := os.Stat(dest); statErr == nil {
		t.Error("an empty key file was written")
	}
}

func TestExportPublicKeyToolFailure(t *testing.T) {
	toolErr := errors.New("gpg: no secret key")
	e, _ := fakeExporter(nil, toolErr)

	_, err := e.ExportPublicKey(context.Background(), "", filepath.Join(t.TempDir(), "k.asc"))
	if !errors.Is(err, toolErr) {
		t.Fatalf("err = %v, want wrapped tool error", err)
	}
}
