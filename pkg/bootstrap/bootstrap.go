// Package bootstrap renders the client install script served alongside the
// published repository. The script verifies local prerequisites, installs
// the signing key into the system keyring directory, registers the
// repository, and installs the package; every step is fatal on failure.
package bootstrap

import (
	"fmt"
	"strings"
	"text/template"
)

// Params fills the install script template.
type Params struct {
	Package      string // apt package to install
	Distribution string // release channel, e.g. "stable"
	Component    string // e.g. "main"
	Architecture string // the only supported dpkg architecture
	RepoURL      string // public base URL of the repository
	KeyFile      string // armored key filename under RepoURL
}

// Validate reports the first missing parameter.
func (p Params) Validate() error {
	for _, f := range []struct{ name, val string }{
		{"package", p.Package},
		{"distribution", p.Distribution},
		{"component", p.Component},
		{"architecture", p.Architecture},
		{"repo URL", p.RepoURL},
		{"key file", p.KeyFile},
	} {
		if f.val == "" {
			return fmt.Errorf("bootstrap %s is required", f.name)
		}
	}
	return nil
}

var scriptTmpl = template.Must(template.New("install").Parse(`#!/bin/sh
set -eu

for bin in curl gpg apt-get dpkg; do
	if ! command -v "$bin" >/dev/null 2>&1; then
		echo "error: $bin is required" >&2
		exit 1
	fi
done

arch="$(dpkg --print-architecture)"
if [ "$arch" != "{{.Architecture}}" ]; then
	echo "error: unsupported architecture $arch (need {{.Architecture}})" >&2
	exit 1
fi

keyring=/usr/share/keyrings/{{.Package}}-archive-keyring.gpg
curl -fsSL "{{.RepoURL}}/{{.KeyFile}}" | gpg --dearmor | sudo tee "$keyring" >/dev/null
sudo chmod 0644 "$keyring"

echo "deb [signed-by=$keyring arch={{.Architecture}}] {{.RepoURL}} {{.Distribution}} {{.Component}}" \
	| sudo tee /etc/apt/sources.list.d/{{.Package}}.list >/dev/null

sudo apt-get update
sudo apt-get install -y {{.Package}}
`))

// Render produces the install script for the given parameters.
func Render(p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	if err := scriptTmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("executing install script template: %w", err)
	}
	return b.String(), nil
}
