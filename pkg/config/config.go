package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"
)

// FileName is the optional per-project configuration file read from the
// working directory. Every field can also be supplied via RELKIT_* env vars.
const FileName = "release.toml"

// EnvPrefix is the prefix for environment-variable configuration
// (e.g. RELKIT_DISTRIBUTION, RELKIT_BUCKET).
const EnvPrefix = "RELKIT"

// KeyFileName is the exported public key filename served from the snapshot
// public directory.
const KeyFileName = "nuvion.asc"

// BootstrapFileName is the client install script served from the snapshot
// public directory.
const BootstrapFileName = "install.sh"

// Release holds the resolved release parameters for one pipeline run. It is
// built once at startup and passed into components unchanged; components
// never consult the environment themselves.
type Release struct {
	// Repo is the aptly local repository name. Default "nuvion".
	Repo string `toml:"repo" mapstructure:"repo"`
	// Distribution is the release channel (e.g. "stable"). Default "stable".
	Distribution string `toml:"distribution" mapstructure:"distribution"`
	// Component within the distribution. Default "main".
	Component string `toml:"component" mapstructure:"component"`
	// Architecture of published packages. Default "arm64".
	Architecture string `toml:"architecture" mapstructure:"architecture"`
	// PublicDir is the aptly public root holding the published snapshot
	// tree. Default "~/.aptly/public" (expanded at load time).
	PublicDir string `toml:"public_dir" mapstructure:"public_dir"`
	// KeyID selects the signing identity whose public half is exported
	// alongside the snapshot. Empty means the default gpg identity.
	KeyID string `toml:"key_id" mapstructure:"key_id"`
	// Package is the installable package name used in the client
	// bootstrap script. Default "nuvion-agent".
	Package string `toml:"package" mapstructure:"package"`

	// Bucket is the object-storage hosting target. No default; required
	// for cloud sync and provisioning.
	Bucket string `toml:"bucket" mapstructure:"bucket"`
	// Prefix is an optional object key prefix within the bucket.
	Prefix string `toml:"prefix" mapstructure:"prefix"`
	// Domain is the public hostname for the CDN frontend and the
	// optional DNS record. No default.
	Domain string `toml:"domain" mapstructure:"domain"`
	// DNSZone is the managed zone for the optional DNS record. Empty
	// skips DNS setup.
	DNSZone string `toml:"dns_zone" mapstructure:"dns_zone"`

	// Formula update inputs. All three are required by `relkit formula`.
	URL     string `toml:"url" mapstructure:"url"`
	SHA256  string `toml:"sha256" mapstructure:"sha256"`
	Version string `toml:"version" mapstructure:"version"`
}

// Load resolves the release configuration with viper precedence:
// RELKIT_* environment variables > release.toml in dir > defaults.
// Individual CLI flags override fields after Load in the command layer.
func Load(dir string) (*Release, error) {
	v := viper.New()
	v.SetConfigType("toml")

	for key, val := range defaults() {
		v.SetDefault(key, val)
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Release{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling release config: %w", err)
	}

	if cfg.PublicDir == "" || cfg.PublicDir == defaultPublicDir {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		cfg.PublicDir = filepath.Join(home, ".aptly", "public")
	}

	return cfg, nil
}

const defaultPublicDir = "~/.aptly/public"

// defaults registers every key with viper so that environment variables are
// picked up during Unmarshal; optional fields default to empty.
func defaults() map[string]string {
	return map[string]string{
		"repo":         "nuvion",
		"distribution": "stable",
		"component":    "main",
		"architecture": "arm64",
		"public_dir":   defaultPublicDir,
		"package":      "nuvion-agent",
		"key_id":       "",
		"bucket":       "",
		"prefix":       "",
		"domain":       "",
		"dns_zone":     "",
		"url":          "",
		"sha256":       "",
		"version":      "",
	}
}

// Validate checks cross-field constraints. Version, when set, must be a
// valid semantic version since it feeds formula rewriting.
func (r *Release) Validate() error {
	if r.Repo == "" {
		return fmt.Errorf("repo must not be empty")
	}
	if r.Distribution == "" {
		return fmt.Errorf("distribution must not be empty")
	}
	if r.Version != "" {
		if _, err := semver.NewVersion(r.Version); err != nil {
			return fmt.Errorf("version %q is not a valid semantic version: %w", r.Version, err)
		}
	}
	return nil
}

// Provisioning resource names are derived from the repo name so that
// re-runs address the same resources.

func (r *Release) BackendName() string        { return r.Repo + "-apt-backend" }
func (r *Release) URLMapName() string         { return r.Repo + "-apt-urlmap" }
func (r *Release) CertificateName() string    { return r.Repo + "-apt-cert" }
func (r *Release) ProxyName() string          { return r.Repo + "-apt-proxy" }
func (r *Release) ForwardingRuleName() string { return r.Repo + "-apt-https" }
