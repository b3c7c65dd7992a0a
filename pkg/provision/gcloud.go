package provision

import (
	"context"
	"fmt"

	"github.com/nuvion/relkit/pkg/tool"
	"sigs.k8s.io/yaml"
)

// EngineEnvVar overrides the gcloud binary used for provisioning.
const EngineEnvVar = "RELKIT_GCLOUD"

// GCloud wraps the gcloud command-line tool. Every Ensure* operation
// follows "describe; if absent, create", so re-running a provisioning plan
// is safe.
type GCloud struct {
	run tool.Runner
}

// Detect locates gcloud, honoring the RELKIT_GCLOUD override.
func Detect() (*GCloud, error) {
	t, err := tool.Find(EngineEnvVar, "gcloud")
	if err != nil {
		return nil, err
	}
	return &GCloud{run: t.Run}, nil
}

// ensure runs the create arguments only when the describe arguments fail,
// reporting whether a create was performed.
func (g *GCloud) ensure(ctx context.Context, describe, create []string) (bool, error) {
	if _, err := g.run(ctx, describe...); err == nil {
		return false, nil
	}
	if _, err := g.run(ctx, create...); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureBucket creates the storage bucket if absent.
func (g *GCloud) EnsureBucket(ctx context.Context, bucket string) (bool, error) {
	url := "gs://" + bucket
	return g.ensure(ctx,
		[]string{"storage", "buckets", "describe", url},
		[]string{"storage", "buckets", "create", url})
}

// GrantPublicRead makes the bucket's objects world-readable. The IAM
// binding is idempotent on the gcloud side.
func (g *GCloud) GrantPublicRead(ctx context.Context, bucket string) error {
	_, err := g.run(ctx, "storage", "buckets", "add-iam-policy-binding", "gs://"+bucket,
		"--member=allUsers", "--role=roles/storage.objectViewer")
	if err != nil {
		return fmt.Errorf("granting public read on %s: %w", bucket, err)
	}
	return nil
}

// EnsureBackendBucket creates a CDN-backed backend for the bucket if absent.
func (g *GCloud) EnsureBackendBucket(ctx context.Context, name, bucket string) (bool, error) {
	return g.ensure(ctx,
		[]string{"compute", "backend-buckets", "describe", name},
		[]string{"compute", "backend-buckets", "create", name,
			"--gcs-bucket-name=" + bucket, "--enable-cdn"})
}

// EnsureURLMap creates a URL map defaulting to the backend bucket if absent.
func (g *GCloud) EnsureURLMap(ctx context.Context, name, backend string) (bool, error) {
	return g.ensure(ctx,
		[]string{"compute", "url-maps", "describe", name},
		[]string{"compute", "url-maps", "create", name,
			"--default-backend-bucket=" + backend})
}

// EnsureCertificate creates a managed certificate for the domain if absent.
func (g *GCloud) EnsureCertificate(ctx context.Context, name, domain string) (bool, error) {
	return g.ensure(ctx,
		[]string{"compute", "ssl-certificates", "describe", name, "--global"},
		[]string{"compute", "ssl-certificates", "create", name,
			"--domains=" + domain, "--global"})
}

// EnsureProxy creates the HTTPS proxy tying the URL map to the
// certificate if absent.
func (g *GCloud) EnsureProxy(ctx context.Context, name, urlMap, certificate string) (bool, error) {
	return g.ensure(ctx,
		[]string{"compute", "target-https-proxies", "describe", name},
		[]string{"compute", "target-https-proxies", "create", name,
			"--url-map=" + urlMap, "--ssl-certificates=" + certificate})
}

// EnsureForwardingRule creates the global HTTPS forwarding rule if absent.
func (g *GCloud) EnsureForwardingRule(ctx context.Context, name, proxy string) (bool, error) {
	return g.ensure(ctx,
		[]string{"compute", "forwarding-rules", "describe", name, "--global"},
		[]string{"compute", "forwarding-rules", "create", name, "--global",
			"--target-https-proxy=" + proxy, "--ports=443"})
}

// ForwardingRuleAddress returns the public address allocated to the
// forwarding rule, parsed from gcloud's YAML describe output.
func (g *GCloud) ForwardingRuleAddress(ctx context.Context, name string) (string, error) {
	out, err := g.run(ctx, "compute", "forwarding-rules", "describe", name,
		"--global", "--format=yaml")
	if err != nil {
		return "", fmt.Errorf("describing forwarding rule %q: %w", name, err)
	}

	var rule struct {
		IPAddress string `json:"IPAddress"`
	}
	if err := yaml.Unmarshal(out, &rule); err != nil {
		return "", fmt.Errorf("parsing forwarding rule %q: %w", name, err)
	}
	if rule.IPAddress == "" {
		return "", fmt.Errorf("forwarding rule %q has no address", name)
	}
	return rule.IPAddress, nil
}

// EnsureDNSRecord points domain at address in the managed zone if no A
// record exists yet.
func (g *GCloud) EnsureDNSRecord(ctx context.Context, zone, domain, address string) (bool, error) {
	fqdn := domain + "."
	return g.ensure(ctx,
		[]string{"dns", "record-sets", "describe", fqdn, "--zone=" + zone, "--type=A"},
		[]string{"dns", "record-sets", "create", fqdn, "--zone=" + zone,
			"--type=A", "--ttl=300", "--rrdatas=" + address})
}
