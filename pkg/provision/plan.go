package provision

import (
	"context"
	"fmt"
	"io"

	"github.com/nuvion/relkit/pkg/config"
)

// Plan provisions the durable hosting path for a repository: bucket,
// CDN backend, URL map, managed certificate, HTTPS proxy, forwarding rule,
// and optionally a DNS record. Steps run in order and fail fast; every
// step is a no-op when its resource already exists.
type Plan struct {
	GCloud *GCloud
	Config *config.Release
	Out    io.Writer
}

// Apply runs the plan and returns the stable public address of the
// forwarding rule.
func (p *Plan) Apply(ctx context.Context) (string, error) {
	cfg := p.Config

	if cfg.Bucket == "" {
		return "", fmt.Errorf("bucket is required for provisioning")
	}
	if cfg.Domain == "" {
		return "", fmt.Errorf("domain is required for provisioning")
	}

	steps := []struct {
		desc string
		run  func(context.Context) (bool, error)
	}{
		{"bucket gs://" + cfg.Bucket, func(ctx context.Context) (bool, error) {
			return p.GCloud.EnsureBucket(ctx, cfg.Bucket)
		}},
		{"backend bucket " + cfg.BackendName(), func(ctx context.Context) (bool, error) {
			return p.GCloud.EnsureBackendBucket(ctx, cfg.BackendName(), cfg.Bucket)
		}},
		{"URL map " + cfg.URLMapName(), func(ctx context.Context) (bool, error) {
			return p.GCloud.EnsureURLMap(ctx, cfg.URLMapName(), cfg.BackendName())
		}},
		{"certificate " + cfg.CertificateName(), func(ctx context.Context) (bool, error) {
			return p.GCloud.EnsureCertificate(ctx, cfg.CertificateName(), cfg.Domain)
		}},
		{"HTTPS proxy " + cfg.ProxyName(), func(ctx context.Context) (bool, error) {
			return p.GCloud.EnsureProxy(ctx, cfg.ProxyName(), cfg.URLMapName(), cfg.CertificateName())
		}},
		{"forwarding rule " + cfg.ForwardingRuleName(), func(ctx context.Context) (bool, error) {
			return p.GCloud.EnsureForwardingRule(ctx, cfg.ForwardingRuleName(), cfg.ProxyName())
		}},
	}

	for _, step := range steps {
		created, err := step.run(ctx)
		if err != nil {
			return "", fmt.Errorf("provisioning %s: %w", step.desc, err)
		}
		if created {
			fmt.Fprintf(p.Out, "Created %s\n", step.desc)
		} else {
			fmt.Fprintf(p.Out, "Exists %s\n", step.desc)
		}
	}

	if err := p.GCloud.GrantPublicRead(ctx, cfg.Bucket); err != nil {
		return "", err
	}

	address, err := p.GCloud.ForwardingRuleAddress(ctx, cfg.ForwardingRuleName())
	if err != nil {
		return "", err
	}

	if cfg.DNSZone != "" {
		created, err := p.GCloud.EnsureDNSRecord(ctx, cfg.DNSZone, cfg.Domain, address)
		if err != nil {
			return "", fmt.Errorf("provisioning DNS record for %s: %w", cfg.Domain, err)
		}
		if created {
			fmt.Fprintf(p.Out, "Created DNS record %s -> %s\n", cfg.Domain, address)
		}
	}

	return address, nil
}
