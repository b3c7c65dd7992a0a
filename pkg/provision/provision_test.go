package provision

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/nuvion/relkit/pkg/config"
)

// fakeGCloud simulates resource state: describe succeeds only for resources
// previously created (or seeded), create records the resource.
type fakeGCloud struct {
	existing map[string]bool // keyed by "<kind> <name>"
	calls    [][]string
	describe map[string][]byte // canned describe output per key
}

func newFakeGCloud() *fakeGCloud {
	return &fakeGCloud{
		existing: map[string]bool{},
		describe: map[string][]byte{},
	}
}

func (f *fakeGCloud) run(ctx context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)

	verb, key := classify(args)
	switch verb {
	case "describe":
		if !f.existing[key] {
			return nil, fmt.Errorf("NOT_FOUND: %s", key)
		}
		return f.describe[key], nil
	case "create":
		f.existing[key] = true
		return nil, nil
	case "add-iam-policy-binding":
		return nil, nil
	}
	return nil, fmt.Errorf("fake gcloud: unexpected command %v", args)
}

// classify extracts the verb and a "<kind> <name>" resource key from a
// gcloud invocation.
func classify(args []string) (verb, key string) {
	for i, a := range args {
		switch a {
		case "describe", "create", "add-iam-policy-binding":
			kind := strings.Join(args[:i], " ")
			name := ""
			if i+1 < len(args) {
				name = args[i+1]
			}
			return a, kind + " " + name
		}
	}
	return "", ""
}

func wrap(f *fakeGCloud) *GCloud {
	return &GCloud{run: f.run}
}

func testRelease() *config.Release {
	return &config.Release{
		Repo:   "nuvion",
		Bucket: "nuvion-apt",
		Domain: "apt.nuvion.example.com",
	}
}

func seedForwardingRule(f *fakeGCloud, name, address string) {
	key := "compute forwarding-rules " + name
	f.describe[key] = []byte("IPAddress: " + address + "\nIPProtocol: TCP\nname: " + name + "\n")
}

func TestEnsureCreatesWhenAbsent(t *testing.T) {
	f := newFakeGCloud()
	g := wrap(f)

	created, err := g.EnsureBucket(context.Background(), "nuvion-apt")
	if err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if !created {
		t.Error("expected creation for absent bucket")
	}

	created, err = g.EnsureBucket(context.Background(), "nuvion-apt")
	if err != nil {
		t.Fatalf("second EnsureBucket: %v", err)
	}
	if created {
		t.Error("existing bucket was created again")
	}
}

func TestForwardingRuleAddress(t *testing.T) {
	f := newFakeGCloud()
	f.existing["compute forwarding-rules nuvion-apt-https"] = true
	seedForwardingRule(f, "nuvion-apt-https", "203.0.113.10")

	addr, err := wrap(f).ForwardingRuleAddress(context.Background(), "nuvion-apt-https")
	if err != nil {
		t.Fatalf("ForwardingRuleAddress: %v", err)
	}
	if addr != "203.0.113.10" {
		t.Errorf("address = %q, want 203.0.113.10", addr)
	}
}

func TestForwardingRuleAddressMissing(t *testing.T) {
	f := newFakeGCloud()
	f.existing["compute forwarding-rules nuvion-apt-https"] = true
	f.describe["compute forwarding-rules nuvion-apt-https"] = []byte("name: nuvion-apt-https\n")

	_, err := wrap(f).ForwardingRuleAddress(context.Background(), "nuvion-apt-https")
	if err == nil {
		t.Fatal("expected error for describe output without an address")
	}
}

func TestPlanApply(t *testing.T) {
	f := newFakeGCloud()
	cfg := testRelease()
	seedForwardingRule(f, cfg.ForwardingRuleName(), "203.0.113.10")

	out := &bytes.Buffer{}
	plan := &Plan{GCloud: wrap(f), Config: cfg, Out: out}

	addr, err := plan.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if addr != "203.0.113.10" {
		t.Errorf("address = %q", addr)
	}

	for _, kind := range []string{
		"storage buckets gs://nuvion-apt",
		"compute backend-buckets nuvion-apt-backend",
		"compute url-maps nuvion-apt-urlmap",
		"compute ssl-certificates nuvion-apt-cert",
		"compute target-https-proxies nuvion-apt-proxy",
		"compute forwarding-rules nuvion-apt-https",
	} {
		if !f.existing[kind] {
			t.Errorf("resource %q was not created", kind)
		}
	}

	if !strings.Contains(out.String(), "Created bucket gs://nuvion-apt") {
		t.Errorf("output missing bucket creation: %s", out.String())
	}
}

func TestPlanApplyRerunCreatesNothing(t *testing.T) {
	f := newFakeGCloud()
	cfg := testRelease()
	seedForwardingRule(f, cfg.ForwardingRuleName(), "203.0.113.10")
	plan := &Plan{GCloud: wrap(f), Config: cfg, Out: &bytes.Buffer{}}
	ctx := context.Background()

	if _, err := plan.Apply(ctx); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	f.calls = nil
	out := &bytes.Buffer{}
	plan.Out = out
	if _, err := plan.Apply(ctx); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	for _, call := range f.calls {
		if verb, _ := classify(call); verb == "create" {
			t.Errorf("re-run created a resource: %v", call)
		}
	}
	if strings.Contains(out.String(), "Created ") {
		t.Errorf("re-run reported creations:\n%s", out.String())
	}
}

func TestPlanApplyDNSRecord(t *testing.T) {
	f := newFakeGCloud()
	cfg := testRelease()
	cfg.DNSZone = "nuvion-zone"
	seedForwardingRule(f, cfg.ForwardingRuleName(), "203.0.113.10")

	plan := &Plan{GCloud: wrap(f), Config: cfg, Out: &bytes.Buffer{}}
	if _, err := plan.Apply(context.Background()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !f.existing["dns record-sets apt.nuvion.example.com."] {
		t.Error("DNS record was not created")
	}
}

func TestPlanApplyRequiredConfig(t *testing.T) {
	tests := map[string]func(*config.Release){
		"missing bucket": func(r *config.Release) { r.Bucket = "" },
		"missing domain": func(r *config.Release) { r.Domain = "" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFakeGCloud()
			cfg := testRelease()
			mutate(cfg)

			plan := &Plan{GCloud: wrap(f), Config: cfg, Out: &bytes.Buffer{}}
			if _, err := plan.Apply(context.Background()); err == nil {
				t.Fatal("expected error, got nil")
			}
			if len(f.calls) != 0 {
				t.Error("gcloud was invoked despite missing configuration")
			}
		})
	}
}
