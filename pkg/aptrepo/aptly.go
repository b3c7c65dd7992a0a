package aptrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/nuvion/relkit/pkg/tool"
)

// EngineEnvVar overrides the aptly binary used for repository operations.
const EngineEnvVar = "RELKIT_APTLY"

// Aptly wraps the aptly command-line tool. All operations shell out; a
// non-zero exit surfaces aptly's own stderr as the error.
type Aptly struct {
	run tool.Runner
}

// Detect locates aptly, honoring the RELKIT_APTLY override.
func Detect() (*Aptly, error) {
	t, err := tool.Find(EngineEnvVar, "aptly")
	if err != nil {
		return nil, err
	}
	return &Aptly{run: t.Run}, nil
}

// CreateRepo creates the named local repository for the given distribution
// and component. A repository that already exists is a no-op, keeping
// repeated release runs idempotent.
func (a *Aptly) CreateRepo(ctx context.Context, name, distribution, component string) (created bool, err error) {
	repos, err := a.ListRepos(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range repos {
		if r == name {
			return false, nil
		}
	}

	_, err = a.run(ctx, "repo", "create",
		"-distribution="+distribution,
		"-component="+component,
		name)
	if err != nil {
		return false, fmt.Errorf("creating repo %q: %w", name, err)
	}
	return true, nil
}

// ListRepos returns the names of local repositories.
func (a *Aptly) ListRepos(ctx context.Context) ([]string, error) {
	out, err := a.run(ctx, "repo", "list", "-raw")
	if err != nil {
		return nil, fmt.Errorf("listing repos: %w", err)
	}
	return splitLines(out), nil
}

// AddPackage registers the package file at debPath into the repository's
// working set. Avoiding duplicate version collisions is the caller's
// responsibility.
func (a *Aptly) AddPackage(ctx context.Context, repo, debPath string) error {
	if _, err := a.run(ctx, "repo", "add", repo, debPath); err != nil {
		return fmt.Errorf("adding %s to repo %q: %w", debPath, repo, err)
	}
	return nil
}

// PublishedDistributions returns the distributions currently published,
// parsed from `aptly publish list -raw` ("<prefix> <distribution>" lines).
func (a *Aptly) PublishedDistributions(ctx context.Context) ([]string, error) {
	out, err := a.run(ctx, "publish", "list", "-raw")
	if err != nil {
		return nil, fmt.Errorf("listing published distributions: %w", err)
	}

	var dists []string
	for _, line := range splitLines(out) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// The distribution is the last field; the prefix is omitted for
		// the default ".".
		dists = append(dists, fields[len(fields)-1])
	}
	return dists, nil
}

// Publish performs a first-time publish of the repository under the given
// distribution. Publishing an already-published distribution this way is
// rejected by aptly; callers must use UpdatePublished instead.
func (a *Aptly) Publish(ctx context.Context, repo, distribution, component, architecture string) error {
	_, err := a.run(ctx, "publish", "repo",
		"-distribution="+distribution,
		"-component="+component,
		"-architectures="+architecture,
		repo)
	if err != nil {
		return fmt.Errorf("publishing repo %q as %q: %w", repo, distribution, err)
	}
	return nil
}

// UpdatePublished refreshes an already-published distribution in place. The
// new snapshot supersedes the old one at the same public path.
func (a *Aptly) UpdatePublished(ctx context.Context, distribution string) error {
	if _, err := a.run(ctx, "publish", "update", distribution); err != nil {
		return fmt.Errorf("updating published distribution %q: %w", distribution, err)
	}
	return nil
}

func splitLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
