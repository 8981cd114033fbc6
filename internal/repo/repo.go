package repo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// DefaultDepth is the history depth fetched for analysis; only the worktree
// of the default branch is inspected.
const DefaultDepth = 1

// Acquirer clones remote repositories into scratch directories.
type Acquirer struct {
	// Depth limits fetched history; zero fetches everything.
	Depth int
	// TempDir is the parent of scratch directories; empty means os.TempDir.
	TempDir string
	// Progress receives clone progress output when non-nil.
	Progress io.Writer
	Logger   *slog.Logger
}

// NewAcquirer returns an Acquirer performing shallow clones.
func NewAcquirer(logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Acquirer{Depth: DefaultDepth, Logger: logger}
}

// authMethod returns the system SSH agent for SSH URLs and nil otherwise.
func (a *Acquirer) authMethod(url string) transport.AuthMethod {
	if !isSSHURL(url) {
		return nil
	}
	auth, err := gitssh.NewSSHAgentAuth("git")
	if err != nil {
		a.Logger.Debug("ssh agent unavailable", "error", err)
		return nil
	}
	return auth
}

// Clone copies the default branch of url into a new scratch directory and
// returns its path. The caller owns the directory.
func (a *Acquirer) Clone(ctx context.Context, url string) (string, error) {
	dir, err := os.MkdirTemp(a.TempDir, "self_deploy_")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	a.Logger.Debug("cloning repository", "url", url, "dir", dir, "depth", a.Depth)
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Auth:         a.authMethod(url),
		Depth:        a.Depth,
		SingleBranch: true,
		Progress:     a.Progress,
	})
	if err != nil {
		a.remove(dir)
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}
	return dir, nil
}

// WithRepository clones url, calls fn with the checkout directory and removes
// the directory afterwards, whether fn succeeds, fails or panics.
func (a *Acquirer) WithRepository(ctx context.Context, url string, fn func(dir string) error) error {
	dir, err := a.Clone(ctx, url)
	if err != nil {
		return err
	}
	defer a.remove(dir)
	return fn(dir)
}

func (a *Acquirer) remove(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		a.Logger.Warn("failed to remove scratch dir", "dir", dir, "error", err)
	}
}
