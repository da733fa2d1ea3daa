package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// ExecFetcher fetches by running the git client, matching what an operator
// would type by hand. Preflight must have found Binary on PATH.
type ExecFetcher struct {
	Binary   string
	Progress io.Writer
}

// Fetch runs "git clone <url> <dest>" then "git checkout --detach <revision>".
func (f *ExecFetcher) Fetch(ctx context.Context, repositoryURL, revision, destination string) error {
	if err := ensureEmpty(destination); err != nil {
		return err
	}

	slog.Debug("Cloning repository with git", logfields.URL(repositoryURL), logfields.Path(destination))
	if err := f.run(ctx, "", "clone", repositoryURL, destination); err != nil {
		return classifyFetchError("clone", repositoryURL, revision, err)
	}
	if err := f.run(ctx, destination, "checkout", "--detach", revision); err != nil {
		return classifyFetchError("checkout", repositoryURL, revision, err)
	}

	slog.Info("Repository checked out", logfields.URL(repositoryURL), logfields.Revision(revision), logfields.Path(destination))
	return nil
}

func (f *ExecFetcher) run(ctx context.Context, dir string, args ...string) error {
	bin := f.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	if f.Progress != nil {
		cmd.Stdout = f.Progress
		cmd.Stderr = io.MultiWriter(f.Progress, &stderr)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}
