package git

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// GoGitFetcher fetches with go-git; it needs no git binary.
type GoGitFetcher struct {
	Progress io.Writer // optional clone progress sink
}

// Fetch performs a full clone followed by a detached checkout of revision.
func (f *GoGitFetcher) Fetch(ctx context.Context, repositoryURL, revision, destination string) error {
	if err := ensureEmpty(destination); err != nil {
		return err
	}

	slog.Debug("Cloning repository", logfields.URL(repositoryURL), logfields.Path(destination))
	repository, err := git.PlainCloneContext(ctx, destination, false, &git.CloneOptions{
		URL:        repositoryURL,
		NoCheckout: true,
		Progress:   f.Progress,
	})
	if err != nil {
		return classifyFetchError("clone", repositoryURL, revision, err)
	}

	hash, err := repository.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return classifyFetchError("checkout", repositoryURL, revision, err)
	}

	wt, err := repository.Worktree()
	if err != nil {
		return classifyFetchError("checkout", repositoryURL, revision, err)
	}
	// Hash without Branch leaves HEAD detached.
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return classifyFetchError("checkout", repositoryURL, revision, err)
	}

	slog.Info("Repository checked out", logfields.URL(repositoryURL), logfields.Revision(hash.String()), logfields.Path(destination))
	return nil
}
