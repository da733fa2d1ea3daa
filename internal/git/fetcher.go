package git

import (
	"context"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// Fetcher clones repositoryURL into destination and checks out revision detached.
// destination must not exist or be empty.
type Fetcher interface {
	Fetch(ctx context.Context, repositoryURL, revision, destination string) error
}

// New returns the fetcher for a configured backend name ("gogit" or "exec").
func New(backend string, progress io.Writer) (Fetcher, error) {
	switch backend {
	case "", "gogit":
		return &GoGitFetcher{Progress: progress}, nil
	case "exec":
		return &ExecFetcher{Binary: "git", Progress: progress}, nil
	default:
		return nil, errors.ValidationError("unknown fetcher backend").
			WithContext("fetcher", backend).
			Build()
	}
}

// ensureEmpty refuses a non-empty destination; fetching into one is undefined.
func ensureEmpty(destination string) error {
	entries, err := os.ReadDir(destination)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.FileSystemFailure(err, "inspect fetch destination").Build()
	}
	if len(entries) > 0 {
		return errors.FetchFailure("fetch destination is not empty").
			WithContext("path", destination).
			Build()
	}
	return nil
}

// classifyFetchError attaches a coarse reason so operators know what to fix.
func classifyFetchError(op, url, revision string, err error) error {
	if _, ok := errors.AsClassified(err); ok {
		return err
	}
	l := strings.ToLower(err.Error())
	reason := "unknown"
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "could not read username"):
		reason = "auth"
	case strings.Contains(l, "reference not found") || strings.Contains(l, "did not match any") || strings.Contains(l, "object not found"):
		reason = "revision_not_found"
	case strings.Contains(l, "repository not found") || strings.Contains(l, "not found") || strings.Contains(l, "does not exist"):
		reason = "not_found"
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		reason = "unsupported_protocol"
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection reset") || strings.Contains(l, "no route to host") || strings.Contains(l, "remote hung up"):
		reason = "network"
	case strings.Contains(l, "context canceled"):
		reason = "canceled"
	}
	return errors.FetchFailure(op+" failed").
		WithCause(err).
		WithContext("url", url).
		WithContext("revision", revision).
		WithContext("reason", reason).
		Build()
}
