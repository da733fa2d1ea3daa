// Package revision resolves the newest upstream commit for the bump command.
package revision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// xssiPrefix is prepended by gitiles to every JSON response.
const xssiPrefix = ")]}'\n"

// maxLogResponse bounds the log body; one commit is a few hundred bytes.
const maxLogResponse = 1 << 20

// Resolver queries a gitiles-style log endpoint for the latest commit of a branch.
type Resolver struct {
	httpClient *retryablehttp.Client
}

// NewResolver configures the retryable HTTP client used for log lookups.
func NewResolver(retries int) *Resolver {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.RetryMax = retries
	httpClient.Logger = nil

	return &Resolver{httpClient: httpClient}
}

// LogURL builds "<repository>/+log/<branch>?format=JSON&n=1".
func LogURL(repositoryURL, branch string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(repositoryURL, "/"))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = u.Path + "/+log/" + branch
	u.RawQuery = url.Values{"format": {"JSON"}, "n": {"1"}}.Encode()
	return u.String(), nil
}

// Latest returns the newest commit hash on branch.
func (r *Resolver) Latest(ctx context.Context, repositoryURL, branch string) (string, error) {
	logURL, err := LogURL(repositoryURL, branch)
	if err != nil {
		return "", errors.FetchFailure("invalid repository URL").
			WithCause(err).
			WithContext("url", repositoryURL).
			Build()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, logURL, nil)
	if err != nil {
		return "", errors.FetchFailure("failed to create log request").WithCause(err).Build()
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Fetching upstream log", logfields.URL(logURL))
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", errors.FetchFailure("failed to fetch upstream log").
			WithCause(err).
			WithContext("url", logURL).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.FetchFailure("unexpected status from upstream log").
			WithContext("url", logURL).
			WithContext("status", resp.Status).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLogResponse))
	if err != nil {
		return "", errors.FetchFailure("failed to read upstream log").WithCause(err).Build()
	}
	return ParseLatest(body)
}

type logResponse struct {
	Log []struct {
		Commit string `json:"commit"`
	} `json:"log"`
}

// ParseLatest extracts log[0].commit from a gitiles JSON log body, stripping
// the anti-XSSI marker when present. Empty or malformed bodies are errors.
func ParseLatest(body []byte) (string, error) {
	body = bytes.TrimPrefix(body, []byte(xssiPrefix))
	if len(bytes.TrimSpace(body)) == 0 {
		return "", errors.FetchFailure("empty upstream log response").Build()
	}

	var parsed logResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.FetchFailure("malformed upstream log response").WithCause(err).Build()
	}
	if len(parsed.Log) == 0 {
		return "", errors.FetchFailure("upstream log has no commits").Build()
	}
	commit := strings.TrimSpace(parsed.Log[0].Commit)
	if commit == "" {
		return "", errors.FetchFailure("upstream log entry has no commit").Build()
	}
	return commit, nil
}
