// Package git fetches an upstream repository at a pinned revision.
//
// A Fetcher performs a full clone into an empty directory and then checks out
// the revision with a detached HEAD; no local branch is created or tracked.
// Two backends exist:
//   - GoGitFetcher runs in-process on go-git (default)
//   - ExecFetcher shells out to the git client found on PATH
//
// Every failure is reported as a fetch-category ClassifiedError.
package git
