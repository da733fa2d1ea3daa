package git

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadRepoHead returns the HEAD commit of a checkout and whether HEAD is detached.
// It reads .git/HEAD and resolves symbolic references if needed.
func ReadRepoHead(repoPath string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, ".git", "HEAD"))
	if err != nil {
		return "", false, err
	}

	line := strings.TrimSpace(string(data))

	// A symbolic ref (e.g., "ref: refs/heads/main") means a branch is checked out.
	if strings.HasPrefix(line, "ref:") {
		ref := strings.TrimSpace(strings.TrimPrefix(line, "ref:"))
		refPath := filepath.Join(repoPath, ".git", filepath.FromSlash(ref))
		refData, refErr := os.ReadFile(refPath)
		if refErr != nil {
			return "", false, refErr
		}
		return strings.TrimSpace(string(refData)), false, nil
	}

	return line, true, nil
}
