// Package testutil builds throwaway upstream repositories and file trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteTree writes files (slash path -> content) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// Upstream creates a bare repository holding one commit per element of commits
// and returns its path with the commit hashes in order. Each commit adds or
// overwrites the given files on top of the previous one.
func Upstream(t *testing.T, commits ...map[string]string) (string, []plumbing.Hash) {
	t.Helper()
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	if _, err := git.PlainInit(barePath, true); err != nil {
		t.Fatalf("init bare: %v", err)
	}

	workPath := filepath.Join(tmp, "seed")
	repo, err := git.PlainInit(workPath, false)
	if err != nil {
		t.Fatalf("init work: %v", err)
	}
	if _, err := repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}}); err != nil {
		t.Fatalf("create remote: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	hashes := make([]plumbing.Hash, 0, len(commits))
	for i, files := range commits {
		WriteTree(t, workPath, files)
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, err := wt.Add(name); err != nil {
				t.Fatalf("add %s: %v", name, err)
			}
		}
		h, err := wt.Commit("commit "+string(rune('a'+i)), &git.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		hashes = append(hashes, h)
	}

	if err := repo.Push(&git.PushOptions{RemoteName: "origin"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	return barePath, hashes
}
