// Package preflight verifies external tools before any destructive action.
package preflight

import (
	"log/slog"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// LookPath is exec.LookPath; tests replace it.
var LookPath = exec.LookPath

// Tools lists the executables a target needs: its required_tools, git for the
// exec fetcher and the generator command.
func Tools(t *config.Target) []string {
	seen := map[string]bool{}
	var out []string
	add := func(tool string) {
		if tool != "" && !seen[tool] {
			seen[tool] = true
			out = append(out, tool)
		}
	}
	for _, tool := range t.RequiredTools {
		add(tool)
	}
	if t.Fetcher == config.FetcherExec {
		add("git")
	}
	if t.Classifier.Strategy == config.StrategyGenerator && len(t.Classifier.Command) > 0 {
		// Paths relative to the checkout cannot be checked before the clone exists.
		if cmd := t.Classifier.Command[0]; !isCheckoutRelative(cmd) {
			add(cmd)
		}
	}
	return out
}

// Check fails with ToolNotFound naming the first tool not on PATH.
func Check(tools []string) error {
	for _, tool := range tools {
		p, err := LookPath(tool)
		if err != nil {
			slog.Error("Required tool not found on PATH", logfields.Tool(tool), logfields.Error(err))
			return errors.ToolNotFound(tool).WithCause(err).Build()
		}
		slog.Debug("Found required tool", logfields.Tool(tool), logfields.Path(p))
	}
	return nil
}

func isCheckoutRelative(cmd string) bool {
	return !filepath.IsAbs(cmd) && filepath.Base(cmd) != cmd
}
