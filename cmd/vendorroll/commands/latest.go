package commands

import (
	"fmt"

	"git.home.luguber.info/inful/vendorroll/internal/revision"
)

// LatestCmd implements the 'latest' command.
type LatestCmd struct {
	Target  string `arg:"" help:"Target to look up"`
	Retries int    `help:"HTTP retries" default:"3"`
}

func (l *LatestCmd) Run(g *Global, root *CLI) error {
	_, t, err := loadTarget(root.Config, l.Target)
	if err != nil {
		return err
	}
	latest, err := revision.NewResolver(l.Retries).Latest(g.context(), t.Repository, t.Branch)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), latest)
	return nil
}
