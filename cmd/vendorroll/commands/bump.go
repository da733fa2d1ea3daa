package commands

import (
	"fmt"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/revision"
)

// BumpCmd implements the 'bump' command.
type BumpCmd struct {
	Target   string `arg:"" help:"Target whose revision is updated"`
	Revision string `short:"r" help:"Pin this revision instead of resolving the branch head"`
	Retries  int    `help:"HTTP retries when resolving the latest revision" default:"3"`
}

func (b *BumpCmd) Run(g *Global, root *CLI) error {
	cfg, t, err := loadTarget(root.Config, b.Target)
	if err != nil {
		return err
	}

	next := b.Revision
	if next == "" {
		next, err = revision.NewResolver(b.Retries).Latest(g.context(), t.Repository, t.Branch)
		if err != nil {
			return err
		}
	}

	previous, err := config.SetRevision(cfg.Path, t.Name, next)
	if err != nil {
		return err
	}
	if previous == next {
		_, _ = fmt.Fprintf(g.out(), "%s already at %s\n", t.Name, next)
		return nil
	}
	_, _ = fmt.Fprintf(g.out(), "%s: %s -> %s\n", t.Name, previous, next)
	_, _ = fmt.Fprintf(g.out(), "Run \"vendorroll roll %s\" to re-vendor.\n", t.Name)
	return nil
}
