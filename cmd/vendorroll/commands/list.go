package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/vendorroll/internal/config"
)

// ListCmd implements the 'list' command.
type ListCmd struct{}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(g.out(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TARGET\tREVISION\tDESTINATION\tREPOSITORY")
	for _, t := range cfg.Targets {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Revision, t.Destination, t.Repository)
	}
	return w.Flush()
}
