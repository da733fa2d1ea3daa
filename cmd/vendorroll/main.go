package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/vendorroll/cmd/vendorroll/commands"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/version"
)

func main() {
	cli := &commands.CLI{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parser := kong.Parse(cli,
		kong.Name("vendorroll"),
		kong.Description("Vendor third-party source trees at pinned revisions."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Ctx: ctx, Out: os.Stdout}, cli)
	stop()
	errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
