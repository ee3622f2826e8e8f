package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the portfolios" }
func (*listCmd) Usage() string {
	return `folio list

  Lists the portfolios, with the date of their last change.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	printMarkdown(renderer.RenderPortfolios(renderer.NewPortfolios(svc.Registry())))
	return subcommands.ExitSuccess
}

type createCmd struct{}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create an empty portfolio" }
func (*createCmd) Usage() string {
	return `folio create <name>

  Creates an empty portfolio. A portfolio is also created by its first 'folio add'.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a portfolio name is required")
		f.Usage()
		return subcommands.ExitUsageError
	}
	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	if err := svc.Create(ctx, f.Arg(0)); err != nil {
		return exitStatus(err)
	}
	fmt.Printf("Portfolio %q created\n", f.Arg(0))
	return subcommands.ExitSuccess
}
