package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

// mutateCmd adds or removes stocks, depending on kind.
type mutateCmd struct {
	kind      stockfolio.MutationKind
	portfolio string
	date      string
}

func (c *mutateCmd) Name() string { return c.kind.String() }
func (c *mutateCmd) Synopsis() string {
	if c.kind == stockfolio.Remove {
		return "sell stocks from a portfolio"
	}
	return "buy stocks into a portfolio"
}
func (c *mutateCmd) Usage() string {
	return fmt.Sprintf(`folio %s -p <portfolio> [-d <date>] <symbol> <quantity>

  %s. The date defaults to today.
`, c.kind, c.Synopsis())
}

func (c *mutateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "portfolio name")
	f.StringVar(&c.date, "d", "", "date of the trade (YYYY-MM-DD), default today")
}

func (c *mutateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: a portfolio, a symbol and a quantity are required")
		f.Usage()
		return subcommands.ExitUsageError
	}
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	qty, err := stockfolio.ParseQuantity(f.Arg(1))
	if err != nil {
		return exitStatus(err)
	}

	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	stock, err := svc.Prices().Series(ctx, f.Arg(0))
	if err != nil {
		return exitStatus(err)
	}
	switch c.kind {
	case stockfolio.Remove:
		err = svc.Remove(ctx, c.portfolio, stock, qty, on)
	default:
		err = svc.Add(ctx, c.portfolio, stock, qty, on)
	}
	if err != nil {
		return exitStatus(err)
	}

	p, err := svc.Live(ctx, c.portfolio)
	if err != nil {
		return exitStatus(err)
	}
	comp, err := renderer.NewComposition(p, on)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(renderer.RenderComposition(comp))
	return subcommands.ExitSuccess
}
