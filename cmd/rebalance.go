package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

type rebalanceCmd struct {
	portfolio string
	date      string
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "trade stocks to match target percentages" }
func (*rebalanceCmd) Usage() string {
	return `folio rebalance -p <portfolio> [-d <date>] <symbol>=<percent>...

  Buys and sells stocks so that each one is worth the given percentage of the
  portfolio value. Every held stock must be given, and percentages must sum up
  to 100. Example:

    folio rebalance -p growth AAPL=40 MSFT=35.5 IBM=24.5
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "portfolio name")
	f.StringVar(&c.date, "d", "", "date of the trades (YYYY-MM-DD), default today")
}

// parseTargets parses "SYMBOL=PERCENT" arguments.
func parseTargets(args []string) (map[string]stockfolio.Percent, error) {
	targets := make(map[string]stockfolio.Percent, len(args))
	for _, arg := range args {
		symbol, pct, ok := strings.Cut(arg, "=")
		if !ok || symbol == "" {
			return nil, fmt.Errorf("%w: target %q must be <symbol>=<percent>", stockfolio.ErrInvalidArgument, arg)
		}
		p, err := stockfolio.ParsePercent(pct)
		if err != nil {
			return nil, err
		}
		if _, dup := targets[symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate target for %s", stockfolio.ErrInvalidArgument, symbol)
		}
		targets[symbol] = p
	}
	return targets, nil
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		fmt.Fprintln(os.Stderr, "Error: a portfolio is required")
		f.Usage()
		return subcommands.ExitUsageError
	}
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	targets, err := parseTargets(f.Args())
	if err != nil {
		return exitStatus(err)
	}

	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	trades, err := svc.Rebalance(ctx, c.portfolio, targets, on)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(renderer.RenderRebalance(&renderer.Rebalance{Portfolio: c.portfolio, On: on, Trades: trades}))
	return subcommands.ExitSuccess
}
