package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

// stockFlags are the flags shared by the stock analytics.
type stockFlags struct {
	currency string
}

func (s *stockFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&s.currency, "c", renderer.DefaultCurrency, "currency to format amounts with")
}

// series loads the only argument as a price series.
func series(ctx context.Context, f *flag.FlagSet) (*stockfolio.PriceSeries, error) {
	if f.NArg() != 1 {
		return nil, fmt.Errorf("%w: exactly one symbol is required", stockfolio.ErrInvalidArgument)
	}
	return PriceCache().Series(ctx, f.Arg(0))
}

// parseRange parses two required dates.
func parseRange(from, to string) (date.Date, date.Date, error) {
	start, err := date.Parse(from)
	if err != nil {
		return date.Date{}, date.Date{}, fmt.Errorf("%w: %v", stockfolio.ErrInvalidArgument, err)
	}
	end, err := date.Parse(to)
	if err != nil {
		return date.Date{}, date.Date{}, fmt.Errorf("%w: %v", stockfolio.ErrInvalidArgument, err)
	}
	return start, end, nil
}

type gainCmd struct {
	stockFlags
	from, to string
}

func (*gainCmd) Name() string     { return "gain" }
func (*gainCmd) Synopsis() string { return "display the change of price of a stock" }
func (*gainCmd) Usage() string {
	return `folio gain -from <date> -to <date> <symbol>

  Displays the change of the closing price between two trading days. When both
  dates are equal, it is the change between the open and the close of the day.
`
}

func (c *gainCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.from, "from", "", "first trading day (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "last trading day (YYYY-MM-DD)")
}

func (c *gainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		return exitStatus(err)
	}
	s, err := series(ctx, f)
	if err != nil {
		return exitStatus(err)
	}
	change, err := stockfolio.GainLossStrict(s, from, to)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(renderer.RenderStock(&renderer.Stock{
		Symbol:   s.Symbol(),
		Currency: c.currency,
		Gain:     &renderer.Gain{From: from, To: to, Change: change},
	}))
	return subcommands.ExitSuccess
}

type averageCmd struct {
	stockFlags
	date string
	days int
}

func (*averageCmd) Name() string     { return "average" }
func (*averageCmd) Synopsis() string { return "display the moving average of a stock" }
func (*averageCmd) Usage() string {
	return `folio average [-d <date>] [-n <days>] <symbol>

  Displays the average close of the last trading days up to the given one.
`
}

func (c *averageCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.date, "d", "", "trading day (YYYY-MM-DD), default today")
	f.IntVar(&c.days, "n", 50, "number of trading days to average")
}

func (c *averageCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	s, err := series(ctx, f)
	if err != nil {
		return exitStatus(err)
	}
	avg, err := stockfolio.MovingAverage(s, on, c.days)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(renderer.RenderStock(&renderer.Stock{
		Symbol:   s.Symbol(),
		Currency: c.currency,
		Average:  &renderer.Average{On: on, Days: c.days, Average: avg},
	}))
	return subcommands.ExitSuccess
}

type crossoverCmd struct {
	stockFlags
	from, to string
	days     int
}

func (*crossoverCmd) Name() string     { return "crossover" }
func (*crossoverCmd) Synopsis() string { return "list the days a stock closed above its moving average" }
func (*crossoverCmd) Usage() string {
	return `folio crossover -from <date> -to <date> [-n <days>] <symbol>

  Lists the trading days, most recent first, when the close was above the
  moving average of the given number of days.
`
}

func (c *crossoverCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.from, "from", "", "first trading day (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "last trading day (YYYY-MM-DD)")
	f.IntVar(&c.days, "n", 50, "number of trading days of the moving average")
}

func (c *crossoverCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		return exitStatus(err)
	}
	s, err := series(ctx, f)
	if err != nil {
		return exitStatus(err)
	}
	dates, err := stockfolio.CrossoverDates(s, from, to, c.days)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(renderer.RenderStock(&renderer.Stock{
		Symbol:     s.Symbol(),
		Currency:   c.currency,
		Crossovers: &renderer.Crossovers{From: from, To: to, Days: c.days, Dates: dates},
	}))
	return subcommands.ExitSuccess
}
