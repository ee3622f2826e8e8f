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

// report renders a portfolio on a date.
type report struct {
	name     string
	synopsis string
	render   func(p *stockfolio.Portfolio, on date.Date, currency string) (string, error)
}

var compositionReport = report{
	name:     "composition",
	synopsis: "display the quantity of each stock held",
	render: func(p *stockfolio.Portfolio, on date.Date, _ string) (string, error) {
		c, err := renderer.NewComposition(p, on)
		if err != nil {
			return "", err
		}
		return renderer.RenderComposition(c), nil
	},
}

var distributionReport = report{
	name:     "distribution",
	synopsis: "display the value of each stock held",
	render: func(p *stockfolio.Portfolio, on date.Date, currency string) (string, error) {
		d, err := renderer.NewDistribution(p, on, currency)
		if err != nil {
			return "", err
		}
		return renderer.RenderDistribution(d), nil
	},
}

var valueReport = report{
	name:     "value",
	synopsis: "display the total value of a portfolio",
	render: func(p *stockfolio.Portfolio, on date.Date, currency string) (string, error) {
		v, err := renderer.NewValue(p, on, currency)
		if err != nil {
			return "", err
		}
		return renderer.RenderValue(v), nil
	},
}

// reportCmd holds the flags shared by the portfolio reports.
type reportCmd struct {
	report
	portfolio string
	date      string
	currency  string
}

func (c *reportCmd) Name() string     { return c.name }
func (c *reportCmd) Synopsis() string { return c.synopsis }
func (c *reportCmd) Usage() string {
	return fmt.Sprintf(`folio %s -p <portfolio> [-d <date>] [-c <currency>]

  %s, as it was on the given date (default today).
`, c.name, c.synopsis)
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "portfolio name")
	f.StringVar(&c.date, "d", "", "date of the report (YYYY-MM-DD), default today")
	f.StringVar(&c.currency, "c", renderer.DefaultCurrency, "currency to format amounts with")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	if !svc.Registry().Has(c.portfolio) {
		fmt.Fprintf(os.Stderr, "Error: unknown portfolio %q\n", c.portfolio)
		return subcommands.ExitFailure
	}
	p, err := svc.Reconstruct(ctx, c.portfolio, on)
	if err != nil {
		return exitStatus(err)
	}
	md, err := c.render(p, on, c.currency)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

type plotCmd struct {
	portfolio string
	from      string
	to        string
}

func (*plotCmd) Name() string     { return "plot" }
func (*plotCmd) Synopsis() string { return "plot the value of a portfolio over time" }
func (*plotCmd) Usage() string {
	return `folio plot -p <portfolio> -from <date> [-to <date>]

  Plots the total value of the portfolio between two dates as a bar chart.
  Values are sampled every day for up to 59 days, every 30 days up to a year,
  and every 365 days beyond.
`
}

func (c *plotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "portfolio name")
	f.StringVar(&c.from, "from", "", "first day of the plot (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "last day of the plot (YYYY-MM-DD), default today")
}

func (c *plotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.from == "" {
		fmt.Fprintln(os.Stderr, "Error: a portfolio and a start date are required")
		f.Usage()
		return subcommands.ExitUsageError
	}
	from, err := date.Parse(c.from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	to, err := parseDate(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	plot, err := svc.PlotPerformance(ctx, c.portfolio, from, to)
	if err != nil {
		return exitStatus(err)
	}
	printMarkdown(renderer.RenderPlot(&renderer.Plot{Plot: plot}))
	return subcommands.ExitSuccess
}
