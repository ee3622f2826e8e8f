package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

type fetchCmd struct {
	jobs int
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetches stock prices from Alpha Vantage" }
func (*fetchCmd) Usage() string {
	return `folio fetch [-j <jobs>] [<symbol>...]

Fetches the daily prices of the given symbols from Alpha Vantage into the
price cache. Without symbols, every symbol already in the cache is refreshed.

A symbol is only fetched when its most recent cached price is older than
yesterday. An API key is required, set via the -apikey flag or the
ALPHAVANTAGE_API_KEY environment variable.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.jobs, "j", 2, "number of concurrent requests")
}

func newProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Fetching prices..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if setting(*apiKeyFlag, "ALPHAVANTAGE_API_KEY", "") == "" {
		fmt.Fprintln(os.Stderr, "Error: an Alpha Vantage API key is required, see -apikey.")
		return subcommands.ExitUsageError
	}
	cache := PriceCache()

	symbols := f.Args()
	if len(symbols) == 0 {
		var err error
		if symbols, err = cache.Symbols(); err != nil {
			return exitStatus(err)
		}
	}
	if len(symbols) == 0 {
		fmt.Println("No symbol in the cache. Nothing to fetch.")
		return subcommands.ExitSuccess
	}

	bar := newProgressBar(len(symbols))
	var (
		mu      sync.Mutex
		updated []string
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.jobs, 1))
	for _, symbol := range symbols {
		g.Go(func() error {
			defer bar.Add(1)
			fetched, err := cache.Refresh(ctx, symbol)
			if err != nil {
				return fmt.Errorf("cannot fetch %s: %w", symbol, err)
			}
			if fetched {
				mu.Lock()
				updated = append(updated, symbol)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return exitStatus(err)
	}

	fmt.Printf("%d of %d symbols updated.\n", len(updated), len(symbols))
	return subcommands.ExitSuccess
}
