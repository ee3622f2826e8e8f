// Package cmd implements the CLI application to manage stock portfolios.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/alphavantage"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/pgstore"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&listCmd{}, "portfolios")
	c.Register(&createCmd{}, "portfolios")
	c.Register(&mutateCmd{kind: stockfolio.Add}, "portfolios")
	c.Register(&mutateCmd{kind: stockfolio.Remove}, "portfolios")
	c.Register(&rebalanceCmd{}, "portfolios")

	c.Register(&reportCmd{report: compositionReport}, "reports")
	c.Register(&reportCmd{report: distributionReport}, "reports")
	c.Register(&reportCmd{report: valueReport}, "reports")
	c.Register(&plotCmd{}, "reports")

	c.Register(&gainCmd{}, "stocks")
	c.Register(&averageCmd{}, "stocks")
	c.Register(&crossoverCmd{}, "stocks")
	c.Register(&fetchCmd{}, "stocks")

	c.Register(&serveCmd{}, "server")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
// Empty flags fall back on the environment, see setting.

var (
	rootFlag    = flag.String("root", "", "Path to the snapshots folder (env FOLIO_ROOT, default .folio/portfolios)")
	pricesFlag  = flag.String("prices", "", "Path to the price cache folder (env FOLIO_PRICES, default .folio/prices)")
	dbFlag      = flag.String("db", "", "Postgres URL to store snapshots in, instead of the snapshots folder (env FOLIO_DATABASE_URL)")
	apiKeyFlag  = flag.String("apikey", "", "Alpha Vantage API key (env ALPHAVANTAGE_API_KEY)")
	verboseFlag = flag.Bool("v", false, "log diagnostics to stderr (env FOLIO_VERBOSE)")
	rawFlag     = flag.Bool("raw", false, "print reports as plain markdown")
)

// setting returns the flag value if set, the env variable otherwise, and def as last resort.
func setting(flagValue, env, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func verbose() bool {
	if *verboseFlag {
		return true
	}
	v, _ := strconv.ParseBool(os.Getenv("FOLIO_VERBOSE"))
	return v
}

// Setup configures the logging of the application. It must be called once flags are parsed.
func Setup() {
	log.SetFlags(0)
	log.SetPrefix("folio: ")
	if !verbose() {
		log.SetOutput(io.Discard)
	}
}

// PriceCache returns the price cache, refreshed from Alpha Vantage when an API key is configured.
func PriceCache() *alphavantage.Cache {
	dir := setting(*pricesFlag, "FOLIO_PRICES", ".folio/prices")
	key := setting(*apiKeyFlag, "ALPHAVANTAGE_API_KEY", "")
	if key == "" {
		log.Println("no Alpha Vantage API key, prices are read from the cache only")
		return alphavantage.NewCache(dir, nil)
	}
	return alphavantage.NewCache(dir, alphavantage.NewClient(key))
}

// OpenService is the central function to open the snapshot store, and rebuild the registry from it.
// The returned func releases the store.
func OpenService(ctx context.Context) (*stockfolio.Service, func(), error) {
	var (
		store   stockfolio.SnapshotStore
		release = func() {}
	)
	if url := setting(*dbFlag, "FOLIO_DATABASE_URL", ""); url != "" {
		pg, err := pgstore.New(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		store, release = pg, pg.Close
	} else {
		store = stockfolio.NewFileStore(setting(*rootFlag, "FOLIO_ROOT", ".folio/portfolios"))
	}

	registry := stockfolio.NewRegistry()
	if err := registry.Rebuild(ctx, store); err != nil {
		release()
		return nil, nil, err
	}
	prices := stockfolio.NewPriceBook(PriceCache())
	return stockfolio.NewService(store, registry, prices), release, nil
}

// parseDate parses a date flag, the empty string being today.
func parseDate(s string) (date.Date, error) {
	if s == "" {
		return date.Today(), nil
	}
	return date.Parse(s)
}

// printMarkdown renders md for the terminal.
func printMarkdown(md string) {
	if *rawFlag {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	log.Printf("cannot render markdown: %v", err)
	fmt.Print(md)
}

// exitStatus reports err and returns the matching exit status.
func exitStatus(err error) subcommands.ExitStatus {
	if err == nil {
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, stockfolio.ErrInvalidArgument) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
