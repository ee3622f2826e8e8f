// Command folio manages stock portfolios, see 'folio topic'.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/etnz/stockfolio/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot read .env: %v", err)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	// Answers the shell completion requests (COMP_LINE) and exits, does nothing otherwise.
	cmd.Completion(commander).Complete(path.Base(os.Args[0]))

	flag.Parse()
	cmd.Setup()
	os.Exit(int(commander.Execute(context.Background())))
}
