package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/stockfolio/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// symbolArgs are the commands taking symbols as arguments.
var symbolArgs = map[string]bool{
	"add": true, "remove": true, "gain": true, "average": true, "crossover": true, "fetch": true,
}

// predictSymbols completes with the symbols in the price cache.
var predictSymbols = complete.PredictFunc(func(prefix string) []string {
	symbols, _ := PriceCache().Symbols()
	var matches []string
	for _, s := range symbols {
		if strings.HasPrefix(s, strings.ToUpper(prefix)) {
			matches = append(matches, s)
		}
	}
	return matches
})

// Completion returns the shell completion of the commands registered in cdr,
// see complete.Command.Complete.
func Completion(cdr *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	for _, name := range []string{"root", "prices"} {
		if _, ok := root.Flags[name]; ok {
			root.Flags[name] = predict.Dirs("*")
		}
	}

	cdr.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		sub := &complete.Command{Flags: flagPredictors(f)}
		switch {
		case symbolArgs[c.Name()]:
			sub.Args = predictSymbols
		case c.Name() == "topic":
			topics, _ := docs.GetAllTopics()
			sub.Args = predict.Set(append(topics, "*"))
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

// flagPredictors predicts nothing for boolean flags, and something for others.
func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	predictors := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			predictors[fl.Name] = predict.Nothing
			return
		}
		predictors[fl.Name] = predict.Something
	})
	return predictors
}
