package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/binance"
	"github.com/google/subcommands"
)

// enrichCmd holds the flags for the 'enrich' subcommand.
type enrichCmd struct {
	ledgerFile string
	rate       int
}

func (*enrichCmd) Name() string     { return "enrich" }
func (*enrichCmd) Synopsis() string { return "backfill EUR prices and values into a ledger copy" }
func (*enrichCmd) Usage() string {
	return `ctax enrich -l <file.csv> [-rate <requests-per-minute>]

  Sorts the ledger by date, then queries the quote service for the EUR price
  of every non-EUR leg and writes the result to <file>_enriched.csv next to
  the input. The copy is rewritten after every row, so interrupting with
  Ctrl-C leaves a usable partial file. Re-running starts over from row 0.

Usage Examples:
# Enrich transactions.csv into transactions_enriched.csv.
$ ctax enrich -l transactions.csv

`
}

func (c *enrichCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerFile, "l", "", "Ledger file to enrich.")
	f.IntVar(&c.rate, "rate", 500, "Maximum quote requests per minute.")
}

func (c *enrichCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ledgerFile == "" {
		return fail("missing ledger file, use -l <file.csv>")
	}

	// Ctrl-C cancels the run after the current row.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	enricher := &cryptotax.Enricher{
		Resolver:          binance.NewResolver(nil),
		RequestsPerMinute: c.rate,
	}

	result, err := enricher.Run(ctx, c.ledgerFile)
	if err != nil {
		return fail("Error enriching ledger %q: %v", c.ledgerFile, err)
	}

	if result.Interrupted {
		fmt.Fprintf(os.Stderr, "Interrupted after %d/%d row(s). Partial file: %s\n",
			result.Done, result.Total, result.OutputPath)
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "✅ Enriched %d row(s) into %s\n", result.Done, result.OutputPath)
	return subcommands.ExitSuccess
}
