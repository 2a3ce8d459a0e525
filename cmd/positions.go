package cmd

import (
	"context"
	"flag"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

// positionsCmd holds the flags for the 'positions' subcommand.
type positionsCmd struct {
	ledgerFile string
	raw        bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "remaining holdings with their average cost" }
func (*positionsCmd) Usage() string {
	return `ctax positions -l <file.csv> [-raw]

  Replays the ledger and displays the remaining quantity, cost basis and
  weighted-average cost of every asset still held.

`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerFile, "l", "", "Ledger file to report on.")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it.")
}

func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger(c.ledgerFile)
	if err != nil {
		return fail("Error loading ledger %q: %v", c.ledgerFile, err)
	}
	ledger.SortByTime()

	cb := cryptotax.NewCostBasis()
	if _, err := cb.Apply(ledger.Transactions); err != nil {
		return fail("Error replaying ledger: %v", err)
	}

	render(renderer.PositionsMarkdown(cb), c.raw)
	return subcommands.ExitSuccess
}
