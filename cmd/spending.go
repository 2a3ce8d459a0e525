package cmd

import (
	"context"
	"flag"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

// spendingCmd holds the flags for the 'spending' subcommand.
type spendingCmd struct {
	ledgerFile string
	raw        bool
}

func (*spendingCmd) Name() string     { return "spending" }
func (*spendingCmd) Synopsis() string { return "EUR cash committed to and recovered from the ledger" }
func (*spendingCmd) Usage() string {
	return `ctax spending -l <file.csv> [-raw]

  Totals the EUR spent on buys, deposited, and received back from sells.

`
}

func (c *spendingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerFile, "l", "", "Ledger file to report on.")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it.")
}

func (c *spendingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger(c.ledgerFile)
	if err != nil {
		return fail("Error loading ledger %q: %v", c.ledgerFile, err)
	}

	render(renderer.CashFlowMarkdown(cryptotax.NewCashFlow(ledger)), c.raw)
	return subcommands.ExitSuccess
}
