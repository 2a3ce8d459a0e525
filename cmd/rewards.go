package cmd

import (
	"context"
	"flag"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

// rewardsCmd holds the flags for the 'rewards' subcommand.
type rewardsCmd struct {
	ledgerFile string
	raw        bool
}

func (*rewardsCmd) Name() string     { return "rewards" }
func (*rewardsCmd) Synopsis() string { return "reward income per year and per asset" }
func (*rewardsCmd) Usage() string {
	return `ctax rewards -l <file.csv> [-raw]

  Sums the quantity and EUR value of every reward received, per year and
  globally. Rows without a EUR price are counted but flagged as unvalued.

`
}

func (c *rewardsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerFile, "l", "", "Ledger file to report on.")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it.")
}

func (c *rewardsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger(c.ledgerFile)
	if err != nil {
		return fail("Error loading ledger %q: %v", c.ledgerFile, err)
	}
	ledger.SortByTime()

	report := cryptotax.SummarizeRewards(ledger.Transactions)
	render(renderer.RewardsMarkdown(report), c.raw)
	return subcommands.ExitSuccess
}
