package cmd

import (
	"context"
	"flag"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

// taxCmd holds the flags for the 'tax' subcommand.
type taxCmd struct {
	ledgerFile string
	policy     string
	detail     bool
	raw        bool
}

func (*taxCmd) Name() string     { return "tax" }
func (*taxCmd) Synopsis() string { return "realized gains and losses per year and per asset" }
func (*taxCmd) Usage() string {
	return `ctax tax -l <file.csv> [-policy <ignore|clamp|error>] [-detail] [-raw]

  Replays the ledger in chronological order with weighted-average cost
  accounting and reports realized gains, losses and fees per year and per
  asset. Run 'ctax enrich' first so every leg carries a EUR price.

Usage Examples:
# Yearly tax report from an enriched ledger.
$ ctax tax -l transactions_enriched.csv

# Include every individual disposal.
$ ctax tax -l transactions_enriched.csv -detail

`
}

func (c *taxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerFile, "l", "", "Ledger file to report on.")
	f.StringVar(&c.policy, "policy", cryptotax.IgnoreOverDisposal.String(), "Over-disposal policy (ignore, clamp, error)")
	f.BoolVar(&c.detail, "detail", false, "Also list every disposal event.")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it.")
}

func (c *taxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	policy, err := cryptotax.ParseOverDisposalPolicy(c.policy)
	if err != nil {
		return fail("Error parsing policy: %v", err)
	}

	ledger, err := DecodeLedger(c.ledgerFile)
	if err != nil {
		return fail("Error loading ledger %q: %v", c.ledgerFile, err)
	}
	ledger.SortByTime()

	cb := cryptotax.NewCostBasis()
	cb.Policy = policy
	events, err := cb.Apply(ledger.Transactions)
	if err != nil {
		return fail("Error replaying ledger: %v", err)
	}

	report := cryptotax.Summarize(events)
	md := renderer.TaxMarkdown(report)
	if c.detail {
		md += "\n" + renderer.DisposalsMarkdown(events)
	}
	render(md, c.raw)
	return subcommands.ExitSuccess
}
