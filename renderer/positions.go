package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/cryptotax"
)

// PositionsMarkdown renders the remaining holdings after a cost-basis replay.
func PositionsMarkdown(cb *cryptotax.CostBasis) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Positions\n\n")
	fmt.Fprintln(&b, "| Asset | Quantity | Cost Basis | Avg Cost |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, p := range cb.Positions() {
		if p.Quantity == 0 && p.Cost == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			p.Asset, quantity(p.Quantity), eur(p.Cost), eur(p.AvgCost))
	}

	return b.String()
}

// CashFlowMarkdown renders the EUR cash-flow analysis of a ledger.
func CashFlowMarkdown(c cryptotax.CashFlow) string {
	var b strings.Builder

	fmt.Fprint(&b, "# EUR Spending Analysis\n\n")
	fmt.Fprintf(&b, "- EUR spent on Buy orders: %s\n", eur(c.SpentOnBuys))
	fmt.Fprintf(&b, "- EUR received from Deposits: %s\n", eur(c.Deposited))
	fmt.Fprintf(&b, "- EUR received from Sells: %s\n", eur(c.ProceedsSells))
	fmt.Fprintf(&b, "- Total EUR committed: %s\n", eur(c.TotalIn()))
	fmt.Fprintf(&b, "- Net EUR committed (minus sells): %s\n", eur(c.NetIn()))

	return b.String()
}
