package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/cryptotax"
)

// TaxMarkdown renders a tax report: global summary first, then one section
// per year with its per-asset breakdown. The output is deterministic for a
// given report.
func TaxMarkdown(r *cryptotax.TaxReport) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Tax Report (weighted-average cost)\n\n")

	fmt.Fprint(&b, "## Global Summary\n\n")
	writeTotalsTable(&b, r.Global)

	for _, y := range r.Years {
		fmt.Fprintf(&b, "## Year %d\n\n", y.Year)

		fmt.Fprintln(&b, "| Asset | Gains | Losses | Fees | Net Taxable |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
		for _, a := range y.Assets {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				a.Asset, eur(a.Gains), eur(a.Losses), eur(a.Fees), signedEUR(a.Net()))
		}
		fmt.Fprintf(&b, "| **Total** | **%s** | **%s** | **%s** | **%s** |\n\n",
			eur(y.Gains), eur(y.Losses), eur(y.Fees), signedEUR(y.Net()))
	}

	return b.String()
}

// DisposalsMarkdown renders the individual disposal events, one table per
// run, with the source of each realized price.
func DisposalsMarkdown(events []cryptotax.DisposalEvent) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Disposals\n\n")
	if len(events) == 0 {
		fmt.Fprint(&b, "No disposal recorded.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Asset | Quantity | Price | Source | Avg Cost | Fee | Gain/Loss |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|:---|---:|---:|---:|")
	for _, ev := range events {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			ev.Time.Format("2006-01-02 15:04"),
			ev.Asset,
			quantity(ev.Quantity),
			eur(ev.UnitPrice),
			ev.Source,
			eur(ev.AvgCost),
			eur(ev.Fee),
			signedEUR(ev.GainLoss),
		)
	}
	return b.String()
}

func writeTotalsTable(b *strings.Builder, t cryptotax.Totals) {
	fmt.Fprintln(b, "| Gains | Losses | Fees | Net Taxable |")
	fmt.Fprintln(b, "|---:|---:|---:|---:|")
	fmt.Fprintf(b, "| %s | %s | %s | %s |\n\n",
		eur(t.Gains), eur(t.Losses), eur(t.Fees), signedEUR(t.Net()))
}
