package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/cryptotax"
)

// RewardsMarkdown renders reward income totals, globally and per year.
func RewardsMarkdown(r *cryptotax.RewardReport) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Rewards\n\n")
	if len(r.Global) == 0 {
		fmt.Fprint(&b, "No reward found in the ledger.\n")
		return b.String()
	}

	fmt.Fprint(&b, "## Global\n\n")
	writeRewardTable(&b, r.Global)

	for _, y := range r.Years {
		fmt.Fprintf(&b, "## Year %d\n\n", y.Year)
		writeRewardTable(&b, y.Assets)
	}

	return b.String()
}

func writeRewardTable(b *strings.Builder, rewards []*cryptotax.AssetReward) {
	fmt.Fprintln(b, "| Asset | Quantity | Value |")
	fmt.Fprintln(b, "|:---|---:|---:|")
	for _, a := range rewards {
		value := eur(a.ValueEUR)
		if a.Unvalued > 0 {
			value = fmt.Sprintf("%s (%d row(s) unvalued)", value, a.Unvalued)
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", a.Asset, quantity(a.Quantity), value)
	}
	fmt.Fprintln(b)
}
