package cryptotax

import "sort"

// Totals accumulates realized gains, losses (as a positive magnitude) and
// fees. Net taxable amount = Gains - Losses.
type Totals struct {
	Gains  float64
	Losses float64
	Fees   float64
}

// Net returns the net taxable amount.
func (t Totals) Net() float64 { return t.Gains - t.Losses }

func (t *Totals) add(ev DisposalEvent) {
	if ev.GainLoss > 0 {
		t.Gains += ev.GainLoss
	} else {
		t.Losses += -ev.GainLoss
	}
	t.Fees += ev.Fee
}

// AssetTaxSummary is the per-asset breakdown within one tax year, with the
// disposal events contributing to it.
type AssetTaxSummary struct {
	Asset string
	Totals
	Disposals []DisposalEvent
}

// TaxYearSummary aggregates every disposal of one calendar year.
type TaxYearSummary struct {
	Year int
	Totals
	Assets []*AssetTaxSummary // sorted by asset
}

// Asset returns the summary for one asset of the year, or nil.
func (y *TaxYearSummary) Asset(asset string) *AssetTaxSummary {
	for _, a := range y.Assets {
		if a.Asset == asset {
			return a
		}
	}
	return nil
}

// TaxReport is the result of folding disposal events into tax years. Years
// are ascending and assets alphabetical, so rendering the same events twice
// yields byte-identical output.
type TaxReport struct {
	Years  []*TaxYearSummary
	Global Totals
}

// Year returns the summary for one calendar year, or nil.
func (r *TaxReport) Year(year int) *TaxYearSummary {
	for _, y := range r.Years {
		if y.Year == year {
			return y
		}
	}
	return nil
}

// Summarize buckets disposal events by the calendar year of their timestamp
// and accumulates gains, losses and fees per year, per asset, and globally.
// Each event is consumed exactly once.
func Summarize(events []DisposalEvent) *TaxReport {
	years := make(map[int]*TaxYearSummary)
	assets := make(map[int]map[string]*AssetTaxSummary)

	report := &TaxReport{}
	for _, ev := range events {
		year := ev.Time.Year()
		y, ok := years[year]
		if !ok {
			y = &TaxYearSummary{Year: year}
			years[year] = y
			assets[year] = make(map[string]*AssetTaxSummary)
		}
		a, ok := assets[year][ev.Asset]
		if !ok {
			a = &AssetTaxSummary{Asset: ev.Asset}
			assets[year][ev.Asset] = a
			y.Assets = append(y.Assets, a)
		}

		y.Totals.add(ev)
		a.Totals.add(ev)
		a.Disposals = append(a.Disposals, ev)
		report.Global.add(ev)
	}

	for _, y := range years {
		sort.Slice(y.Assets, func(i, j int) bool { return y.Assets[i].Asset < y.Assets[j].Asset })
		report.Years = append(report.Years, y)
	}
	sort.Slice(report.Years, func(i, j int) bool { return report.Years[i].Year < report.Years[j].Year })
	return report
}
