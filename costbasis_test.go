package cryptotax

import (
	"math"
	"testing"
	"time"
)

// tx builds a transaction for tests. Empty asset means no leg; absent numeric
// fields are NaN like the decoder produces.
func tx(date, typ, sentAsset string, sentAmount float64, recvAsset string, recvAmount, fee float64) *Transaction {
	when, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	t := &Transaction{
		Time: when, Type: typ, Fee: fee,
		SentAsset: sentAsset, SentAmount: math.NaN(),
		SentPrice: math.NaN(), SentValue: math.NaN(),
		ReceivedAsset: recvAsset, ReceivedAmount: math.NaN(),
		ReceivedPrice: math.NaN(), ReceivedValue: math.NaN(),
	}
	if sentAsset != "" {
		t.SentAmount = sentAmount
	}
	if recvAsset != "" {
		t.ReceivedAmount = recvAmount
	}
	return t
}

func almost(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestCostBasis_AcquisitionAveragesCost(t *testing.T) {
	cb := NewCostBasis()
	_, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 100, "BTC", 1, 1),
		tx("2024-02-01", TypeBuy, "EUR", 200, "BTC", 1, 0),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	p := cb.Position("BTC")
	if !almost(p.Quantity, 2) {
		t.Errorf("Quantity = %v, want 2", p.Quantity)
	}
	if !almost(p.Cost, 301) {
		t.Errorf("Cost = %v, want 301 (100+1 fee, then 200)", p.Cost)
	}
	if !almost(p.AvgCost, 150.5) {
		t.Errorf("AvgCost = %v, want 150.5", p.AvgCost)
	}
	if !almost(cb.CashOut, 300) {
		t.Errorf("CashOut = %v, want 300", cb.CashOut)
	}
}

func TestCostBasis_DisposalKeepsAverageCost(t *testing.T) {
	cb := NewCostBasis()
	events, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 100, "BTC", 1, 1),
		tx("2024-06-01", TypeSell, "BTC", 0.5, "EUR", 80, 0),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d disposal events, want 1", len(events))
	}

	ev := events[0]
	if ev.Source != PriceDerived {
		t.Errorf("Source = %v, want derived from the EUR leg", ev.Source)
	}
	if !almost(ev.UnitPrice, 160) {
		t.Errorf("UnitPrice = %v, want 160 (80 EUR / 0.5 BTC)", ev.UnitPrice)
	}
	if !almost(ev.AvgCost, 101) {
		t.Errorf("AvgCost = %v, want 101", ev.AvgCost)
	}
	if !almost(ev.GainLoss, 29.5) {
		t.Errorf("GainLoss = %v, want 29.5 ((160-101)*0.5)", ev.GainLoss)
	}

	// the remaining stock keeps its average cost
	p := cb.Position("BTC")
	if !almost(p.Quantity, 0.5) {
		t.Errorf("Quantity = %v, want 0.5", p.Quantity)
	}
	if !almost(p.Cost, 50.5) {
		t.Errorf("Cost = %v, want 50.5", p.Cost)
	}
	if !almost(p.AvgCost, 101) {
		t.Errorf("AvgCost = %v, want 101 (unchanged by the sale)", p.AvgCost)
	}
	if !almost(cb.CashIn, 80) {
		t.Errorf("CashIn = %v, want 80", cb.CashIn)
	}
}

func TestCostBasis_DeclaredPriceWinsOverDerived(t *testing.T) {
	cb := NewCostBasis()
	sell := tx("2024-06-01", TypeSell, "BTC", 1, "EUR", 80, 0)
	sell.SentPrice = 90 // declared unit price beats the 80 derived one

	buy := tx("2024-01-01", TypeBuy, "EUR", 50, "BTC", 1, 0)
	events, err := cb.Apply([]*Transaction{buy, sell})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := events[0].UnitPrice; !almost(got, 90) {
		t.Errorf("UnitPrice = %v, want the declared 90", got)
	}
	if events[0].Source != PriceDeclared {
		t.Errorf("Source = %v, want declared", events[0].Source)
	}
}

func TestCostBasis_OverDisposalIgnoredIsExactNoOp(t *testing.T) {
	cb := NewCostBasis()
	events, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 100, "BTC", 1, 0),
		tx("2024-02-01", TypeSell, "BTC", 2, "EUR", 400, 0), // more than held
		tx("2024-03-01", TypeSell, "ETH", 1, "EUR", 100, 0), // never held
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d disposal events, want 0", len(events))
	}

	p := cb.Position("BTC")
	if !almost(p.Quantity, 1) || !almost(p.Cost, 100) || !almost(p.AvgCost, 100) {
		t.Errorf("BTC position mutated by an ignored over-disposal: %+v", p)
	}
}

func TestCostBasis_OverDisposalClamped(t *testing.T) {
	cb := NewCostBasis()
	cb.Policy = ClampOverDisposal
	events, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 100, "BTC", 1, 0),
		tx("2024-02-01", TypeSell, "BTC", 2, "EUR", 400, 0),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d disposal events, want 1", len(events))
	}
	if !almost(events[0].Quantity, 1) {
		t.Errorf("Quantity = %v, want clamped to the held 1", events[0].Quantity)
	}

	p := cb.Position("BTC")
	if !almost(p.Quantity, 0) {
		t.Errorf("Quantity = %v, want 0", p.Quantity)
	}
	if !almost(p.AvgCost, 0) {
		t.Errorf("AvgCost = %v, want reset to 0 on an emptied position", p.AvgCost)
	}
}

func TestCostBasis_OverDisposalErrors(t *testing.T) {
	cb := NewCostBasis()
	cb.Policy = ErrorOnOverDisposal
	_, err := cb.Apply([]*Transaction{
		tx("2024-02-01", TypeSell, "BTC", 2, "EUR", 400, 0),
	})
	if err == nil {
		t.Fatal("Apply() error = nil, want an over-disposal error")
	}
}

// Selling everything realizes exactly proceeds minus cost minus fee.
func TestCostBasis_FullDisposalProceedsIdentity(t *testing.T) {
	cb := NewCostBasis()
	events, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 1000, "ETH", 4, 2),
		tx("2024-06-01", TypeSell, "ETH", 4, "EUR", 1400, 3),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	ev := events[0]
	wantGain := 1400.0 - 1002.0 - 3.0
	if !almost(ev.GainLoss, wantGain) {
		t.Errorf("GainLoss = %v, want %v (proceeds - cost basis - fee)", ev.GainLoss, wantGain)
	}
	p := cb.Position("ETH")
	if !almost(p.Quantity, 0) || !almost(p.Cost, 0) || !almost(p.AvgCost, 0) {
		t.Errorf("ETH position after full disposal = %+v, want all zero", p)
	}
}

func TestCostBasis_TradeIsDisposalPlusAcquisition(t *testing.T) {
	cb := NewCostBasis()
	trade := tx("2024-06-01", TypeTrade, "BTC", 1, "ETH", 10, 0)
	trade.SentPrice = 200
	trade.ReceivedPrice = 20

	events, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 100, "BTC", 1, 0),
		trade,
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d disposal events, want 1", len(events))
	}
	if !almost(events[0].GainLoss, 100) {
		t.Errorf("GainLoss = %v, want 100 ((200-100)*1)", events[0].GainLoss)
	}

	eth := cb.Position("ETH")
	if !almost(eth.Quantity, 10) || !almost(eth.AvgCost, 20) {
		t.Errorf("ETH position = %+v, want 10 units at 20", eth)
	}
}

func TestCostBasis_UnpricedDisposalRealizesAgainstZero(t *testing.T) {
	cb := NewCostBasis()
	events, err := cb.Apply([]*Transaction{
		tx("2024-01-01", TypeBuy, "EUR", 100, "BTC", 1, 0),
		tx("2024-02-01", TypeWithdraw, "BTC", 0.5, "", 0, 0),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d disposal events, want 1", len(events))
	}
	if events[0].Source != PriceUnavailable {
		t.Errorf("Source = %v, want unavailable", events[0].Source)
	}
	if !almost(events[0].GainLoss, -50) {
		t.Errorf("GainLoss = %v, want -50 ((0-100)*0.5)", events[0].GainLoss)
	}
}

func TestParseOverDisposalPolicy(t *testing.T) {
	for _, want := range []OverDisposalPolicy{IgnoreOverDisposal, ClampOverDisposal, ErrorOnOverDisposal} {
		got, err := ParseOverDisposalPolicy(want.String())
		if err != nil {
			t.Fatalf("ParseOverDisposalPolicy(%q) error = %v", want, err)
		}
		if got != want {
			t.Errorf("ParseOverDisposalPolicy(%q) = %v", want, got)
		}
	}
	if _, err := ParseOverDisposalPolicy("bogus"); err == nil {
		t.Error("ParseOverDisposalPolicy(bogus) error = nil, want error")
	}
}
