package cryptotax

import (
	"fmt"
	"sort"
	"time"
)

// OverDisposalPolicy decides what happens when a transaction disposes of more
// of an asset than the ledger has recorded holdings for (short positions, or
// data predating the ledger's coverage window).
type OverDisposalPolicy int

const (
	// IgnoreOverDisposal silently skips the disposal: no event is emitted
	// and the position is left untouched. This is the historical behavior.
	IgnoreOverDisposal OverDisposalPolicy = iota
	// ClampOverDisposal disposes of the held quantity only.
	ClampOverDisposal
	// ErrorOnOverDisposal aborts the replay with an error.
	ErrorOnOverDisposal
)

func (p OverDisposalPolicy) String() string {
	switch p {
	case IgnoreOverDisposal:
		return "ignore"
	case ClampOverDisposal:
		return "clamp"
	case ErrorOnOverDisposal:
		return "error"
	default:
		return "unknown"
	}
}

// ParseOverDisposalPolicy parses a string into an OverDisposalPolicy.
func ParseOverDisposalPolicy(s string) (OverDisposalPolicy, error) {
	switch s {
	case "ignore":
		return IgnoreOverDisposal, nil
	case "clamp":
		return ClampOverDisposal, nil
	case "error":
		return ErrorOnOverDisposal, nil
	default:
		return 0, fmt.Errorf("unknown over-disposal policy: %q", s)
	}
}

// Position is the running state of one non-EUR asset: the quantity held, its
// total EUR cost basis, and the weighted-average unit cost (pmp). Positions
// are created lazily on the first transaction touching the asset and decay
// toward zero quantity; they are never deleted.
type Position struct {
	Asset    string
	Quantity float64
	Cost     float64 // total cost basis in EUR
	AvgCost  float64 // weighted-average unit cost, 0 when Quantity <= 0
}

// DisposalEvent is emitted every time a position's quantity decreases. It is
// immutable once emitted.
type DisposalEvent struct {
	Time      time.Time
	Asset     string
	Quantity  float64     // quantity disposed
	UnitPrice float64     // EUR unit price realized
	Source    PriceSource // how UnitPrice was obtained
	Fee       float64
	AvgCost   float64 // weighted-average cost at the time of disposal
	GainLoss  float64 // (UnitPrice - AvgCost) * Quantity - Fee
}

// CostBasis replays transactions in chronological order and maintains one
// weighted-average position per asset. It holds per-run state only: distinct
// ledgers can be evaluated concurrently with distinct CostBasis values.
type CostBasis struct {
	Policy OverDisposalPolicy

	positions map[string]*Position

	// EUR legs never touch a position; they accumulate as plain cash flow.
	CashIn  float64 // EUR entering the ledger (deposits, sale proceeds)
	CashOut float64 // EUR leaving the ledger (purchases, withdrawals)
}

// NewCostBasis creates an empty cost-basis ledger with the default
// (historical) over-disposal policy.
func NewCostBasis() *CostBasis {
	return &CostBasis{positions: make(map[string]*Position)}
}

func (cb *CostBasis) position(asset string) *Position {
	p, ok := cb.positions[asset]
	if !ok {
		p = &Position{Asset: asset}
		cb.positions[asset] = p
	}
	return p
}

// Position returns a copy of the asset's current position.
func (cb *CostBasis) Position(asset string) Position {
	if p, ok := cb.positions[asset]; ok {
		return *p
	}
	return Position{Asset: asset}
}

// Positions returns every tracked position, sorted by asset for stable output.
func (cb *CostBasis) Positions() []Position {
	out := make([]Position, 0, len(cb.positions))
	for _, p := range cb.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// Apply replays transactions, already sorted by timestamp ascending, and
// returns the disposal events in emission order. The weighted-average cost at
// time T depends on every acquisition before T, so order is a strict
// precondition, not a parallelizable detail.
//
// A transaction exchanging one non-EUR asset for another is processed as an
// independent disposal and acquisition, each priced on its own.
func (cb *CostBasis) Apply(txs []*Transaction) ([]DisposalEvent, error) {
	var events []DisposalEvent
	for _, t := range txs {
		if t.HasSent() {
			if t.SentAsset == "EUR" {
				cb.CashOut += t.SentAmount
			} else {
				ev, emitted, err := cb.dispose(t)
				if err != nil {
					return events, err
				}
				if emitted {
					events = append(events, ev)
				}
			}
		}
		if t.HasReceived() {
			if t.ReceivedAsset == "EUR" {
				cb.CashIn += t.ReceivedAmount
			} else {
				cb.acquire(t)
			}
		}
	}
	return events, nil
}

// dispose decreases the sent asset's position. The cost shrinks by the
// weighted-average cost of the disposed quantity, not by the disposal's own
// price, so the average cost of the remaining stock stays consistent.
func (cb *CostBasis) dispose(t *Transaction) (DisposalEvent, bool, error) {
	p := cb.position(t.SentAsset)
	amount := t.SentAmount

	if p.Quantity <= 0 || amount > p.Quantity {
		switch cb.Policy {
		case ClampOverDisposal:
			if p.Quantity <= 0 {
				return DisposalEvent{}, false, nil
			}
			amount = p.Quantity
		case ErrorOnOverDisposal:
			return DisposalEvent{}, false, fmt.Errorf("%s: disposing %v %s with only %v held",
				t.Time.Format("2006-01-02"), t.SentAmount, t.SentAsset, p.Quantity)
		default:
			return DisposalEvent{}, false, nil
		}
	}

	price, source := t.SentUnitPrice()
	fee := t.FeeOrZero()

	ev := DisposalEvent{
		Time:      t.Time,
		Asset:     t.SentAsset,
		Quantity:  amount,
		UnitPrice: price,
		Source:    source,
		Fee:       fee,
		AvgCost:   p.AvgCost,
		GainLoss:  (price-p.AvgCost)*amount - fee,
	}

	p.Quantity -= amount
	p.Cost -= p.AvgCost * amount
	if p.Quantity <= 0 {
		p.AvgCost = 0
	}
	return ev, true, nil
}

// acquire increases the received asset's position and recomputes its
// weighted-average unit cost. The fee is part of the acquisition cost.
func (cb *CostBasis) acquire(t *Transaction) {
	p := cb.position(t.ReceivedAsset)
	price, _ := t.ReceivedUnitPrice()

	p.Quantity += t.ReceivedAmount
	p.Cost += t.ReceivedAmount*price + t.FeeOrZero()
	if p.Quantity > 0 {
		p.AvgCost = p.Cost / p.Quantity
	} else {
		p.AvgCost = 0
	}
}
