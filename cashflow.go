package cryptotax

// CashFlow sums the EUR legs of a ledger: what entered the exchange account,
// what came back out, and the net exposure.
type CashFlow struct {
	SpentOnBuys   float64 // EUR sent on Buy orders
	Deposited     float64 // EUR received as deposits
	ProceedsSells float64 // EUR received from Sell orders
}

// TotalIn is the gross EUR committed to the exchange account.
func (c CashFlow) TotalIn() float64 { return c.SpentOnBuys + c.Deposited }

// NetIn is the EUR committed minus the sale proceeds taken back.
func (c CashFlow) NetIn() float64 { return c.TotalIn() - c.ProceedsSells }

// NewCashFlow folds the EUR legs of the ledger into cash-flow totals.
// Unparseable amounts count for zero.
func NewCashFlow(l *Ledger) CashFlow {
	return CashFlow{
		SpentOnBuys: l.sumSent(func(t *Transaction) bool {
			return t.Type == TypeBuy && t.SentAsset == "EUR"
		}),
		Deposited: l.sumReceived(func(t *Transaction) bool {
			return t.Type == TypeDeposit && t.ReceivedAsset == "EUR"
		}),
		ProceedsSells: l.sumReceived(func(t *Transaction) bool {
			return t.Type == TypeSell && t.ReceivedAsset == "EUR"
		}),
	}
}
