package cryptotax

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types found in exchange exports. The Type field is a free-form
// string preserved from the file; these constants cover the values the
// accounting engine gives a meaning to.
const (
	TypeBuy      = "Buy"
	TypeSell     = "Sell"
	TypeDeposit  = "Deposit"
	TypeWithdraw = "Withdrawal"
	TypeTrade    = "Trade"
	TypeReceive  = "Receive"
)

// LabelReward marks a Receive transaction as earned income (staking,
// referral, airdrop) rather than a transfer.
const LabelReward = "Reward"

// Transaction is one ledger row. Sent and received amounts are non-negative
// magnitudes; direction is implied by the field name, not the sign. A
// transaction may carry a sent leg only, a received leg only, or both (an
// exchange). Absent numeric fields are NaN.
type Transaction struct {
	Time  time.Time
	Type  string
	Label string

	SentAsset  string
	SentAmount float64
	SentPrice  float64 // declared EUR unit price, NaN when unknown
	SentValue  float64 // declared EUR value, NaN when unknown

	ReceivedAsset  string
	ReceivedAmount float64
	ReceivedPrice  float64
	ReceivedValue  float64

	Fee float64 // defaults to 0

	// raw keeps the original CSV cells so unknown columns survive a
	// decode/encode round trip.
	raw []string
}

// HasSent reports whether the transaction removes an asset.
func (t *Transaction) HasSent() bool {
	return t.SentAsset != "" && !math.IsNaN(t.SentAmount)
}

// HasReceived reports whether the transaction adds an asset.
func (t *Transaction) HasReceived() bool {
	return t.ReceivedAsset != "" && !math.IsNaN(t.ReceivedAmount)
}

// Year returns the calendar year of the transaction.
func (t *Transaction) Year() int { return t.Time.Year() }

// IsReward reports whether the transaction records earned income.
func (t *Transaction) IsReward() bool {
	return t.Type == TypeReceive && t.Label == LabelReward
}

// PriceSource qualifies how a leg's EUR unit price was obtained, so
// downstream reporting can distinguish estimated from recorded valuations.
type PriceSource int

const (
	// PriceUnavailable means no price could be determined; the engine uses 0.
	PriceUnavailable PriceSource = iota
	// PriceDeclared means the ledger row carried its own EUR unit price.
	PriceDeclared
	// PriceDerived means the price was inferred from the paired EUR leg.
	PriceDerived
)

func (s PriceSource) String() string {
	switch s {
	case PriceDeclared:
		return "declared"
	case PriceDerived:
		return "derived"
	default:
		return "unavailable"
	}
}

// legPrice resolves the EUR unit price of a leg of the given amount: the
// declared price wins, otherwise the price is derived from the paired EUR
// leg (counterAmount / amount), otherwise it is 0.
func legPrice(declared float64, counterAsset string, counterAmount, amount float64) (float64, PriceSource) {
	if !math.IsNaN(declared) {
		return declared, PriceDeclared
	}
	if counterAsset == "EUR" && !math.IsNaN(counterAmount) && amount > 0 {
		return counterAmount / amount, PriceDerived
	}
	return 0, PriceUnavailable
}

// SentUnitPrice returns the EUR unit price of the sent leg and its source.
func (t *Transaction) SentUnitPrice() (float64, PriceSource) {
	return legPrice(t.SentPrice, t.ReceivedAsset, t.ReceivedAmount, t.SentAmount)
}

// ReceivedUnitPrice returns the EUR unit price of the received leg and its source.
func (t *Transaction) ReceivedUnitPrice() (float64, PriceSource) {
	return legPrice(t.ReceivedPrice, t.SentAsset, t.SentAmount, t.ReceivedAmount)
}

// FeeOrZero returns the transaction fee, treating absent as 0.
func (t *Transaction) FeeOrZero() float64 {
	if math.IsNaN(t.Fee) {
		return 0
	}
	return t.Fee
}

// instantLayouts are the timestamp formats accepted in ledger exports.
// Layouts without a zone are interpreted in the decoder's location.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// parseInstant parses a ledger timestamp, localizing naive values in loc.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range instantLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// parseNumber coerces a CSV cell into a float64, honoring the file's decimal
// separator. Empty or malformed cells yield NaN.
func parseNumber(s string, decimalComma bool) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if decimalComma {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

// formatNumber renders a value for the enriched CSV; NaN renders empty.
func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return decimal.NewFromFloat(v).String()
}
