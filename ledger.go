package cryptotax

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Ledger column names as written by the exchange exports this tool consumes.
const (
	ColDate             = "Date"
	ColType             = "Type"
	ColLabel            = "Label"
	ColSentAmount       = "Sent Amount"
	ColSentCurrency     = "Sent Currency"
	ColReceivedAmount   = "Received Amount"
	ColReceivedCurrency = "Received Currency"
	ColFeeAmount        = "Fee Amount"

	ColSentPrice     = "Sent Price EUR"
	ColSentValue     = "Sent Value EUR"
	ColReceivedPrice = "Received Price EUR"
	ColReceivedValue = "Received Value EUR"
)

// QuoteColumns are the four columns the enrichment pipeline appends.
var QuoteColumns = []string{ColSentPrice, ColSentValue, ColReceivedPrice, ColReceivedValue}

// Ledger is a chronological list of transactions decoded from one CSV file.
// Unknown columns are carried through decode and encode untouched.
type Ledger struct {
	Columns      []string
	Transactions []*Transaction
	DecimalComma bool // true when the source file uses ',' as decimal separator

	index map[string]int
}

// DetectDecimalSeparator implements the historical separator sniffing: comma
// wins iff the sample contains strictly more commas than periods. The sample
// is the first 2048 bytes of the file.
func DetectDecimalSeparator(sample []byte) rune {
	if bytes.Count(sample, []byte{','}) > bytes.Count(sample, []byte{'.'}) {
		return ','
	}
	return '.'
}

// EnrichedPath derives the output path of the enrichment pipeline:
// "ledger.csv" becomes "ledger_enriched.csv".
func EnrichedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_enriched" + ext
}

// LedgerDecoder decodes ledger CSV files. The zero value uses the historical
// defaults (naive timestamps localized in Europe/Paris).
type LedgerDecoder struct {
	// Location is the zone naive timestamps are localized in.
	Location *time.Location
}

var parisLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.Local
	}
	return loc
}()

// DecodeLedger reads a ledger CSV file with the default decoder.
func DecodeLedger(path string) (*Ledger, error) {
	return (&LedgerDecoder{}).DecodeFile(path)
}

// DecodeFile reads and decodes one ledger file, sniffing its decimal
// separator from the first 2048 bytes.
func (d *LedgerDecoder) DecodeFile(path string) (*Ledger, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger %q: %w", path, err)
	}
	sample := content
	if len(sample) > 2048 {
		sample = sample[:2048]
	}
	return d.Decode(bytes.NewReader(content), DetectDecimalSeparator(sample) == ',')
}

// Decode decodes a ledger from r. Rows that cannot be read are skipped with a
// warning; a row-level problem is never fatal to the whole ledger.
func (d *LedgerDecoder) Decode(r io.Reader, decimalComma bool) (*Ledger, error) {
	loc := d.Location
	if loc == nil {
		loc = parisLocation
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	l := &Ledger{Columns: header, DecimalComma: decimalComma}
	l.reindex()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("warning: skipping unreadable ledger row: %v", err)
			continue
		}
		// pad short rows so every cell stays addressable
		for len(record) < len(l.Columns) {
			record = append(record, "")
		}
		l.Transactions = append(l.Transactions, l.parseRow(record, loc))
	}
	return l, nil
}

func (l *Ledger) reindex() {
	l.index = make(map[string]int, len(l.Columns))
	for i, c := range l.Columns {
		l.index[c] = i
	}
}

// cell returns the named cell of a raw record, or "" when the column is absent.
func (l *Ledger) cell(record []string, col string) string {
	i, ok := l.index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// number parses the named cell of a raw record, NaN when absent or malformed.
func (l *Ledger) number(record []string, col string) float64 {
	return parseNumber(l.cell(record, col), l.DecimalComma)
}

// priceCell reads a declared unit price, accepting both the enriched header
// and the legacy bare header older exports used.
func (l *Ledger) priceCell(record []string, enriched, legacy string) float64 {
	if _, ok := l.index[enriched]; ok {
		return l.number(record, enriched)
	}
	return l.number(record, legacy)
}

func (l *Ledger) parseRow(record []string, loc *time.Location) *Transaction {
	t := &Transaction{
		Type:           strings.TrimSpace(l.cell(record, ColType)),
		Label:          strings.TrimSpace(l.cell(record, ColLabel)),
		SentAsset:      strings.ToUpper(strings.TrimSpace(l.cell(record, ColSentCurrency))),
		SentAmount:     l.number(record, ColSentAmount),
		SentPrice:      l.priceCell(record, ColSentPrice, "Sent Price"),
		SentValue:      l.number(record, ColSentValue),
		ReceivedAsset:  strings.ToUpper(strings.TrimSpace(l.cell(record, ColReceivedCurrency))),
		ReceivedAmount: l.number(record, ColReceivedAmount),
		ReceivedPrice:  l.priceCell(record, ColReceivedPrice, "Received Price"),
		ReceivedValue:  l.number(record, ColReceivedValue),
		Fee:            l.number(record, ColFeeAmount),
		raw:            record,
	}
	if when, err := parseInstant(l.cell(record, ColDate), loc); err == nil {
		t.Time = when
	}
	return t
}

// SortByTime drops rows whose timestamp could not be parsed, then stably
// sorts the remainder in ascending chronological order. It returns the
// number of dropped rows.
func (l *Ledger) SortByTime() (dropped int) {
	kept := l.Transactions[:0]
	for _, t := range l.Transactions {
		if t.Time.IsZero() {
			dropped++
			continue
		}
		kept = append(kept, t)
	}
	l.Transactions = kept
	sort.SliceStable(l.Transactions, func(i, j int) bool {
		return l.Transactions[i].Time.Before(l.Transactions[j].Time)
	})
	return dropped
}

// EnsureQuoteColumns appends the four enrichment columns when missing and
// extends every row accordingly.
func (l *Ledger) EnsureQuoteColumns() {
	for _, col := range QuoteColumns {
		if _, ok := l.index[col]; ok {
			continue
		}
		l.Columns = append(l.Columns, col)
		l.reindex()
	}
	for _, t := range l.Transactions {
		for len(t.raw) < len(l.Columns) {
			t.raw = append(t.raw, "")
		}
	}
}

func (l *Ledger) setCell(t *Transaction, col, value string) {
	if i, ok := l.index[col]; ok && i < len(t.raw) {
		t.raw[i] = value
	}
}

// SetSentQuote records the resolved EUR unit price and value of the sent leg,
// both in the typed fields and in the row's cells. NaN clears the cells.
func (l *Ledger) SetSentQuote(t *Transaction, price, value float64) {
	t.SentPrice, t.SentValue = price, value
	l.setCell(t, ColSentPrice, formatNumber(price))
	l.setCell(t, ColSentValue, formatNumber(value))
}

// SetReceivedQuote records the resolved EUR unit price and value of the
// received leg.
func (l *Ledger) SetReceivedQuote(t *Transaction, price, value float64) {
	t.ReceivedPrice, t.ReceivedValue = price, value
	l.setCell(t, ColReceivedPrice, formatNumber(price))
	l.setCell(t, ColReceivedValue, formatNumber(value))
}

// Encode writes the ledger as CSV.
func (l *Ledger) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(l.Columns); err != nil {
		return err
	}
	for _, t := range l.Transactions {
		record := t.raw
		if len(record) < len(l.Columns) {
			padded := make([]string, len(l.Columns))
			copy(padded, record)
			record = padded
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile persists the ledger atomically: the content is written to a
// temporary file in the target directory and renamed over the destination,
// so an external reader never observes a truncated file.
func (l *Ledger) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("cannot create temporary ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := l.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// sumSent folds the sent amounts of transactions matching the filter,
// treating absent amounts as zero.
func (l *Ledger) sumSent(match func(*Transaction) bool) float64 {
	var total float64
	for _, t := range l.Transactions {
		if match(t) && !math.IsNaN(t.SentAmount) {
			total += t.SentAmount
		}
	}
	return total
}

// sumReceived folds the received amounts of transactions matching the filter.
func (l *Ledger) sumReceived(match func(*Transaction) bool) float64 {
	var total float64
	for _, t := range l.Transactions {
		if match(t) && !math.IsNaN(t.ReceivedAmount) {
			total += t.ReceivedAmount
		}
	}
	return total
}
