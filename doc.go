// Package cryptotax computes French-style weighted-average-cost (PMP)
// capital gains for a cryptocurrency transaction ledger, and backfills the
// EUR valuation of every ledger leg from a remote minute-resolution price
// service.
//
// The core functionalities include:
//   - Ledger Management: Loading CSV exports of exchange transaction
//     histories (buys, sells, deposits, withdrawals, trades, rewards),
//     sniffing their decimal separator, and replaying them in strict
//     chronological order.
//   - Price Enrichment: A resumable, rate-limited, cancellable pipeline
//     that resolves a EUR unit price for every non-EUR leg and persists an
//     enriched copy of the ledger after every row.
//   - Cost-Basis Accounting: One running position per asset with a
//     compounding weighted-average unit cost, emitting a realized gain or
//     loss event on every disposal.
//   - Tax Aggregation: Folding disposal events into per-year, per-asset and
//     global totals suitable for a tax declaration.
//
// This package serves as the foundational logic for the `ctax` command-line
// tool.
package cryptotax
