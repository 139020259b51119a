// Package currency holds the currency-pair conventions used when normalizing
// raw confirmation data: which of two currencies is the base of a pair, which
// of two conflicting amounts is the authoritative notional, and how a venue's
// call/put flag maps onto the base currency.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPriority ranks the major currencies; the higher-priority currency of
// a pair is its base. Unranked currencies sort below all ranked ones.
var DefaultPriority = []string{
	"EUR", "GBP", "AUD", "NZD", "USD", "CAD", "CHF", "JPY", "NOK", "SEK", "DKK",
}

// Convention applies a fixed priority ranking to currency pairs. It is
// immutable after construction; tests substitute their own ranking.
type Convention struct {
	rank map[string]int
}

// NewConvention builds a convention from a priority ordering, highest first.
func NewConvention(priority []string) *Convention {
	rank := make(map[string]int, len(priority))
	for i, ccy := range priority {
		rank[strings.ToUpper(ccy)] = len(priority) - i
	}
	return &Convention{rank: rank}
}

// Default returns the convention over DefaultPriority.
func Default() *Convention {
	return NewConvention(DefaultPriority)
}

func (c *Convention) rankOf(ccy string) int {
	return c.rank[strings.ToUpper(ccy)]
}

// DetermineBase picks the base currency of the two, independent of argument
// order. Equal-ranked (both unranked) currencies fall back to lexicographic
// order so the choice stays deterministic.
func (c *Convention) DetermineBase(a, b string) string {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	ra, rb := c.rankOf(a), c.rankOf(b)
	switch {
	case ra > rb:
		return a
	case rb > ra:
		return b
	case a <= b:
		return a
	default:
		return b
	}
}

// Pair returns the canonical 6-character BASEQUOTE pair for two currencies.
func (c *Convention) Pair(a, b string) string {
	base := c.DetermineBase(a, b)
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	if base == a {
		return a + b
	}
	return b + a
}

// Base and Quote split a canonical 6-character pair.
func Base(pair string) string  { return pair[:3] }
func Quote(pair string) string { return pair[3:] }

// NormalizeBoughtSold turns "bought X of A, sold Y of B" into the canonical
// pair plus the buy/sell label of the base currency and the authoritative
// notional.
func (c *Convention) NormalizeBoughtSold(boughtCcy string, boughtAmt decimal.Decimal, soldCcy string, soldAmt decimal.Decimal) (pair, buySell string, notional decimal.Decimal, notionalCcy string) {
	pair = c.Pair(boughtCcy, soldCcy)
	if strings.EqualFold(boughtCcy, Base(pair)) {
		buySell = "Buy"
	} else {
		buySell = "Sell"
	}
	notional, notionalCcy = c.SelectNotional(pair, boughtCcy, boughtAmt, soldCcy, soldAmt)
	return pair, buySell, notional, notionalCcy
}

// SelectNotional chooses the authoritative amount when two leg amounts
// disagree due to rounding: the amount denominated in the base (higher
// priority) currency wins; when neither currency has an unambiguous priority
// the larger raw amount is taken, as it is less likely to be a rounding
// artifact of an FX conversion. Provisional business rule; keep the selection
// here so parsers never re-implement it.
func (c *Convention) SelectNotional(pair, ccyA string, amtA decimal.Decimal, ccyB string, amtB decimal.Decimal) (decimal.Decimal, string) {
	base := Base(pair)
	if strings.EqualFold(ccyA, base) {
		return amtA, strings.ToUpper(ccyA)
	}
	if strings.EqualFold(ccyB, base) {
		return amtB, strings.ToUpper(ccyB)
	}
	if amtA.GreaterThanOrEqual(amtB) {
		return amtA, strings.ToUpper(ccyA)
	}
	return amtB, strings.ToUpper(ccyB)
}

// MapCallPutToBase converts a venue call/put flag, expressed relative to the
// strike currency, into the canonical call/put of the base currency. A strike
// currency equal to the quote inverts the flag. A strike currency matching
// neither side passes the flag through and reports it as ambiguous.
func (c *Convention) MapCallPutToBase(raw, pair, strikeCcy string) (callPut string, ambiguous bool) {
	call := isCall(raw)
	switch {
	case strings.EqualFold(strikeCcy, Base(pair)):
	case strings.EqualFold(strikeCcy, Quote(pair)):
		call = !call
	default:
		ambiguous = true
	}
	if call {
		return "Call", ambiguous
	}
	return "Put", ambiguous
}

func isCall(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "C", "CALL", "OC", "1":
		return true
	default:
		return false
	}
}
