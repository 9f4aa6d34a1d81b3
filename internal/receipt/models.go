package receipt

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// AmountCandidate is a monetary value found in receipt text, with the
// confidence assigned by the strategy that found it and a human-readable
// source label for audit trails.
type AmountCandidate struct {
	Value      decimal.Decimal `json:"value"`
	Confidence int             `json:"confidence"`
	Source     string          `json:"source"`
}

// KeywordRule ranks a "total" keyword. Higher priority keywords are more
// likely to sit next to the payable amount.
type KeywordRule struct {
	Keyword  string
	Priority int
}

// AmountPattern is a ranked regular expression for monetary values. The first
// capture group must hold the numeric text.
type AmountPattern struct {
	Pattern  *regexp.Regexp
	Priority int
}

// DefaultTotalKeywords is the ranked keyword table used by the
// keyword-proximity strategy. Order matters: the first keyword found on a line
// decides that line's priority.
var DefaultTotalKeywords = []KeywordRule{
	{Keyword: "grand total", Priority: 10},
	{Keyword: "net total", Priority: 10},
	{Keyword: "amount payable", Priority: 10},
	{Keyword: "total payable", Priority: 9},
	{Keyword: "net amount", Priority: 9},
	{Keyword: "total amount", Priority: 8},
	{Keyword: "amount due", Priority: 8},
	{Keyword: "invoice total", Priority: 7},
	{Keyword: "balance due", Priority: 7},
	{Keyword: "total due", Priority: 6},
	{Keyword: "total", Priority: 5},
}

// DefaultAmountPatterns is the ranked pattern table shared by all strategies.
var DefaultAmountPatterns = []AmountPattern{
	// Currency-symbol prefixed: ₹1,234.56, Rs. 500, INR 2500
	{Pattern: regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`), Priority: 10},
	// Decimal-formatted: 1234.56
	{Pattern: regexp.MustCompile(`\b([0-9][0-9,]*\.[0-9]{2})\b`), Priority: 8},
	// Thousands-comma formatted: 1,234 or 12,34,567
	{Pattern: regexp.MustCompile(`\b([0-9]{1,3}(?:,[0-9]{2,3})+)\b`), Priority: 7},
	// Colon-prefixed: "Total: 4500"
	{Pattern: regexp.MustCompile(`:\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)\b`), Priority: 6},
}

var (
	// Amounts outside this window are treated as line items, quantities or
	// OCR noise rather than plausible receipt totals.
	minPlausibleAmount = decimal.NewFromInt(0)
	maxPlausibleAmount = decimal.NewFromInt(10_000_000)

	// The largest-amount fallback applies a tighter lower bound to skip
	// quantities and small line items.
	minFallbackAmount = decimal.NewFromInt(50)
)
