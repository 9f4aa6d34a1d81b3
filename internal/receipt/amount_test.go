package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount_KeywordProximity(t *testing.T) {
	extractor := NewAmountExtractor()

	text := `FreshMart Supplies
Item A          120.00
Item B          340.50
Subtotal        460.50
GST 18%          82.89
Grand Total     543.39
Thank you for shopping`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("543.39")),
		"got %s", candidate.Value)
	assert.Equal(t, "keyword_proximity", candidate.Source)
}

func TestExtractAmount_HighPriorityKeywordWins(t *testing.T) {
	extractor := NewAmountExtractor()

	// "Total" (priority 5) and "Amount Payable" (priority 10) both appear;
	// the payable line must win even though it comes later.
	text := `Total           460.50
Amount Payable  543.39`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("543.39")))
}

func TestExtractAmount_AmountOnFollowingLine(t *testing.T) {
	extractor := NewAmountExtractor()

	text := `Invoice Total
Rs. 1,250.00`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("1250.00")))
	assert.Equal(t, "keyword_proximity", candidate.Source)
}

func TestExtractAmount_BottomSectionFallback(t *testing.T) {
	extractor := NewAmountExtractor()

	// No total keywords anywhere; the bottom 30% holds the real total.
	text := `Corner Pharmacy
Paracetamol     30.00
Bandages        45.00
Syrup           80.00
Vitamins       120.00
Cough drops     25.00
Antiseptic      60.00
Gauze           40.00
400.00
Visit again`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("400.00")))
	assert.Equal(t, "bottom_section", candidate.Source)
}

func TestExtractAmount_LargestAmountFallback(t *testing.T) {
	extractor := NewAmountExtractor()

	// Amounts only in the top of the document, no keywords: the chain falls
	// through to the largest-amount scan.
	text := `789.50
120.00
55.25
line
line
line
line
line
line
line`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("789.50")))
	assert.Equal(t, "largest_amount", candidate.Source)
}

func TestExtractAmount_FallbackSkipsSmallAndHugeValues(t *testing.T) {
	extractor := NewAmountExtractor()

	// 12.00 is below the fallback floor, 99,999,999 above the ceiling.
	text := `12.00
99,999,999.00
line
line
line
line
line
line
line
line`

	candidate := extractor.ExtractAmount(text)
	assert.Nil(t, candidate)
}

func TestExtractAmount_NoPlausibleAmount(t *testing.T) {
	extractor := NewAmountExtractor()

	for name, text := range map[string]string{
		"empty":      "",
		"whitespace": "   \n\t\n  ",
		"words_only": "completely unreadable receipt\nno digits here",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, extractor.ExtractAmount(text))
		})
	}
}

func TestExtractAmount_Deterministic(t *testing.T) {
	extractor := NewAmountExtractor()

	text := `Groceries   250.00
Total       250.00
Paid        250.00`

	first := extractor.ExtractAmount(text)
	require.NotNil(t, first)
	for i := 0; i < 5; i++ {
		again := extractor.ExtractAmount(text)
		require.NotNil(t, again)
		assert.True(t, first.Value.Equal(again.Value))
		assert.Equal(t, first.Confidence, again.Confidence)
		assert.Equal(t, first.Source, again.Source)
	}
}

func TestExtractAmount_TieKeepsFirstFound(t *testing.T) {
	extractor := NewAmountExtractor()

	// Two "total" lines with equal keyword and pattern priorities; the
	// earlier one must win.
	text := `Total: 111.00
Total: 222.00`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("111.00")),
		"got %s", candidate.Value)
}

func TestExtractAmount_CustomTables(t *testing.T) {
	keywords := []KeywordRule{{Keyword: "montant", Priority: 10}}
	extractor := NewAmountExtractorWithTables(keywords, DefaultAmountPatterns)

	text := `Montant total
1,999.00`

	candidate := extractor.ExtractAmount(text)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Value.Equal(decimal.RequireFromString("1999.00")))
}
