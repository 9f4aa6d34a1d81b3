package receipt

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountStrategy scans receipt lines and returns every plausible candidate it
// finds. Strategies run in order; the first one to produce candidates wins.
type amountStrategy struct {
	name string
	scan func(lines []string) []AmountCandidate
}

// AmountExtractor locates the payable total in OCR text. It runs an ordered
// chain of strategies: keyword proximity, bottom-section scan, then a
// largest-amount fallback.
type AmountExtractor struct {
	keywords   []KeywordRule
	patterns   []AmountPattern
	strategies []amountStrategy
}

// NewAmountExtractor builds an extractor with the default keyword and pattern
// tables.
func NewAmountExtractor() *AmountExtractor {
	return NewAmountExtractorWithTables(DefaultTotalKeywords, DefaultAmountPatterns)
}

// NewAmountExtractorWithTables builds an extractor with custom priority
// tables, for deployments that tune recognition to regional receipt formats.
func NewAmountExtractorWithTables(keywords []KeywordRule, patterns []AmountPattern) *AmountExtractor {
	e := &AmountExtractor{keywords: keywords, patterns: patterns}
	e.strategies = []amountStrategy{
		{name: "keyword_proximity", scan: e.scanKeywordProximity},
		{name: "bottom_section", scan: e.scanBottomSection},
		{name: "largest_amount", scan: e.scanLargestAmount},
	}
	return e
}

// ExtractAmount returns the best amount candidate from the text, or nil when
// no plausible amount exists. Extraction is deterministic: the same text
// always yields the same candidate.
func (e *AmountExtractor) ExtractAmount(text string) *AmountCandidate {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	for _, strategy := range e.strategies {
		candidates := strategy.scan(lines)
		if len(candidates) == 0 {
			continue
		}
		best := candidates[0]
		for _, c := range candidates[1:] {
			// Strict inequality keeps the first-found candidate on ties.
			if c.Confidence > best.Confidence {
				best = c
			}
		}
		return &best
	}

	return nil
}

// scanKeywordProximity pairs ranked total-keywords with amounts found on the
// same line or the two lines below it. Confidence is the keyword priority plus
// the pattern priority.
func (e *AmountExtractor) scanKeywordProximity(lines []string) []AmountCandidate {
	var candidates []AmountCandidate

	for i, line := range lines {
		lower := strings.ToLower(line)

		var rule *KeywordRule
		for j := range e.keywords {
			if strings.Contains(lower, e.keywords[j].Keyword) {
				rule = &e.keywords[j]
				break
			}
		}
		if rule == nil {
			continue
		}

		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		for _, nearby := range lines[i:end] {
			for _, p := range e.patterns {
				for _, value := range matchAmounts(p.Pattern, nearby) {
					if !plausibleTotal(value) {
						continue
					}
					candidates = append(candidates, AmountCandidate{
						Value:      value,
						Confidence: rule.Priority + p.Priority,
						Source:     "keyword_proximity",
					})
				}
			}
		}
	}

	return candidates
}

// scanBottomSection looks at the bottom 30% of the receipt, where totals
// usually print, and keeps the largest amount found there.
func (e *AmountExtractor) scanBottomSection(lines []string) []AmountCandidate {
	start := len(lines) * 7 / 10
	if start >= len(lines) {
		start = len(lines) - 1
	}

	var best *AmountCandidate
	for _, line := range lines[start:] {
		for _, p := range e.patterns {
			for _, value := range matchAmounts(p.Pattern, line) {
				if !plausibleTotal(value) {
					continue
				}
				if best == nil || value.GreaterThan(best.Value) {
					best = &AmountCandidate{
						Value:      value,
						Confidence: p.Priority + 3,
						Source:     "bottom_section",
					}
				}
			}
		}
	}

	if best == nil {
		return nil
	}
	return []AmountCandidate{*best}
}

// scanLargestAmount is the last resort: the largest amount anywhere in the
// document, bounded to skip quantities and obvious noise. Values within one
// unit of an already-seen value are treated as OCR duplicates.
func (e *AmountExtractor) scanLargestAmount(lines []string) []AmountCandidate {
	one := decimal.NewFromInt(1)
	var seen []decimal.Decimal
	var best *AmountCandidate

	for _, line := range lines {
		for _, p := range e.patterns {
			for _, value := range matchAmounts(p.Pattern, line) {
				if value.LessThanOrEqual(minFallbackAmount) || value.GreaterThanOrEqual(maxPlausibleAmount) {
					continue
				}

				duplicate := false
				for _, s := range seen {
					if value.Sub(s).Abs().LessThanOrEqual(one) {
						duplicate = true
						break
					}
				}
				if duplicate {
					continue
				}
				seen = append(seen, value)

				if best == nil || value.GreaterThan(best.Value) {
					best = &AmountCandidate{
						Value:      value,
						Confidence: 2,
						Source:     "largest_amount",
					}
				}
			}
		}
	}

	if best == nil {
		return nil
	}
	return []AmountCandidate{*best}
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func matchAmounts(pattern *regexp.Regexp, line string) []decimal.Decimal {
	var values []decimal.Decimal
	for _, m := range pattern.FindAllStringSubmatch(line, -1) {
		if len(m) < 2 {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		value, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	return values
}

func plausibleTotal(value decimal.Decimal) bool {
	return value.GreaterThan(minPlausibleAmount) && value.LessThan(maxPlausibleAmount)
}
