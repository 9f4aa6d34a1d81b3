package receipt

import (
	"regexp"
	"strconv"
	"strings"
)

// GSTIN layout: 2-digit state code, 10-character PAN, entity digit, the
// literal 'Z', and a check character.
var (
	gstinStrictPattern  = regexp.MustCompile(`\b[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]\b`)
	gstinRelaxedPattern = regexp.MustCompile(`[0-9]{2}[A-Z0-9]{10}[0-9A-Z]Z[0-9A-Z]`)

	taxIDKeywords = []string{"gstin", "gst no", "gst number", "gst reg", "gst:", "tax id", "tin"}
)

// TaxIDExtractor locates a GSTIN in receipt text. It runs three escalating
// passes: strict matching near tax-ID keywords, strict matching over the whole
// document, then a relaxed pattern that tolerates OCR letter/digit confusion.
type TaxIDExtractor struct{}

func NewTaxIDExtractor() *TaxIDExtractor {
	return &TaxIDExtractor{}
}

// ExtractTaxID returns the first structurally valid GSTIN found, uppercased,
// and whether one was found at all.
func (e *TaxIDExtractor) ExtractTaxID(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	upper := strings.ToUpper(text)
	lines := splitLines(upper)

	// Pass 1: strict pattern on keyword lines and the three lines below them.
	for i, line := range lines {
		if !containsTaxIDKeyword(line) {
			continue
		}
		end := i + 4
		if end > len(lines) {
			end = len(lines)
		}
		for _, nearby := range lines[i:end] {
			if id, ok := firstValidGSTIN(gstinStrictPattern, nearby); ok {
				return id, true
			}
		}
	}

	// Pass 2: strict pattern anywhere, with intra-line spaces collapsed since
	// OCR often splits the ID.
	for _, line := range lines {
		collapsed := strings.ReplaceAll(line, " ", "")
		if id, ok := firstValidGSTIN(gstinStrictPattern, collapsed); ok {
			return id, true
		}
	}

	// Pass 3: relaxed shape, relying on the state code and 'Z' sentinel to
	// reject random alphanumeric runs.
	for _, line := range lines {
		collapsed := strings.ReplaceAll(line, " ", "")
		if id, ok := firstValidGSTIN(gstinRelaxedPattern, collapsed); ok {
			return id, true
		}
	}

	return "", false
}

func containsTaxIDKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range taxIDKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func firstValidGSTIN(pattern *regexp.Regexp, line string) (string, bool) {
	for _, match := range pattern.FindAllString(line, -1) {
		if ValidGSTINShape(match) {
			return match, true
		}
	}
	return "", false
}

// ValidGSTINShape checks the structural rules every GSTIN satisfies: 15
// characters, a state code in 01..37, and 'Z' in position 14.
func ValidGSTINShape(id string) bool {
	if len(id) != 15 {
		return false
	}
	if id[13] != 'Z' {
		return false
	}

	state, err := strconv.Atoi(id[:2])
	if err != nil || state < 1 || state > 37 {
		return false
	}

	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
