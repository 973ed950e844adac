package action

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/finsightlab/finsight/internal/finance"
)

var numberPattern = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)

var knownCategories = []string{
	"housing", "rent", "mortgage", "food", "groceries", "transport", "transportation",
	"car", "utilities", "health", "insurance", "entertainment", "shopping",
	"other", "misc", "education", "travel", "dining", "subscription",
}

var knownAssetClasses = []string{
	"stocks", "bonds", "cash", "equities", "real estate", "other",
}

var categoryFillerWords = map[string]bool{
	"add": true, "to": true, "in": true, "for": true, "per": true, "month": true,
}

var assetFillerWords = map[string]bool{
	"reduce": true, "increase": true, "by": true, "to": true,
}

// extractNumber pulls the first signed number out of text, tolerating a
// leading currency symbol and a trailing percent sign.
func extractNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	// "$1500" with no explicit sign following a minus word still parses as
	// positive; the sign lives in the matched token itself.
	return v, true
}

// HasStructuredDelta is the cheap heuristic for "this message carries
// numbers that could be a delta": digits plus a sign, currency or percent.
func HasStructuredDelta(text string) bool {
	if !strings.ContainsAny(text, "0123456789") {
		return false
	}
	return strings.ContainsAny(text, "+-$%")
}

// ParseExpenseDelta parses one line like "Transport +1500",
// "add $1500 to Transport" or "+1500 Transport". Returns false when no
// category or number can be identified.
func ParseExpenseDelta(text string) (ExpenseDelta, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ExpenseDelta{}, false
	}
	num, ok := extractNumber(text)
	if !ok {
		return ExpenseDelta{}, false
	}

	lower := strings.ToLower(text)
	var category string
	for _, c := range knownCategories {
		if strings.Contains(lower, c) {
			category = c
			break
		}
	}
	if category == "" {
		category = leftoverWord(text, categoryFillerWords, 3)
	}
	if category == "" {
		return ExpenseDelta{}, false
	}
	return ExpenseDelta{Category: finance.NormalizeCategory(category), MonthlyDelta: num}, true
}

// ParseExpenseDeltas parses multi-line text into expense deltas, one per
// non-empty line, skipping lines that do not parse.
func ParseExpenseDeltas(text string) []ExpenseDelta {
	var out []ExpenseDelta
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if d, ok := ParseExpenseDelta(line); ok {
			out = append(out, d)
		}
	}
	return out
}

// ParseAssetDelta parses text like "Stocks -10" or "reduce Stocks by 10%".
func ParseAssetDelta(text string) (AssetDelta, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AssetDelta{}, false
	}
	num, ok := extractNumber(text)
	if !ok {
		return AssetDelta{}, false
	}

	lower := strings.ToLower(text)
	var class string
	for _, ac := range knownAssetClasses {
		if strings.Contains(lower, ac) {
			class = ac
			break
		}
	}
	if class == "" {
		class = leftoverWord(text, assetFillerWords, 2)
	}
	if class == "" {
		return AssetDelta{}, false
	}
	return AssetDelta{AssetClass: finance.NormalizeAssetClass(class), DeltaPct: num}, true
}

// ParseConfirmation parses a user reply against the schema a pending
// clarification asked for. For expense deltas the reply may span several
// lines; for asset changes a single delta is expected.
func ParseConfirmation(text, expectedSchema string) ([]ExpenseDelta, *AssetDelta, bool) {
	switch expectedSchema {
	case SchemaExpenseDelta:
		deltas := ParseExpenseDeltas(text)
		if len(deltas) == 0 {
			return nil, nil, false
		}
		return deltas, nil, true
	case SchemaAssetChange:
		if d, ok := ParseAssetDelta(text); ok {
			return nil, &d, true
		}
	}
	return nil, nil, false
}

var tokenSplit = regexp.MustCompile(`[\d$%+-]+`)

// leftoverWord finds a word that might name a category or asset class once
// numbers and sign tokens are stripped out.
func leftoverWord(text string, filler map[string]bool, minLen int) string {
	for _, part := range tokenSplit.Split(text, -1) {
		part = strings.TrimSpace(part)
		for _, w := range strings.Fields(part) {
			if len(w) >= minLen && !filler[strings.ToLower(w)] {
				return w
			}
		}
	}
	return ""
}
