package tools

// Static education content per analysis dimension. Informational only; the
// narrative layer may paraphrase it but never extends it.
var educationByDimension = map[string]string{
	"Savings": "Building savings is important for financial security. " +
		"Experts generally recommend saving at least 20% of income when possible. " +
		"A higher savings rate provides a larger buffer for unexpected expenses.",
	"ExpenseRatio": "Your expense ratio shows what portion of income goes to expenses. " +
		"Keeping expenses below 80% of income leaves room for savings and emergencies. " +
		"Tracking expenses can help identify areas to adjust.",
	"ExpenseConcentration": "When a single category dominates spending, the budget is " +
		"sensitive to price changes in that one area. A more even spread makes monthly " +
		"costs easier to absorb.",
	"AssetConcentration": "Holding most assets in a single class ties outcomes to that " +
		"class alone. Diversification across classes spreads structural risk.",
	"Liquidity": "Liquid savings measured in months of expenses indicate how long a " +
		"household can absorb an income interruption. Three months of coverage is a " +
		"common reference point.",
	"Input": "Valid financial input requires positive income and non-negative expenses. " +
		"Please provide accurate monthly income and expense figures.",
}

// Education returns the content for a dimension, or "" if unknown.
func Education(dimension string) string {
	return educationByDimension[dimension]
}

// EducationFor maps each finding's dimension to its education content,
// first occurrence wins. Empty findings yield an empty map.
func EducationFor(findings []Finding) map[string]string {
	out := map[string]string{}
	for _, f := range findings {
		if _, ok := out[f.Dimension]; !ok {
			out[f.Dimension] = Education(f.Dimension)
		}
	}
	return out
}
