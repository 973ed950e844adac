package finance

// Metrics are derived, never stored on the snapshot, so they can never go
// stale relative to the figures they describe.
type Metrics struct {
	SavingsRate        float64
	ExpenseRatio       float64
	MonthsCoverage     float64
	LargestCategory    string
	LargestCategoryPct float64
	LargestAsset       string
	LargestAssetPct    float64
}

// DerivedMetrics computes savings rate, expense ratio, concentration ratios
// and liquidity coverage for the snapshot.
func (s Snapshot) DerivedMetrics() Metrics {
	var m Metrics
	if s.income > 0 {
		m.SavingsRate = (s.income - s.totalExpenses) / s.income
		m.ExpenseRatio = s.totalExpenses / s.income
	}
	if s.hasSavings && s.savings > 0 && s.totalExpenses > 0 {
		m.MonthsCoverage = s.savings / s.totalExpenses
	}
	if s.totalExpenses > 0 {
		for _, c := range s.categories {
			if pct := c.Amount / s.totalExpenses; pct > m.LargestCategoryPct {
				m.LargestCategoryPct = pct
				m.LargestCategory = c.Name
			}
		}
	}
	for _, a := range s.allocation {
		if a.Pct > m.LargestAssetPct {
			m.LargestAssetPct = a.Pct
			m.LargestAsset = a.Class
		}
	}
	return m
}

// Summary is a compact, non-PII view of a snapshot used in traces.
type Summary struct {
	Income          float64 `json:"income"`
	TotalExpenses   float64 `json:"total_expenses"`
	CategoryCount   int     `json:"expense_category_count"`
	AssetClassCount int     `json:"asset_class_count"`
	SavingsRate     float64 `json:"savings_rate"`
	ExpenseRatio    float64 `json:"expense_ratio"`
}

// Summarize builds the trace summary for the snapshot.
func (s Snapshot) Summarize() Summary {
	m := s.DerivedMetrics()
	return Summary{
		Income:          s.income,
		TotalExpenses:   s.totalExpenses,
		CategoryCount:   len(s.categories),
		AssetClassCount: len(s.allocation),
		SavingsRate:     m.SavingsRate,
		ExpenseRatio:    m.ExpenseRatio,
	}
}
