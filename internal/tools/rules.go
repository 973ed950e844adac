package tools

import (
	"fmt"

	"github.com/finsightlab/finsight/internal/finance"
)

// InputValidationTool runs first and flags structurally invalid snapshots.
// When it produces a finding, the registry skips every other tool.
type InputValidationTool struct{}

func (InputValidationTool) Name() string { return "input_validation" }

func (InputValidationTool) Applicable(finance.Snapshot) bool { return true }

func (InputValidationTool) Run(s finance.Snapshot) []Finding {
	var out []Finding
	if s.Income() <= 0 {
		out = append(out, Finding{
			Dimension: "Input",
			RiskLevel: RiskInvalid,
			Reason:    "Zero or negative income",
			Metrics:   map[string]float64{"income": s.Income()},
		})
	}
	if s.TotalExpenses() < 0 {
		out = append(out, Finding{
			Dimension: "Input",
			RiskLevel: RiskInvalid,
			Reason:    "Negative values not allowed",
			Metrics:   map[string]float64{"total_expenses": s.TotalExpenses()},
		})
	}
	return out
}

// ExpenseRatioTool covers savings rate and expense ratio thresholds.
type ExpenseRatioTool struct{}

func (ExpenseRatioTool) Name() string { return "expense_ratio" }

func (ExpenseRatioTool) Applicable(s finance.Snapshot) bool {
	return s.Income() > 0 && s.TotalExpenses() >= 0
}

func (ExpenseRatioTool) Run(s finance.Snapshot) []Finding {
	m := s.DerivedMetrics()
	var out []Finding

	switch {
	case m.SavingsRate < 0.10:
		out = append(out, Finding{
			Dimension: "Savings",
			RiskLevel: RiskHigh,
			Reason:    "Savings rate below 10%",
			Metrics:   map[string]float64{"savings_rate": m.SavingsRate},
		})
	case m.SavingsRate < 0.20:
		out = append(out, Finding{
			Dimension: "Savings",
			RiskLevel: RiskMedium,
			Reason:    "Savings rate below 20%",
			Metrics:   map[string]float64{"savings_rate": m.SavingsRate},
		})
	}

	switch {
	case m.ExpenseRatio > 0.90:
		out = append(out, Finding{
			Dimension: "ExpenseRatio",
			RiskLevel: RiskHigh,
			Reason:    "Expense ratio above 90%",
			Metrics:   map[string]float64{"expense_ratio": m.ExpenseRatio},
		})
	case m.ExpenseRatio > 0.80:
		out = append(out, Finding{
			Dimension: "ExpenseRatio",
			RiskLevel: RiskMedium,
			Reason:    "Expense ratio above 80%",
			Metrics:   map[string]float64{"expense_ratio": m.ExpenseRatio},
		})
	}
	return out
}

// ExpenseConcentrationTool flags a single category dominating total expenses.
type ExpenseConcentrationTool struct{}

func (ExpenseConcentrationTool) Name() string { return "expense_concentration" }

func (ExpenseConcentrationTool) Applicable(s finance.Snapshot) bool {
	return len(s.Categories()) > 0 && s.TotalExpenses() > 0
}

func (ExpenseConcentrationTool) Run(s finance.Snapshot) []Finding {
	total := s.TotalExpenses()
	for _, c := range s.Categories() {
		if c.Amount <= 0 {
			continue
		}
		pct := c.Amount / total
		switch {
		case pct > 0.50:
			return []Finding{{
				Dimension: "ExpenseConcentration",
				RiskLevel: RiskHigh,
				Reason:    fmt.Sprintf("Single category (%s) exceeds 50%% of expenses", c.Name),
				Metrics:   map[string]float64{"largest_category_pct": pct, "amount": c.Amount},
			}}
		case pct > 0.40:
			return []Finding{{
				Dimension: "ExpenseConcentration",
				RiskLevel: RiskMedium,
				Reason:    fmt.Sprintf("Single category (%s) exceeds 40%% of expenses", c.Name),
				Metrics:   map[string]float64{"largest_category_pct": pct, "amount": c.Amount},
			}}
		}
	}
	return nil
}

// AssetConcentrationTool flags a single asset class dominating the
// allocation. Structural guidance only, never investment advice.
type AssetConcentrationTool struct{}

func (AssetConcentrationTool) Name() string { return "asset_concentration" }

func (AssetConcentrationTool) Applicable(s finance.Snapshot) bool {
	return len(s.Allocation()) > 0
}

func (AssetConcentrationTool) Run(s finance.Snapshot) []Finding {
	for _, a := range s.Allocation() {
		if a.Pct <= 0 {
			continue
		}
		switch {
		case a.Pct > 80:
			return []Finding{{
				Dimension: "AssetConcentration",
				RiskLevel: RiskHigh,
				Reason:    fmt.Sprintf("Single asset class (%s) exceeds 80%%", a.Class),
				Metrics:   map[string]float64{"largest_asset_pct": a.Pct},
			}}
		case a.Pct > 60:
			return []Finding{{
				Dimension: "AssetConcentration",
				RiskLevel: RiskMedium,
				Reason:    fmt.Sprintf("Single asset class (%s) exceeds 60%%", a.Class),
				Metrics:   map[string]float64{"largest_asset_pct": a.Pct},
			}}
		}
	}
	return nil
}

// LiquidityTool covers months of expense coverage plus a -20% income shock
// simulation reported through the supporting metrics.
type LiquidityTool struct{}

func (LiquidityTool) Name() string { return "liquidity" }

func (LiquidityTool) Applicable(s finance.Snapshot) bool {
	savings, ok := s.Savings()
	return ok && savings > 0 && s.TotalExpenses() > 0
}

func (LiquidityTool) Run(s finance.Snapshot) []Finding {
	m := s.DerivedMetrics()
	savings, _ := s.Savings()

	shockIncome := s.Income() * 0.80
	shockMonths := m.MonthsCoverage
	if deficit := s.TotalExpenses() - shockIncome; deficit > 0 && savings > 0 {
		shockMonths = savings / deficit
	}
	metrics := map[string]float64{
		"months_coverage":           m.MonthsCoverage,
		"current_savings":           savings,
		"monthly_expenses":          s.TotalExpenses(),
		"shock_income_20pct_drop":   shockIncome,
		"shock_months_coverage":     shockMonths,
	}

	switch {
	case m.MonthsCoverage < 1:
		return []Finding{{
			Dimension: "Liquidity",
			RiskLevel: RiskHigh,
			Reason:    "Less than 1 month of expense coverage in savings",
			Metrics:   metrics,
		}}
	case m.MonthsCoverage < 3:
		return []Finding{{
			Dimension: "Liquidity",
			RiskLevel: RiskMedium,
			Reason:    "Less than 3 months of expense coverage",
			Metrics:   metrics,
		}}
	}
	return nil
}
