package tools

import "github.com/finsightlab/finsight/internal/finance"

// Registry owns the ordered toolset. Order is fixed so runs are
// reproducible: validation first, then the analysis dimensions.
type Registry struct {
	validation Tool
	analysis   []Tool
}

// NewRegistry builds the default registry.
func NewRegistry() *Registry {
	return &Registry{
		validation: InputValidationTool{},
		analysis: []Tool{
			ExpenseRatioTool{},
			ExpenseConcentrationTool{},
			AssetConcentrationTool{},
			LiquidityTool{},
		},
	}
}

// Run evaluates every applicable tool against the snapshot. If input
// validation yields a finding, the remaining tools are skipped. Run is pure:
// the same snapshot always yields the same findings.
func (r *Registry) Run(s finance.Snapshot) []Finding {
	findings := []Finding{}
	if r.validation.Applicable(s) {
		findings = append(findings, r.validation.Run(s)...)
		for _, f := range findings {
			if f.RiskLevel == RiskInvalid {
				return findings
			}
		}
	}
	for _, tool := range r.analysis {
		if tool.Applicable(s) {
			findings = append(findings, tool.Run(s)...)
		}
	}
	return findings
}
