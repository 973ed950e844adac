// Package tools holds the deterministic financial risk rules. Every tool is a
// pure function of a snapshot: same input, same findings, no generation calls.
package tools

import "github.com/finsightlab/finsight/internal/finance"

// Risk levels carried by findings.
const (
	RiskHigh    = "high"
	RiskMedium  = "medium"
	RiskInvalid = "invalid"
)

// Finding is a single structured risk result.
type Finding struct {
	Dimension string             `json:"dimension"`
	RiskLevel string             `json:"risk_level"`
	Reason    string             `json:"reason"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Tool is one analysis rule. Tools declare when they apply and run
// independently of each other.
type Tool interface {
	Name() string
	Applicable(s finance.Snapshot) bool
	Run(s finance.Snapshot) []Finding
}
