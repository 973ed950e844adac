package finance

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// AllocationTolerance is the maximum deviation from 100 an asset allocation
// may carry and still be considered valid.
const AllocationTolerance = 0.1

var (
	// ErrInvalidInput indicates malformed or incomplete financial input.
	ErrInvalidInput = errors.New("invalid financial input")
	// ErrInvalidDelta indicates a scenario delta that cannot be applied.
	ErrInvalidDelta = errors.New("invalid scenario delta")
)

// CategoryInput is one expense category row as submitted by the client.
type CategoryInput struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// AllocationInput is one asset allocation row as submitted by the client.
type AllocationInput struct {
	AssetClass    string  `json:"asset_class"`
	AllocationPct float64 `json:"allocation_pct"`
}

// Input is the raw financial input attached to a turn request.
type Input struct {
	MonthlyIncome     float64           `json:"monthly_income"`
	MonthlyExpenses   *float64          `json:"monthly_expenses,omitempty"`
	ExpenseCategories []CategoryInput   `json:"expense_categories,omitempty"`
	AssetAllocation   []AllocationInput `json:"asset_allocation,omitempty"`
	CurrentSavings    *float64          `json:"current_savings,omitempty"`
	RiskTolerance     string            `json:"risk_tolerance,omitempty"`
}

// Complete reports whether the input carries enough data to run an analysis:
// positive income plus either a category table with a positive total or a
// bare positive expense figure.
func (in *Input) Complete() bool {
	if in == nil || in.MonthlyIncome <= 0 {
		return false
	}
	var total float64
	for _, c := range in.ExpenseCategories {
		total += c.Amount
	}
	if len(in.ExpenseCategories) > 0 && total > 0 {
		return true
	}
	return in.MonthlyExpenses != nil && *in.MonthlyExpenses > 0
}

// Category is a normalized expense category inside a snapshot.
type Category struct {
	Name   string
	Amount float64
}

// Allocation is a normalized asset class inside a snapshot.
type Allocation struct {
	Class string
	Pct   float64
}

// Snapshot is an immutable point-in-time financial picture. It is never
// mutated after construction; every transformation returns a new Snapshot.
// Derived metrics are computed on demand, not stored.
type Snapshot struct {
	income        float64
	totalExpenses float64
	categories    []Category
	allocation    []Allocation
	savings       float64
	hasSavings    bool
	riskTolerance string
	clamped       bool
}

// FromInput normalizes raw input into a Snapshot. Category names are
// case/alias-normalized and duplicates merged in first-seen order. Expenses
// derive from the category table when no explicit figure is given.
func FromInput(in *Input) (Snapshot, error) {
	if in == nil {
		return Snapshot{}, fmt.Errorf("%w: missing input", ErrInvalidInput)
	}
	if in.MonthlyIncome <= 0 {
		return Snapshot{}, fmt.Errorf("%w: monthly income must be positive", ErrInvalidInput)
	}

	var cats []Category
	index := map[string]int{}
	var catTotal float64
	for _, c := range in.ExpenseCategories {
		if c.Amount < 0 {
			return Snapshot{}, fmt.Errorf("%w: category %q has negative amount", ErrInvalidInput, c.Category)
		}
		name := NormalizeCategory(c.Category)
		if name == "" || c.Amount == 0 {
			continue
		}
		if i, ok := index[name]; ok {
			cats[i].Amount += c.Amount
		} else {
			index[name] = len(cats)
			cats = append(cats, Category{Name: name, Amount: c.Amount})
		}
		catTotal += c.Amount
	}

	var expenses float64
	switch {
	case in.MonthlyExpenses != nil:
		if *in.MonthlyExpenses < 0 {
			return Snapshot{}, fmt.Errorf("%w: monthly expenses must be non-negative", ErrInvalidInput)
		}
		expenses = *in.MonthlyExpenses
		if expenses == 0 && catTotal > 0 {
			expenses = catTotal
		}
	case len(cats) > 0:
		expenses = catTotal
	default:
		return Snapshot{}, fmt.Errorf("%w: either monthly expenses or expense categories required", ErrInvalidInput)
	}

	var alloc []Allocation
	if len(in.AssetAllocation) > 0 {
		var sum float64
		seen := map[string]int{}
		for _, a := range in.AssetAllocation {
			if a.AllocationPct < 0 {
				return Snapshot{}, fmt.Errorf("%w: asset class %q has negative allocation", ErrInvalidInput, a.AssetClass)
			}
			class := NormalizeAssetClass(a.AssetClass)
			if class == "" || a.AllocationPct == 0 {
				continue
			}
			if i, ok := seen[class]; ok {
				alloc[i].Pct += a.AllocationPct
			} else {
				seen[class] = len(alloc)
				alloc = append(alloc, Allocation{Class: class, Pct: a.AllocationPct})
			}
			sum += a.AllocationPct
		}
		if diff := sum - 100; diff > AllocationTolerance || diff < -AllocationTolerance {
			return Snapshot{}, fmt.Errorf("%w: asset allocation must sum to 100, got %.2f", ErrInvalidInput, sum)
		}
	}

	s := Snapshot{
		income:        in.MonthlyIncome,
		totalExpenses: expenses,
		categories:    cats,
		allocation:    alloc,
		riskTolerance: strings.TrimSpace(in.RiskTolerance),
	}
	if in.CurrentSavings != nil {
		if *in.CurrentSavings < 0 {
			return Snapshot{}, fmt.Errorf("%w: current savings must be non-negative", ErrInvalidInput)
		}
		s.savings = *in.CurrentSavings
		s.hasSavings = true
	}
	return s, nil
}

// Income returns the monthly income.
func (s Snapshot) Income() float64 { return s.income }

// TotalExpenses returns total monthly expenses.
func (s Snapshot) TotalExpenses() float64 { return s.totalExpenses }

// Categories returns a copy of the ordered category set.
func (s Snapshot) Categories() []Category {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Allocation returns a copy of the ordered asset allocation.
func (s Snapshot) Allocation() []Allocation {
	out := make([]Allocation, len(s.allocation))
	copy(out, s.allocation)
	return out
}

// Savings returns the current savings balance and whether it was provided.
func (s Snapshot) Savings() (float64, bool) { return s.savings, s.hasSavings }

// RiskTolerance returns the optional risk tolerance tag.
func (s Snapshot) RiskTolerance() string { return s.riskTolerance }

// Clamped reports whether a delta application clamped expenses at zero.
func (s Snapshot) Clamped() bool { return s.clamped }

// CategoryAmount looks up a category by normalized name.
func (s Snapshot) CategoryAmount(name string) (float64, bool) {
	name = NormalizeCategory(name)
	for _, c := range s.categories {
		if c.Name == name {
			return c.Amount, true
		}
	}
	return 0, false
}

// ApplyExpenseDelta returns a new snapshot with the named category adjusted
// by delta. A missing category is created; a delta that would drive the
// category below zero clamps it at zero and marks the snapshot clamped.
// The receiver is never modified.
func (s Snapshot) ApplyExpenseDelta(category string, delta float64) Snapshot {
	next := s.clone()
	name := NormalizeCategory(category)

	// The total moves by what was actually applied, which can be less than
	// delta when a category clamps at zero. The category table may cover
	// only part of the total, so the total is adjusted, never recomputed
	// from the table.
	applied := delta
	found := false
	for i := range next.categories {
		if next.categories[i].Name == name {
			amt := next.categories[i].Amount + delta
			if amt < 0 {
				applied = -next.categories[i].Amount
				amt = 0
				next.clamped = true
			}
			next.categories[i].Amount = amt
			found = true
			break
		}
	}
	if !found {
		amt := delta
		if amt < 0 {
			amt = 0
			applied = 0
			next.clamped = true
		}
		next.categories = append(next.categories, Category{Name: name, Amount: amt})
	}

	next.totalExpenses += applied
	if next.totalExpenses < 0 {
		next.totalExpenses = 0
		next.clamped = true
	}
	return next
}

// ApplyAssetDelta returns a new snapshot with the named asset class adjusted
// by deltaPct percentage points. The result must keep every class
// non-negative and the total within tolerance of 100, or the delta is
// rejected with ErrInvalidDelta.
func (s Snapshot) ApplyAssetDelta(class string, deltaPct float64) (Snapshot, error) {
	if len(s.allocation) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no asset allocation to adjust", ErrInvalidDelta)
	}
	next := s.clone()
	name := NormalizeAssetClass(class)

	found := false
	for i := range next.allocation {
		if next.allocation[i].Class == name {
			next.allocation[i].Pct += deltaPct
			found = true
			break
		}
	}
	if !found {
		next.allocation = append(next.allocation, Allocation{Class: name, Pct: deltaPct})
	}

	var sum float64
	for _, a := range next.allocation {
		if a.Pct < 0 {
			return Snapshot{}, fmt.Errorf("%w: asset class %q would go negative", ErrInvalidDelta, a.Class)
		}
		sum += a.Pct
	}
	if diff := sum - 100; diff > AllocationTolerance || diff < -AllocationTolerance {
		return Snapshot{}, fmt.Errorf("%w: allocation would sum to %.2f, not 100", ErrInvalidDelta, sum)
	}
	return next, nil
}

// ToInput re-derives raw input from the snapshot. Round-tripping through
// FromInput reproduces the same numeric fields.
func (s Snapshot) ToInput() *Input {
	expenses := s.totalExpenses
	in := &Input{
		MonthlyIncome:   s.income,
		MonthlyExpenses: &expenses,
		RiskTolerance:   s.riskTolerance,
	}
	for _, c := range s.categories {
		in.ExpenseCategories = append(in.ExpenseCategories, CategoryInput{Category: c.Name, Amount: c.Amount})
	}
	for _, a := range s.allocation {
		in.AssetAllocation = append(in.AssetAllocation, AllocationInput{AssetClass: a.Class, AllocationPct: a.Pct})
	}
	if s.hasSavings {
		sav := s.savings
		in.CurrentSavings = &sav
	}
	return in
}

func (s Snapshot) clone() Snapshot {
	next := s
	next.categories = make([]Category, len(s.categories))
	copy(next.categories, s.categories)
	next.allocation = make([]Allocation, len(s.allocation))
	copy(next.allocation, s.allocation)
	return next
}

var categoryAliases = map[string]string{
	"transportation": "Transport",
	"groceries":      "Food",
	"rent":           "Housing",
	"mortgage":       "Housing",
	"misc":           "Other",
	"miscellaneous":  "Other",
	"subscriptions":  "Subscription",
}

var assetAliases = map[string]string{
	"equities":     "Stocks",
	"equity":       "Stocks",
	"fixed income": "Bonds",
	"realestate":   "Real Estate",
}

// NormalizeCategory trims, title-cases and alias-normalizes a category name.
func NormalizeCategory(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := categoryAliases[key]; ok {
		return alias
	}
	return titleCase(key)
}

// NormalizeAssetClass trims, title-cases and alias-normalizes an asset class.
func NormalizeAssetClass(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := assetAliases[key]; ok {
		return alias
	}
	return titleCase(key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
