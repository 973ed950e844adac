package finance

import (
	"errors"
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func baseInput() *Input {
	return &Input{
		MonthlyIncome: 8000,
		ExpenseCategories: []CategoryInput{
			{Category: "Housing", Amount: 2500},
			{Category: "Food", Amount: 1500},
			{Category: "Transport", Amount: 1500},
		},
		CurrentSavings: f64(12000),
	}
}

func TestFromInput_DerivesExpensesFromCategories(t *testing.T) {
	s, err := FromInput(baseInput())
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	if s.TotalExpenses() != 5500 {
		t.Errorf("total expenses = %v, want 5500", s.TotalExpenses())
	}
	if s.Income() != 8000 {
		t.Errorf("income = %v, want 8000", s.Income())
	}
}

func TestFromInput_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   *Input
	}{
		{"nil input", nil},
		{"zero income", &Input{MonthlyIncome: 0, MonthlyExpenses: f64(100)}},
		{"negative income", &Input{MonthlyIncome: -100, MonthlyExpenses: f64(100)}},
		{"negative expenses", &Input{MonthlyIncome: 1000, MonthlyExpenses: f64(-1)}},
		{"no expenses at all", &Input{MonthlyIncome: 1000}},
		{"negative category", &Input{
			MonthlyIncome:     1000,
			ExpenseCategories: []CategoryInput{{Category: "Food", Amount: -5}},
		}},
		{"allocation off by more than tolerance", &Input{
			MonthlyIncome:   1000,
			MonthlyExpenses: f64(500),
			AssetAllocation: []AllocationInput{
				{AssetClass: "Stocks", AllocationPct: 70},
				{AssetClass: "Bonds", AllocationPct: 29},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromInput(tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestFromInput_AllocationWithinTolerance(t *testing.T) {
	in := baseInput()
	in.AssetAllocation = []AllocationInput{
		{AssetClass: "Stocks", AllocationPct: 60.05},
		{AssetClass: "Bonds", AllocationPct: 40},
	}
	if _, err := FromInput(in); err != nil {
		t.Fatalf("allocation within tolerance rejected: %v", err)
	}
}

func TestFromInput_NormalizesAndMergesCategories(t *testing.T) {
	in := &Input{
		MonthlyIncome: 5000,
		ExpenseCategories: []CategoryInput{
			{Category: "  transport ", Amount: 300},
			{Category: "Transportation", Amount: 200},
			{Category: "groceries", Amount: 800},
		},
	}
	s, err := FromInput(in)
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	cats := s.Categories()
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2 (merged): %+v", len(cats), cats)
	}
	if amt, ok := s.CategoryAmount("Transport"); !ok || amt != 500 {
		t.Errorf("Transport = %v (%v), want 500", amt, ok)
	}
	if amt, ok := s.CategoryAmount("Food"); !ok || amt != 800 {
		t.Errorf("Food (aliased from groceries) = %v (%v), want 800", amt, ok)
	}
}

func TestNormalize_MultibyteLeadingRune(t *testing.T) {
	if got := NormalizeCategory("éducation"); got != "Éducation" {
		t.Errorf("NormalizeCategory = %q, want Éducation", got)
	}
	if got := NormalizeAssetClass("énergie verte"); got != "Énergie Verte" {
		t.Errorf("NormalizeAssetClass = %q, want Énergie Verte", got)
	}
}

func TestApplyExpenseDelta_DoesNotMutateOriginal(t *testing.T) {
	s, err := FromInput(baseInput())
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	before := s.Summarize()

	scenario := s.ApplyExpenseDelta("Transport", 1500)
	if scenario.TotalExpenses() != 7000 {
		t.Errorf("scenario expenses = %v, want 7000", scenario.TotalExpenses())
	}
	if got := s.Summarize(); got != before {
		t.Errorf("baseline snapshot changed: %+v != %+v", got, before)
	}
	if amt, _ := s.CategoryAmount("Transport"); amt != 1500 {
		t.Errorf("baseline Transport = %v, want 1500", amt)
	}
}

func TestApplyExpenseDelta_CreatesMissingCategory(t *testing.T) {
	s, _ := FromInput(baseInput())
	scenario := s.ApplyExpenseDelta("Dining", 400)
	if amt, ok := scenario.CategoryAmount("Dining"); !ok || amt != 400 {
		t.Errorf("Dining = %v (%v), want 400", amt, ok)
	}
	if scenario.TotalExpenses() != 5900 {
		t.Errorf("total = %v, want 5900", scenario.TotalExpenses())
	}
}

func TestApplyExpenseDelta_ClampsAtZero(t *testing.T) {
	s, _ := FromInput(baseInput())
	scenario := s.ApplyExpenseDelta("Food", -2000)
	if amt, _ := scenario.CategoryAmount("Food"); amt != 0 {
		t.Errorf("Food = %v, want 0 (clamped)", amt)
	}
	if !scenario.Clamped() {
		t.Error("scenario not marked clamped")
	}
	if s.Clamped() {
		t.Error("baseline marked clamped")
	}
	if scenario.TotalExpenses() != 4000 {
		t.Errorf("total = %v, want 4000", scenario.TotalExpenses())
	}
}

func TestApplyAssetDelta(t *testing.T) {
	in := baseInput()
	in.AssetAllocation = []AllocationInput{
		{AssetClass: "Stocks", AllocationPct: 70},
		{AssetClass: "Bonds", AllocationPct: 30},
	}
	s, err := FromInput(in)
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}

	// A single-class shift breaks the 100% sum and must be rejected.
	if _, err := s.ApplyAssetDelta("Stocks", -10); !errors.Is(err, ErrInvalidDelta) {
		t.Errorf("unbalanced delta: err = %v, want ErrInvalidDelta", err)
	}

	// A shift within tolerance is accepted and leaves the original untouched.
	step, err := s.ApplyAssetDelta("Stocks", 0.05)
	if err != nil {
		t.Fatalf("within-tolerance delta rejected: %v", err)
	}
	if got := step.Allocation()[0].Pct; got != 70.05 {
		t.Errorf("scenario Stocks = %v, want 70.05", got)
	}
	if got := s.Allocation()[0].Pct; got != 70 {
		t.Errorf("baseline Stocks = %v, want 70", got)
	}
}

func TestApplyAssetDelta_NegativeClassRejected(t *testing.T) {
	in := baseInput()
	in.AssetAllocation = []AllocationInput{
		{AssetClass: "Stocks", AllocationPct: 95},
		{AssetClass: "Cash", AllocationPct: 5},
	}
	s, _ := FromInput(in)
	if _, err := s.ApplyAssetDelta("Cash", -10); !errors.Is(err, ErrInvalidDelta) {
		t.Errorf("err = %v, want ErrInvalidDelta", err)
	}
}

func TestRoundTrip(t *testing.T) {
	in := baseInput()
	in.AssetAllocation = []AllocationInput{
		{AssetClass: "Stocks", AllocationPct: 60},
		{AssetClass: "Bonds", AllocationPct: 40},
	}
	s, err := FromInput(in)
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	again, err := FromInput(s.ToInput())
	if err != nil {
		t.Fatalf("round-trip FromInput: %v", err)
	}
	if math.Abs(again.Income()-s.Income()) > 1e-9 {
		t.Errorf("income drifted: %v vs %v", again.Income(), s.Income())
	}
	if math.Abs(again.TotalExpenses()-s.TotalExpenses()) > 1e-9 {
		t.Errorf("expenses drifted: %v vs %v", again.TotalExpenses(), s.TotalExpenses())
	}
	if len(again.Categories()) != len(s.Categories()) {
		t.Errorf("category count drifted")
	}
	if len(again.Allocation()) != len(s.Allocation()) {
		t.Errorf("allocation count drifted")
	}
	sav1, _ := s.Savings()
	sav2, _ := again.Savings()
	if sav1 != sav2 {
		t.Errorf("savings drifted: %v vs %v", sav2, sav1)
	}
}

func TestDerivedMetrics(t *testing.T) {
	s, _ := FromInput(baseInput())
	m := s.DerivedMetrics()
	if math.Abs(m.SavingsRate-0.3125) > 1e-9 {
		t.Errorf("savings rate = %v, want 0.3125", m.SavingsRate)
	}
	if math.Abs(m.ExpenseRatio-0.6875) > 1e-9 {
		t.Errorf("expense ratio = %v, want 0.6875", m.ExpenseRatio)
	}
	if math.Abs(m.MonthsCoverage-12000.0/5500.0) > 1e-9 {
		t.Errorf("months coverage = %v", m.MonthsCoverage)
	}
	if m.LargestCategory != "Housing" {
		t.Errorf("largest category = %q, want Housing", m.LargestCategory)
	}
}

func TestComplete(t *testing.T) {
	if !(&Input{MonthlyIncome: 1000, MonthlyExpenses: f64(500)}).Complete() {
		t.Error("bare expense figure should count as complete")
	}
	if (&Input{MonthlyIncome: 1000}).Complete() {
		t.Error("income alone should be incomplete")
	}
	if !baseInput().Complete() {
		t.Error("category table input should be complete")
	}
	var nilInput *Input
	if nilInput.Complete() {
		t.Error("nil input should be incomplete")
	}
}

func TestApplyExpenseDelta_PartialCategoryTable(t *testing.T) {
	s, err := FromInput(&Input{MonthlyIncome: 8000, MonthlyExpenses: f64(5500)})
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	scenario := s.ApplyExpenseDelta("Transport", 1500)
	if scenario.TotalExpenses() != 7000 {
		t.Errorf("total = %v, want 7000", scenario.TotalExpenses())
	}
	if amt, ok := scenario.CategoryAmount("Transport"); !ok || amt != 1500 {
		t.Errorf("Transport = %v (%v), want 1500", amt, ok)
	}
	if s.TotalExpenses() != 5500 {
		t.Errorf("baseline total = %v, want 5500", s.TotalExpenses())
	}
}
