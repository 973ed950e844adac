package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/tools"
)

func TestHistory_AddGet(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Get("missing"); ok {
		t.Error("empty history returned a run")
	}

	run := RunMemory{
		RunID:     "r1",
		Type:      RunBaseline,
		Context:   finance.Summary{Income: 8000, TotalExpenses: 5500},
		Findings:  []tools.Finding{{Dimension: "Savings", RiskLevel: tools.RiskMedium, Reason: "rate below 20%"}},
		CreatedAt: time.Now().UTC(),
	}
	h.Add(run)

	got, ok := h.Get("r1")
	if !ok {
		t.Fatal("run not found")
	}
	if got.Type != RunBaseline || len(got.Findings) != 1 {
		t.Errorf("run = %+v", got)
	}
}

func TestHistory_ConcurrentAccess(t *testing.T) {
	h := NewHistory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			h.Add(RunMemory{RunID: id, Type: RunScenario})
			if _, ok := h.Get(id); !ok {
				t.Errorf("run %s lost", id)
			}
		}(i)
	}
	wg.Wait()
}
