package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finsightlab/finsight/internal/config"
	"github.com/finsightlab/finsight/internal/finance"
	"github.com/finsightlab/finsight/internal/svc"
	"github.com/finsightlab/finsight/internal/types"
)

func testRouter() http.Handler {
	c, _ := config.LoadFromBytes([]byte("Name: finsight-test\nHost: 127.0.0.1\nPort: 0\n"))
	return NewRouter(svc.NewServiceContext(c))
}

func postChat(t *testing.T, router http.Handler, req types.TurnRequest) types.TurnResponse {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/chat = %d: %s", w.Code, w.Body.String())
	}
	var resp types.TurnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, router http.Handler, path string, v any) int {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code == http.StatusOK && v != nil {
		if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
}

func TestChatTurnAndLookups(t *testing.T) {
	router := testRouter()

	resp := postChat(t, router, types.TurnRequest{
		Message: "analyze my finances",
		Input: &finance.Input{
			MonthlyIncome: 8000,
			ExpenseCategories: []finance.CategoryInput{
				{Category: "Housing", Amount: 2500},
				{Category: "Food", Amount: 1500},
				{Category: "Transport", Amount: 1500},
			},
		},
	})
	if resp.ConversationID == "" || resp.RunID == "" {
		t.Fatalf("turn response incomplete: %+v", resp)
	}
	if resp.Trace.ActionTaken != "run_analysis" {
		t.Errorf("action = %q", resp.Trace.ActionTaken)
	}

	var run types.GetRunResponse
	if code := getJSON(t, router, "/api/runs/"+resp.RunID, &run); code != http.StatusOK {
		t.Fatalf("GET run = %d", code)
	}
	if run.RunType != "baseline" || run.Context.TotalExpenses != 5500 {
		t.Errorf("run = %+v", run)
	}

	follow := postChat(t, router, types.TurnRequest{
		ConversationID: resp.ConversationID,
		Message:        "what if transport +1500?",
	})
	if follow.MessageType != types.MessageScenario {
		t.Errorf("followup type = %q", follow.MessageType)
	}

	var conv types.GetConversationResponse
	if code := getJSON(t, router, "/api/conversations/"+resp.ConversationID, &conv); code != http.StatusOK {
		t.Fatalf("GET conversation = %d", code)
	}
	if len(conv.Turns) != 4 {
		t.Errorf("turn log has %d entries, want 4", len(conv.Turns))
	}
	if conv.LastRunType != "scenario" {
		t.Errorf("last run type = %q", conv.LastRunType)
	}
}

func TestLookupUnknownIDs(t *testing.T) {
	router := testRouter()
	if code := getJSON(t, router, "/api/runs/nope", nil); code != http.StatusNotFound {
		t.Errorf("GET unknown run = %d", code)
	}
	if code := getJSON(t, router, "/api/conversations/nope", nil); code != http.StatusNotFound {
		t.Errorf("GET unknown conversation = %d", code)
	}
}
