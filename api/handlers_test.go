package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	// Freeze "today" in the fourth 30-day cycle after 2026-01-01.
	h.Driver.Now = func() budget.Date { return budget.NewDate(2026, time.April, 10) }

	server := httptest.NewServer(NewRouter(h, []string{"*"}))
	t.Cleanup(server.Close)
	return h, server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// seedHousehold stores settings anchored 2026-01-01, two categories, budgets
// and spend for the first two cycles, then rebuilds.
func seedHousehold(t *testing.T, h *Handler, server *httptest.Server) {
	t.Helper()

	resp := doJSON(t, http.MethodPut, server.URL+"/api/settings",
		SettingsDTO{CycleLengthDays: 30, AnchorDate: "2026-01-01"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range []CategoryDTO{
		{ID: "groceries", Name: "Groceries", Kind: "expense", RolloverMode: "both"},
		{ID: "rent", Name: "Rent", Kind: "expense", RolloverMode: "none"},
	} {
		resp = doJSON(t, http.MethodPost, server.URL+"/api/categories", c)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	for _, start := range []string{"2026-01-01", "2026-01-31"} {
		resp = doJSON(t, http.MethodPut, server.URL+"/api/budgets",
			AllocationDTO{CategoryID: "groceries", PeriodStart: start, Amount: 500})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/transactions",
		CreateTransactionRequest{Date: "2026-01-10", Amount: 400, CategoryID: "groceries"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/cycles/rebuild", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettingsEndpoint(t *testing.T) {
	_, server := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/settings", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/settings",
		SettingsDTO{CycleLengthDays: 30, AnchorDate: "2026-01-01"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got SettingsDTO
	decode(t, resp, &got)
	assert.Equal(t, 30, got.CycleLengthDays)
	assert.Equal(t, "2026-01-01", got.AnchorDate)
}

func TestPutSettingsRejectsBadInput(t *testing.T) {
	_, server := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/settings",
		SettingsDTO{CycleLengthDays: 30, AnchorDate: "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/settings",
		SettingsDTO{CycleLengthDays: 0, AnchorDate: "2026-01-01"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CYCLES
// =============================================================================

func TestListCyclesPagination(t *testing.T) {
	h, server := newTestServer(t)
	seedHousehold(t, h, server) // rebuild covers cycles 0..3

	resp := doJSON(t, http.MethodGet, server.URL+"/api/cycles?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page1 ListCyclesResponse
	decode(t, resp, &page1)
	require.Len(t, page1.Items, 2)
	assert.Equal(t, "2026-04-01", page1.Items[0].PeriodStart, "newest first")
	require.NotEmpty(t, page1.NextCursor)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/cycles?limit=2&cursor="+page1.NextCursor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page2 ListCyclesResponse
	decode(t, resp, &page2)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "2026-01-31", page2.Items[0].PeriodStart)
	assert.Equal(t, "2026-01-01", page2.Items[1].PeriodStart)
	assert.Empty(t, page2.NextCursor)
}

func TestGetCycleDetail(t *testing.T) {
	h, server := newTestServer(t)
	seedHousehold(t, h, server)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/cycles/2026-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail CycleDetailResponse
	decode(t, resp, &detail)
	require.NotNil(t, detail.Cycle)
	assert.Equal(t, 400.0, detail.Cycle.TotalSpent)
	require.Len(t, detail.Categories, 2)
	assert.Equal(t, "groceries", detail.Categories[0].CategoryID)
	assert.Equal(t, 100.0, detail.Categories[0].CarryoverRunningTotal)
}

func TestGetCycleDetail_NeverSnapshottedReturnsNullCycle(t *testing.T) {
	h, server := newTestServer(t)
	seedHousehold(t, h, server)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/cycles/2030-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail CycleDetailResponse
	decode(t, resp, &detail)
	assert.Nil(t, detail.Cycle)
	assert.Empty(t, detail.Categories)
}

func TestGetCycleDetail_AppliesAdjustmentOverlay(t *testing.T) {
	h, server := newTestServer(t)
	seedHousehold(t, h, server)

	// Nudge groceries by -25 after the snapshots exist.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/categories",
		CategoryDTO{ID: "groceries", Name: "Groceries", Kind: "expense", RolloverMode: "both", CarryoverAdjustment: -25})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/cycles/2026-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail CycleDetailResponse
	decode(t, resp, &detail)
	require.Len(t, detail.Categories, 2)
	groceries := detail.Categories[0]
	assert.Equal(t, 100.0, groceries.CarryoverRunningTotal, "stored chain is untouched")
	assert.Equal(t, 75.0, groceries.CarryoverAdjustedTotal, "overlay applied at display time")
}

// =============================================================================
// MANUAL ENTRY
// =============================================================================

func TestAddManualCycleValidation(t *testing.T) {
	h, server := newTestServer(t)
	seedHousehold(t, h, server)

	// Current cycle is rejected.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/cycles/manual", ManualCycleRequest{
		PeriodStart: "2026-04-01",
		Entries: []ManualEntryDTO{
			{CategoryID: "groceries", Spent: 100},
			{CategoryID: "rent", Spent: 1400},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing category is rejected with the offending id in the details.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/cycles/manual", ManualCycleRequest{
		PeriodStart: "2026-03-02",
		Entries:     []ManualEntryDTO{{CategoryID: "groceries", Spent: 100}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Contains(t, errResp.Details, "rent")

	// Complete entry succeeds.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/cycles/manual", ManualCycleRequest{
		PeriodStart: "2026-03-02",
		Entries: []ManualEntryDTO{
			{CategoryID: "groceries", Spent: 512.5},
			{CategoryID: "rent", Spent: 1400},
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestCreateTransactionRejectsUnknownCategory(t *testing.T) {
	h, server := newTestServer(t)
	seedHousehold(t, h, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/transactions",
		CreateTransactionRequest{Date: "2026-01-05", Amount: 10, CategoryID: "ghost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// DEMO SCENARIO
// =============================================================================

func TestLoadDemoScenario(t *testing.T) {
	_, server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/demo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/cycles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cycles ListCyclesResponse
	decode(t, resp, &cycles)
	assert.NotEmpty(t, cycles.Items, "demo seeds snapshots immediately")
}
