package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/hasnin090/iq-sub001/internal/services"
	"github.com/hasnin090/iq-sub001/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	s := NewServer(":0", services.NewLedgerService(store, nil), services.NewDeferredService(store))
	t.Cleanup(func() { s.rateLimiter.stop() })

	ts := httptest.NewServer(s.Server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "admin")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// Lists decode elsewhere; handlers under test return objects.
			decoded = nil
		}
	}
	return resp, decoded
}

func createProject(t *testing.T, ts *httptest.Server, name string) int64 {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/api/projects", map[string]any{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project status = %d, body = %v", resp.StatusCode, body)
	}
	return int64(body["id"].(float64))
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestTransactionFlow(t *testing.T) {
	ts := newTestServer(t)
	projectID := createProject(t, ts, "الموقع الشمالي")

	resp, body := doJSON(t, ts, http.MethodPost, "/api/fund/deposit", map[string]any{"amount": "10000.00"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit status = %d, body = %v", resp.StatusCode, body)
	}
	if body["adminBalance"] != "10000.00" {
		t.Errorf("adminBalance = %v, want 10000.00", body["adminBalance"])
	}

	resp, body = doJSON(t, ts, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2026-08-01", "description": "تمويل المرحلة الأولى",
		"type": "income", "amount": "3000.00", "projectId": projectID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("income status = %d, body = %v", resp.StatusCode, body)
	}
	balances := body["balances"].(map[string]any)
	if balances["adminBalance"] != "7000.00" {
		t.Errorf("adminBalance = %v, want 7000.00", balances["adminBalance"])
	}
	project := balances["project"].(map[string]any)
	if project["balance"] != "3000.00" {
		t.Errorf("project balance = %v, want 3000.00", project["balance"])
	}

	resp, body = doJSON(t, ts, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2026-08-02", "description": "أجور عمال",
		"type": "expense", "amount": "1200.00", "projectId": projectID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expense status = %d, body = %v", resp.StatusCode, body)
	}
	txn := body["transaction"].(map[string]any)
	if txn["createdBy"] != "admin" {
		t.Errorf("createdBy = %v, want admin", txn["createdBy"])
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/api/ledger/summary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	if body["grandTotal"] != "1200.00" {
		t.Errorf("grandTotal = %v, want 1200.00", body["grandTotal"])
	}
}

func TestTransactionErrors(t *testing.T) {
	ts := newTestServer(t)
	projectID := createProject(t, ts, "project")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "insufficient admin funds",
			body: map[string]any{"date": "2026-08-01", "description": "x", "type": "income",
				"amount": "100.00", "projectId": projectID},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "insufficient project balance",
			body: map[string]any{"date": "2026-08-01", "description": "x", "type": "expense",
				"amount": "100.00", "projectId": projectID},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad amount",
			body: map[string]any{"date": "2026-08-01", "description": "x", "type": "income",
				"amount": "-5", "projectId": projectID},
			want: http.StatusBadRequest,
		},
		{
			name: "three decimal places",
			body: map[string]any{"date": "2026-08-01", "description": "x", "type": "income",
				"amount": "1.005", "projectId": projectID},
			want: http.StatusBadRequest,
		},
		{
			name: "bad date",
			body: map[string]any{"date": "08/01/2026", "description": "x", "type": "income",
				"amount": "1.00", "projectId": projectID},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown project",
			body: map[string]any{"date": "2026-08-01", "description": "x", "type": "income",
				"amount": "1.00", "projectId": 999},
			want: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, ts, http.MethodPost, "/api/transactions", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %v)", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestDuplicateProjectName(t *testing.T) {
	ts := newTestServer(t)
	createProject(t, ts, "مشروع")
	resp, _ := doJSON(t, ts, http.MethodPost, "/api/projects", map[string]any{"name": "مشروع"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", resp.StatusCode)
	}
}

func TestDeferredFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts, http.MethodPost, "/api/deferred", map[string]any{
		"beneficiaryName": "مورد الحديد", "totalAmount": "900.00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create plan status = %d, body = %v", resp.StatusCode, body)
	}
	planID := int64(body["id"].(float64))
	if body["remainingAmount"] != "900.00" {
		t.Errorf("remainingAmount = %v, want 900.00", body["remainingAmount"])
	}

	payPath := fmt.Sprintf("/api/deferred/%d/pay", planID)
	resp, body = doJSON(t, ts, http.MethodPost, payPath, map[string]any{"amount": "300.00"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("pay status = %d, body = %v", resp.StatusCode, body)
	}
	plan := body["plan"].(map[string]any)
	if plan["paidAmount"] != "300.00" || plan["remainingAmount"] != "600.00" {
		t.Errorf("plan after pay = %v", plan)
	}

	// Overpaying the remaining balance is rejected.
	resp, _ = doJSON(t, ts, http.MethodPost, payPath, map[string]any{"amount": "600.01"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("overpay status = %d, want 400", resp.StatusCode)
	}

	resp, body = doJSON(t, ts, http.MethodPost, "/api/ledger/transfer-receivables", map[string]any{
		"beneficiary": "مورد الحديد",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transfer status = %d, body = %v", resp.StatusCode, body)
	}
	if body["transferred"] != float64(1) {
		t.Errorf("transferred = %v, want 1", body["transferred"])
	}

	// Retrying transfers nothing new.
	resp, body = doJSON(t, ts, http.MethodPost, "/api/ledger/transfer-receivables", map[string]any{
		"beneficiary": "مورد الحديد",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retry transfer status = %d", resp.StatusCode)
	}
	if body["transferred"] != float64(0) {
		t.Errorf("retry transferred = %v, want 0", body["transferred"])
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/api/ledger/beneficiary/"+url.PathEscape("مورد الحديد"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statement status = %d", resp.StatusCode)
	}
	if body["total"] != "300.00" {
		t.Errorf("statement total = %v, want 300.00", body["total"])
	}
	lines := body["lines"].([]any)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	line := lines[0].(map[string]any)
	if line["runningBalance"] != "300.00" {
		t.Errorf("runningBalance = %v, want 300.00", line["runningBalance"])
	}
}

func TestReclassifyEndpoint(t *testing.T) {
	ts := newTestServer(t)
	projectID := createProject(t, ts, "project")
	doJSON(t, ts, http.MethodPost, "/api/fund/deposit", map[string]any{"amount": "1000.00"})
	doJSON(t, ts, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2026-08-01", "description": "funding", "type": "income",
		"amount": "1000.00", "projectId": projectID,
	})
	doJSON(t, ts, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2026-08-02", "description": "اسمنت", "type": "expense",
		"amount": "100.00", "projectId": projectID, "expenseType": "مواد بناء",
	})

	resp, body := doJSON(t, ts, http.MethodPost, "/api/expense-types", map[string]any{"name": "مواد بناء"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create type status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, ts, http.MethodPost, "/api/ledger/reclassify-transactions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reclassify status = %d", resp.StatusCode)
	}
	if body["changed"] != float64(1) {
		t.Errorf("changed = %v, want 1", body["changed"])
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/api/ledger/summary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	classified := body["classified"].(map[string]any)
	if classified["count"] != float64(1) {
		t.Errorf("classified count = %v, want 1", classified["count"])
	}
}

func TestDeleteTransactionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	projectID := createProject(t, ts, "project")
	doJSON(t, ts, http.MethodPost, "/api/fund/deposit", map[string]any{"amount": "500.00"})
	resp, body := doJSON(t, ts, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2026-08-01", "description": "funding", "type": "income",
		"amount": "500.00", "projectId": projectID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("income status = %d", resp.StatusCode)
	}
	txnID := int64(body["transaction"].(map[string]any)["id"].(float64))

	resp, body = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txnID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, body = %v", resp.StatusCode, body)
	}
	if body["adminBalance"] != "500.00" {
		t.Errorf("adminBalance = %v, want 500.00", body["adminBalance"])
	}

	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txnID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}
