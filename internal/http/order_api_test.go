package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestPlaceOrder_Success(t *testing.T) {
	a := newTestApp(t, 100)

	var status int
	var body map[string]any
	entries := captureLogs(t, func() {
		status, body = a.do(t, "POST", "/api/order", `{"items":[{"productId":1,"quantity":2},{"productId":3}]}`)
	})
	if status != http.StatusOK {
		t.Fatalf("want 200, got %d body=%v", status, body)
	}
	// 2 x 19.99 + 1 x 4.99
	if body["total"] != 44.97 {
		t.Fatalf("want total 44.97, got %v", body["total"])
	}
	if id, _ := body["orderId"].(float64); id < 1 {
		t.Fatalf("missing orderId: %v", body)
	}
	if got := a.stock(t, 1); got != 48 {
		t.Fatalf("want stock 48, got %d", got)
	}
	if got := a.stock(t, 3); got != 499 {
		t.Fatalf("want stock 499, got %d", got)
	}
	if !hasAction(entries, "order.place") {
		t.Fatalf("expected order.place audit log")
	}

	status, order := a.do(t, "GET", fmt.Sprintf("/api/orders/%v", body["orderId"]), "")
	if status != http.StatusOK {
		t.Fatalf("get order: %d", status)
	}
	items, _ := order["lineItems"].([]any)
	if len(items) != 2 || order["total"] != 44.97 {
		t.Fatalf("unexpected order snapshot: %v", order)
	}
}

func TestPlaceOrder_LegacyFieldNames(t *testing.T) {
	a := newTestApp(t, 100)

	status, body := a.do(t, "POST", "/api/order", `{"items":[{"id":2,"qty":3}]}`)
	if status != http.StatusOK {
		t.Fatalf("want 200, got %d body=%v", status, body)
	}
	if body["total"] != 29.97 {
		t.Fatalf("want 29.97, got %v", body["total"])
	}
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	a := newTestApp(t, 100)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", ``, http.StatusBadRequest, "invalid_request"},
		{"not json", `items=1`, http.StatusBadRequest, "invalid_request"},
		{"items not array", `{"items":{"productId":1}}`, http.StatusBadRequest, "invalid_request"},
		{"empty items", `{"items":[]}`, http.StatusBadRequest, "invalid_request"},
		{"zero quantity", `{"items":[{"productId":1,"quantity":0}]}`, http.StatusBadRequest, "invalid_request"},
		{"fractional quantity", `{"items":[{"productId":1,"quantity":1.5}]}`, http.StatusBadRequest, "invalid_request"},
		{"string quantity", `{"items":[{"productId":1,"quantity":"two"}]}`, http.StatusBadRequest, "invalid_request"},
		{"numeric string quantity", `{"items":[{"productId":1,"quantity":"2"}]}`, http.StatusBadRequest, "invalid_request"},
		{"numeric string product id", `{"items":[{"productId":"1"}]}`, http.StatusBadRequest, "invalid_request"},
		{"huge exponent quantity", `{"items":[{"productId":1,"quantity":1e2000000000}]}`, http.StatusBadRequest, "invalid_request"},
		{"huge exponent product id", `{"items":[{"productId":1e2000000000}]}`, http.StatusBadRequest, "invalid_request"},
		{"missing product", `{"items":[{"productId":999,"quantity":1}]}`, http.StatusNotFound, "product_not_found"},
		{"too many", `{"items":[{"productId":1,"quantity":51}]}`, http.StatusConflict, "insufficient_stock"},
		{"duplicates aggregate", `{"items":[{"productId":1,"quantity":30},{"productId":1,"quantity":21}]}`, http.StatusConflict, "insufficient_stock"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := a.do(t, "POST", "/api/order", tc.body)
			if status != tc.status {
				t.Fatalf("want %d, got %d body=%v", tc.status, status, body)
			}
			if body["code"] != tc.code {
				t.Fatalf("want code %s, got %v", tc.code, body["code"])
			}
		})
	}

	// nothing above may have touched the store
	if got := a.stock(t, 1); got != 50 {
		t.Fatalf("stock changed to %d", got)
	}
	status, list := a.list(t, "/api/orders")
	if status != http.StatusOK || len(list) != 0 {
		t.Fatalf("expected no orders, got %d %v", status, list)
	}
}

func TestPlaceOrder_InsufficientStockDetails(t *testing.T) {
	a := newTestApp(t, 100)

	status, body := a.do(t, "POST", "/api/order", `{"items":[{"productId":1,"quantity":60}]}`)
	if status != http.StatusConflict {
		t.Fatalf("want 409, got %d", status)
	}
	if body["productId"] != 1.0 || body["requested"] != 60.0 || body["available"] != 50.0 {
		t.Fatalf("unexpected details: %v", body)
	}
}

func TestPlaceOrder_ConcurrentRequestsDoNotOversell(t *testing.T) {
	a := newTestApp(t, 1000)
	if _, err := a.db.Exec(`UPDATE products SET stock = 5 WHERE id = 2`); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	codes := map[int]int{}
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/api/order", strings.NewReader(`{"items":[{"productId":2,"quantity":1}]}`))
			req.Header.Set("Content-Type", "application/json")
			status := -1
			if resp, err := a.app.Test(req, -1); err == nil {
				status = resp.StatusCode
			}
			mu.Lock()
			codes[status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if codes[http.StatusOK] != 5 || codes[http.StatusConflict] != 7 {
		t.Fatalf("want 5 OK / 7 conflict, got %v", codes)
	}
	if got := a.stock(t, 2); got != 0 {
		t.Fatalf("want stock 0, got %d", got)
	}
}

func TestOrderRateLimit(t *testing.T) {
	a := newTestApp(t, 3)

	for i := 0; i < 4; i++ {
		status, _ := a.do(t, "POST", "/api/order", `{"items":[{"productId":3}]}`)
		if i < 3 && status == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 3 && status != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", status)
		}
	}
}
