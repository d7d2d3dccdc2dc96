package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type testApp struct {
	app     *fiber.App
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// newTestApp wires the same routes as cmd/storefront over a seeded file database.
func newTestApp(t *testing.T, orderLimit int) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDSN:            filepath.Join(t.TempDir(), "ecom.db"),
		TemplatesDir:     "../../web/templates",
		OrderMaxAttempts: 3,
		OrderRateLimit:   orderLimit,
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	m := metrics.New()
	engine := html.New(cfg.TemplatesDir, ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(m.Middleware())

	deps := handlers.NewDeps(db, cfg, services.Observers{m})
	app.Get("/", deps.ProductHandler.Home)
	api := app.Group("/api")
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/search", deps.SearchHandler.Search)
	api.Post("/order", limiter.New(limiter.Config{Max: cfg.OrderRateLimit, Expiration: time.Minute}), deps.OrderHandler.Place)
	api.Get("/orders", deps.OrderHandler.History)
	api.Get("/orders/:id", deps.OrderHandler.View)
	api.Get("/v1/availability", deps.InventoryHandler.Check)
	app.Get("/metrics", m.Handler())

	return &testApp{app: app, db: db, metrics: m}
}

func (a *testApp) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func (a *testApp) list(t *testing.T, path string) (int, []any) {
	t.Helper()
	resp, err := a.app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	var out []any
	if resp.StatusCode == 200 {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode, out
}

func (a *testApp) stock(t *testing.T, id int64) int {
	t.Helper()
	var qty int
	if err := a.db.Get(&qty, `SELECT stock FROM products WHERE id = ?`, id); err != nil {
		t.Fatalf("stock %d: %v", id, err)
	}
	return qty
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
