package repos

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const busyTimeoutMS = 5000

// OpenDB opens the store, applies the schema and seeds the catalog on first start.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects and ensures the schema exists, without seeding.
func Open(dsn string) (*sqlx.DB, error) {
	memory := isMemory(dsn)
	if !memory {
		if err := ensureDataDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open("sqlite", buildDSN(dsn))
	if err != nil {
		return nil, err
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// buildDSN turns a path or file: URI into a DSN carrying the pragmas the order
// engine relies on. Parameters the caller already set are left alone.
func buildDSN(dsn string) string {
	if isMemory(dsn) {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	params := []struct{ key, param string }{
		{"busy_timeout", fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMS)},
		{"journal_mode", "_pragma=journal_mode(WAL)"},
		{"foreign_keys", "_pragma=foreign_keys(1)"},
		{"_txlock", "_txlock=immediate"},
	}
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range params {
		if strings.Contains(dsn, p.key) {
			continue
		}
		b.WriteString(sep)
		b.WriteString(p.param)
		sep = "&"
	}
	return b.String()
}

func ensureDataDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Catalog
CREATE TABLE IF NOT EXISTS products(
  id    INTEGER PRIMARY KEY,
  name  TEXT NOT NULL,
  price TEXT NOT NULL,             -- canonical decimal string, never REAL
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
);

-- Ledger
CREATE TABLE IF NOT EXISTS orders(
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  items      TEXT NOT NULL,        -- JSON line items as submitted
  total      TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TRIGGER IF NOT EXISTS orders_no_update BEFORE UPDATE ON orders
BEGIN
  SELECT RAISE(ABORT, 'orders are append-only');
END;

CREATE TRIGGER IF NOT EXISTS orders_no_delete BEFORE DELETE ON orders
BEGIN
  SELECT RAISE(ABORT, 'orders are append-only');
END;
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO products(name, price, stock) VALUES
	  ('T-Shirt', '19.99', 50),
	  ('Mug', '9.99', 100),
	  ('Sticker Pack', '4.99', 500)`); err != nil {
		return err
	}
	return tx.Commit()
}
