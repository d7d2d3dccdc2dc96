package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

type orderRow struct {
	ID        int64            `db:"id"`
	Items     domain.LineItems `db:"items"`
	Total     decimal.Decimal  `db:"total"`
	CreatedAt string           `db:"created_at"`
}

func (o orderRow) toDomain() (domain.Order, error) {
	at, err := time.Parse(time.RFC3339Nano, o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{ID: o.ID, Items: o.Items, Total: o.Total, CreatedAt: at}, nil
}

// Append writes one ledger row and returns its id.
func (r *OrderRepo) Append(ctx context.Context, items domain.LineItems, total decimal.Decimal, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders(items, total, created_at)
	  VALUES (?, ?, ?)
	`, items, total, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, r.db, &row, `
		SELECT id, items, total, created_at
		FROM orders
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	return row.toDomain()
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT id, items, total, created_at
		FROM orders
		ORDER BY id DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// CountByProduct counts ledger rows whose line items reference productID.
func (r *OrderRepo) CountByProduct(ctx context.Context, productID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*)
		FROM orders o
		WHERE EXISTS (
		  SELECT 1 FROM json_each(o.items) j
		  WHERE json_extract(j.value, '$.productId') = ?
		)
	`, productID)
	return n, err
}
