package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// InventoryRepo owns the stock column of products.
type InventoryRepo struct{ db sqlx.ExtContext }

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{db: db} }

func (r *InventoryRepo) WithTx(tx *sqlx.Tx) *InventoryRepo { return &InventoryRepo{db: tx} }

// Qty returns current stock, or ErrNotFound.
func (r *InventoryRepo) Qty(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `SELECT stock FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// Decrement subtracts by units only if that many are still there.
// ErrStockConflict means the row moved under the caller.
func (r *InventoryRepo) Decrement(ctx context.Context, productID int64, by int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`, by, productID, by)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStockConflict
	}
	return nil
}
