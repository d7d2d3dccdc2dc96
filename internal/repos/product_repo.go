package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

// WithTx returns a copy bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT id, name, price, stock
	  FROM products
	  ORDER BY id
	`)
	return out, err
}

// Get returns ErrNotFound when no product has the id.
func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, `
	  SELECT id, name, price, stock
	  FROM products
	  WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	return p, err
}

// Search matches q case-insensitively against product names.
func (r *ProductRepo) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT id, name, price, stock
	  FROM products
	  WHERE LOWER(name) LIKE ? ESCAPE '\'
	  ORDER BY id
	  LIMIT ?
	`, "%"+likeEscaper.Replace(strings.ToLower(q))+"%", limit)
	return out, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
