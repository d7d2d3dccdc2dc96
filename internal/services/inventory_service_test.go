package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`
	INSERT INTO products(id, name, price, stock) VALUES
	  (1, 'T-Shirt', '19.99', 6),
	  (2, 'Mug', '9.99', 2),
	  (3, 'Sticker Pack', '4.99', 0);
	`)
	require.NoError(t, err)
	return db
}

func TestInventoryService_CheckAvailability(t *testing.T) {
	db := memdb(t)
	svc := services.NewInventoryService(repos.NewInventoryRepo(db))
	ctx := context.Background()

	cases := []struct {
		id     int64
		status string
		qty    int
	}{
		{1, "IN_STOCK", 6},
		{2, "LOW_STOCK", 2},
		{3, "OUT_OF_STOCK", 0},
	}
	for _, tc := range cases {
		a, err := svc.CheckAvailability(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.status, a.Status, "product %d", tc.id)
		assert.Equal(t, tc.qty, a.Qty, "product %d", tc.id)
	}

	_, err := svc.CheckAvailability(ctx, 99)
	assert.Equal(t, services.KindProductNotFound, services.KindOf(err))
}

func TestCatalogService_ProductsAndOrders(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)
	orders := repos.NewOrderRepo(db)
	catalog := services.NewCatalogService(prods, orders)
	engine := services.NewOrderService(db, prods, repos.NewInventoryRepo(db), orders)
	ctx := context.Background()

	list, err := catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "T-Shirt", list[0].Name)
	assert.Equal(t, "19.99", list[0].UnitPrice.StringFixed(2))

	_, err = catalog.GetProduct(ctx, 404)
	assert.Equal(t, services.KindProductNotFound, services.KindOf(err))

	_, err = catalog.GetOrder(ctx, 1)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	for i := 0; i < 3; i++ {
		_, err := engine.PlaceOrder(ctx, []domain.LineItem{{ProductID: 1, Quantity: 1}})
		require.NoError(t, err)
	}

	latest, err := catalog.ListOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Greater(t, latest[0].ID, latest[1].ID)

	o, err := catalog.GetOrder(ctx, latest[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", o.Total.StringFixed(2))

	// stock view after three orders of one unit
	p, err := catalog.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, services.Kind(""), services.KindOf(nil))
	assert.Equal(t, services.KindStorageFailure, services.KindOf(assert.AnError))
	assert.Equal(t, services.KindInsufficientStock, services.KindOf(services.InsufficientStock(1, 2, 1)))
	assert.EqualError(t, services.InsufficientStock(3, 1, 0),
		"insufficient stock for product 3 (requested 1, available 0)")
	assert.EqualError(t, services.ProductNotFound(999), "product 999 not found")
}
