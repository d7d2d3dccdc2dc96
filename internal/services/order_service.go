package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const (
	MaxQuantity        = math.MaxInt32
	defaultMaxAttempts = 3
	baseBackoff        = 10 * time.Millisecond
	maxBackoffShift    = 6
)

type OrderService struct {
	db       *sqlx.DB
	Products *repos.ProductRepo
	Inv      *repos.InventoryRepo
	Orders   *repos.OrderRepo

	obs         Observer
	maxAttempts int
	now         func() time.Time

	// SQLite takes one writer at a time; reservations queue here instead of on SQLITE_BUSY.
	writeMu sync.Mutex
}

type OrderOption func(*OrderService)

func WithObserver(o Observer) OrderOption {
	return func(s *OrderService) { s.obs = o }
}

func WithMaxAttempts(n int) OrderOption {
	return func(s *OrderService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(db *sqlx.DB, prods *repos.ProductRepo, inv *repos.InventoryRepo, orders *repos.OrderRepo, opts ...OrderOption) *OrderService {
	s := &OrderService{
		db:          db,
		Products:    prods,
		Inv:         inv,
		Orders:      orders,
		obs:         Observers{},
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder reserves stock for items and appends the order to the ledger as
// one atomic unit. Every error it returns is an *OrderError. Cancelling ctx
// does not interrupt a reservation already in progress.
func (s *OrderService) PlaceOrder(ctx context.Context, items []domain.LineItem) (domain.Receipt, error) {
	start := time.Now()
	s.obs.OrderStarted(len(items))

	rcpt, err := s.placeOrder(context.WithoutCancel(ctx), items)

	outcome := OutcomeOK
	if err != nil {
		outcome = string(KindOf(err))
	}
	s.obs.OrderFinished(outcome, time.Since(start))
	return rcpt, err
}

func (s *OrderService) placeOrder(ctx context.Context, items []domain.LineItem) (domain.Receipt, error) {
	if err := checkItems(items); err != nil {
		return domain.Receipt{}, err
	}
	ids, required := aggregate(items)

	for attempt := 1; ; attempt++ {
		rcpt, err := s.reserve(ctx, items, ids, required)
		if err == nil {
			return rcpt, nil
		}
		var oe *OrderError
		if errors.As(err, &oe) {
			return domain.Receipt{}, oe
		}
		if !retryable(err) {
			return domain.Receipt{}, StorageFailure(err)
		}
		if attempt >= s.maxAttempts {
			return domain.Receipt{}, StorageFailure(fmt.Errorf("gave up after %d attempts: %w", attempt, err))
		}
		backoff(attempt)
	}
}

func (s *OrderService) reserve(ctx context.Context, items []domain.LineItem, ids []int64, required map[int64]int) (domain.Receipt, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var rcpt domain.Receipt
	err := repos.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		prods := s.Products.WithTx(tx)
		inv := s.Inv.WithTx(tx)
		orders := s.Orders.WithTx(tx)

		catalog := make(map[int64]domain.Product, len(ids))
		for _, id := range ids {
			p, err := prods.Get(ctx, id)
			if errors.Is(err, repos.ErrNotFound) {
				return ProductNotFound(id)
			}
			if err != nil {
				return fmt.Errorf("load product %d: %w", id, err)
			}
			catalog[id] = p
		}

		// every check runs before the first write
		for _, id := range ids {
			if need, have := required[id], catalog[id].Stock; need > have {
				return InsufficientStock(id, need, have)
			}
		}

		total := decimal.Zero
		for _, it := range items {
			total = total.Add(catalog[it.ProductID].UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		for _, id := range ids {
			if err := inv.Decrement(ctx, id, required[id]); err != nil {
				return fmt.Errorf("decrement product %d: %w", id, err)
			}
		}

		orderID, err := orders.Append(ctx, domain.LineItems(items), total, s.now())
		if err != nil {
			return fmt.Errorf("append order: %w", err)
		}
		rcpt = domain.Receipt{OrderID: orderID, Total: total}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return rcpt, nil
}

func checkItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return InvalidRequest("items required")
	}
	for i, it := range items {
		if it.ProductID <= 0 {
			return InvalidRequest("item %d: productId required", i)
		}
		if it.Quantity <= 0 || it.Quantity > MaxQuantity {
			return InvalidRequest("item %d: quantity must be between 1 and %d", i, MaxQuantity)
		}
	}
	return nil
}

// aggregate sums quantities per product id, keeping first-seen order.
func aggregate(items []domain.LineItem) ([]int64, map[int64]int) {
	ids := make([]int64, 0, len(items))
	required := make(map[int64]int, len(items))
	for _, it := range items {
		if _, seen := required[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		required[it.ProductID] += it.Quantity
	}
	return ids, required
}

func retryable(err error) bool {
	return repos.IsBusy(err) || errors.Is(err, repos.ErrStockConflict)
}

func backoff(attempt int) {
	time.Sleep(backoffDelay(attempt))
}

// backoffDelay doubles from baseBackoff per attempt up to maxBackoffShift
// doublings, plus up to 50% jitter.
func backoffDelay(attempt int) time.Duration {
	shift := min(max(attempt-1, 0), maxBackoffShift)
	exp := baseBackoff << shift
	return exp + time.Duration(rand.Int63n(int64(exp/2)))
}
