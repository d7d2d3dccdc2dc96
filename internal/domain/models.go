package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	UnitPrice decimal.Decimal `db:"price"`
	Stock     int             `db:"stock"`
}

// LineItem is one (product, quantity) pair as submitted by the caller.
type LineItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// LineItems is stored verbatim as a JSON array in orders.items.
type LineItems []LineItem

func (li LineItems) Value() (driver.Value, error) {
	if li == nil {
		li = LineItems{}
	}
	b, err := json.Marshal([]LineItem(li))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (li *LineItems) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	case nil:
		*li = nil
		return nil
	default:
		return errors.New("line items: unsupported column type")
	}
	return json.Unmarshal(b, (*[]LineItem)(li))
}

// Order is the frozen ledger snapshot; it never changes after commit.
type Order struct {
	ID        int64
	Items     LineItems
	Total     decimal.Decimal
	CreatedAt time.Time
}

type Receipt struct {
	OrderID int64
	Total   decimal.Decimal
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

// FormatMoney renders at least two fraction digits without ever rounding.
func FormatMoney(d decimal.Decimal) string {
	if !d.Equal(d.Round(2)) {
		return d.String()
	}
	return d.StringFixed(2)
}
