package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	MaxLineItems = 100

	maxNumberLen = 32
	maxExponent  = 32
)

var (
	ErrNoItems      = errors.New("items required")
	ErrTooManyItems = fmt.Errorf("at most %d items per order", MaxLineItems)
	maxQty          = decimal.NewFromInt(math.MaxInt32)
	maxID           = decimal.NewFromInt(math.MaxInt64)
	reQ             = regexp.MustCompile(`^[\p{L}\p{N} \-]+$`)
)

// RawItem is a line item as it arrives on the wire. The id/qty spellings are
// accepted for older storefront clients. Fields stay raw so a quoted "2" can be
// told apart from the number 2.
type RawItem struct {
	ProductID json.RawMessage `json:"productId"`
	Quantity  json.RawMessage `json:"quantity"`
	ID        json.RawMessage `json:"id"`
	Qty       json.RawMessage `json:"qty"`
}

// OrderRequest is the POST /api/order body.
type OrderRequest struct {
	Items []RawItem `json:"items"`
}

// LineItems turns raw items into typed ones. Quantity defaults to 1.
func LineItems(raw []RawItem) ([]domain.LineItem, error) {
	if len(raw) == 0 {
		return nil, ErrNoItems
	}
	if len(raw) > MaxLineItems {
		return nil, ErrTooManyItems
	}
	out := make([]domain.LineItem, 0, len(raw))
	for i, r := range raw {
		idNum := pick(r.ProductID, r.ID)
		if idNum == nil {
			return nil, fmt.Errorf("item %d: productId required", i)
		}
		id, ok := positiveInt(idNum, maxID)
		if !ok {
			return nil, fmt.Errorf("item %d: productId must be a positive integer", i)
		}

		qty := int64(1)
		if qtyNum := pick(r.Quantity, r.Qty); qtyNum != nil {
			if qty, ok = positiveInt(qtyNum, maxQty); !ok {
				return nil, fmt.Errorf("item %d: quantity must be a positive integer", i)
			}
		}
		out = append(out, domain.LineItem{ProductID: id, Quantity: int(qty)})
	}
	return out, nil
}

// pick returns the first field that is present and not null.
func pick(fields ...json.RawMessage) json.RawMessage {
	for _, f := range fields {
		if v := bytes.TrimSpace(f); len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			return v
		}
	}
	return nil
}

// positiveInt accepts JSON numbers that are integral and in 1..limit, including
// forms like 2.0 or 1e2. Strings, booleans and containers are rejected. Length
// and exponent are bounded before any arithmetic touches the value.
func positiveInt(raw json.RawMessage, limit decimal.Decimal) (int64, bool) {
	if len(raw) == 0 || len(raw) > maxNumberLen || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return 0, false
	}
	if e := d.Exponent(); e > maxExponent || e < -maxExponent {
		return 0, false
	}
	if !d.IsInteger() || !d.IsPositive() || d.GreaterThan(limit) {
		return 0, false
	}
	return d.IntPart(), true
}

// ID validates a positive integer path parameter.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// Limit parses an optional page size; empty or malformed input yields 0.
func Limit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
