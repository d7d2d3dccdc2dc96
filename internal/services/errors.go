package services

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the order engine can return.
type Kind string

const (
	KindInvalidRequest    Kind = "invalid_request"
	KindProductNotFound   Kind = "product_not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindStorageFailure    Kind = "storage_failure"
)

// OrderError is the only error type PlaceOrder returns.
type OrderError struct {
	Kind      Kind
	ProductID int64
	Requested int
	Available int
	Reason    string
	Err       error
}

func (e *OrderError) Error() string {
	switch e.Kind {
	case KindProductNotFound:
		return fmt.Sprintf("product %d not found", e.ProductID)
	case KindInsufficientStock:
		return fmt.Sprintf("insufficient stock for product %d (requested %d, available %d)",
			e.ProductID, e.Requested, e.Available)
	case KindStorageFailure:
		if e.Err != nil {
			return "storage failure: " + e.Err.Error()
		}
		return "storage failure"
	default:
		return "invalid request: " + e.Reason
	}
}

func (e *OrderError) Unwrap() error { return e.Err }

func InvalidRequest(format string, args ...any) *OrderError {
	return &OrderError{Kind: KindInvalidRequest, Reason: fmt.Sprintf(format, args...)}
}

func ProductNotFound(id int64) *OrderError {
	return &OrderError{Kind: KindProductNotFound, ProductID: id}
}

func InsufficientStock(id int64, requested, available int) *OrderError {
	return &OrderError{Kind: KindInsufficientStock, ProductID: id, Requested: requested, Available: available}
}

func StorageFailure(err error) *OrderError {
	return &OrderError{Kind: KindStorageFailure, Err: err}
}

// KindOf maps nil to "" and any unclassified error to KindStorageFailure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindStorageFailure
}
