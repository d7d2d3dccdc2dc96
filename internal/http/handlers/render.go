package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		data["RequestID"] = rid
	}
	return c.Render(tmpl, data)
}

// money renders as a bare JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(domain.FormatMoney(d))
}

type productJSON struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Stock int         `json:"stock"`
}

func toProductJSON(p domain.Product) productJSON {
	return productJSON{ID: p.ID, Name: p.Name, Price: money(p.UnitPrice), Stock: p.Stock}
}

type orderJSON struct {
	ID        int64             `json:"id"`
	Items     []domain.LineItem `json:"lineItems"`
	Total     json.Number       `json:"total"`
	CreatedAt string            `json:"createdAt"`
}

func toOrderJSON(o domain.Order) orderJSON {
	items := []domain.LineItem(o.Items)
	if items == nil {
		items = []domain.LineItem{}
	}
	return orderJSON{
		ID:        o.ID,
		Items:     items,
		Total:     money(o.Total),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ErrorHandler logs unexpected errors and answers without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// failure maps the engine's error kinds to transport statuses. msg is what a
// client sees for storage failures; the cause only goes to the log.
func failure(c *fiber.Ctx, action, msg string, err error) error {
	var oe *services.OrderError
	if !errors.As(err, &oe) {
		oe = services.StorageFailure(err)
	}

	switch oe.Kind {
	case services.KindInvalidRequest:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": oe.Reason})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": oe.Error(),
			"code":  oe.Kind,
		})
	case services.KindProductNotFound:
		applog.Info(c, action+".rejected", map[string]any{"code": oe.Kind, "product_id": oe.ProductID})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":     oe.Error(),
			"code":      oe.Kind,
			"productId": oe.ProductID,
		})
	case services.KindInsufficientStock:
		applog.Info(c, action+".rejected", map[string]any{
			"code":       oe.Kind,
			"product_id": oe.ProductID,
			"requested":  oe.Requested,
			"available":  oe.Available,
		})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     oe.Error(),
			"code":      oe.Kind,
			"productId": oe.ProductID,
			"requested": oe.Requested,
			"available": oe.Available,
		})
	default:
		applog.Error(c, action+".fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": msg,
			"code":  services.KindStorageFailure,
		})
	}
}
