package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Order   *services.OrderService
	Catalog *services.CatalogService
}

// POST /api/order
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req validate.OrderRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return failure(c, "order.place", "", services.InvalidRequest("body must be {\"items\": [...]}"))
	}
	items, err := validate.LineItems(req.Items)
	if err != nil {
		return failure(c, "order.place", "", services.InvalidRequest("%s", err.Error()))
	}

	rcpt, err := h.Order.PlaceOrder(c.UserContext(), items)
	if err != nil {
		return failure(c, "order.place", "could not place order", err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":   rcpt.OrderID,
		"total":      domain.FormatMoney(rcpt.Total),
		"line_items": len(items),
	})
	return c.JSON(fiber.Map{
		"orderId": rcpt.OrderID,
		"total":   money(rcpt.Total),
	})
}

// GET /api/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, err := h.Catalog.GetOrder(c.UserContext(), id)
	if errors.Is(err, services.ErrOrderNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		return failure(c, "orders.get", "could not load order", err)
	}
	return c.JSON(toOrderJSON(o))
}

// GET /api/orders?limit=
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Catalog.ListOrders(c.UserContext(), validate.Limit(c.Query("limit")))
	if err != nil {
		return failure(c, "orders.history", "could not load orders", err)
	}
	out := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderJSON(o))
	}
	return c.JSON(out)
}
