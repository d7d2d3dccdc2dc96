package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/services"
	"storefront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing or invalid productId",
			"code":  services.KindInvalidRequest,
		})
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return failure(c, "availability.check", "could not check availability", err)
	}
	return c.JSON(avail)
}
