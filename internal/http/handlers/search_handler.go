package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// GET /api/search?q=
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return c.JSON([]productJSON{})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "enter a valid keyword (letters, numbers, spaces)",
			"code":  services.KindInvalidRequest,
		})
	}

	products, err := h.Catalog.SearchProducts(c.UserContext(), q)
	if err != nil {
		return failure(c, "search", "could not load results", err)
	}
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, toProductJSON(p))
	}
	return c.JSON(out)
}
