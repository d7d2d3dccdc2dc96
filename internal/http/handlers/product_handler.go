package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /
func (h *ProductHandler) Home(c *fiber.Ctx) error {
	prods, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		log.Error(c, "home.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the catalog"})
	}
	return render(c, "index", fiber.Map{"Products": prods})
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	prods, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		return failure(c, "products.list", "could not load products", err)
	}
	out := make([]productJSON, 0, len(prods))
	for _, p := range prods {
		out = append(out, toProductJSON(p))
	}
	return c.JSON(out)
}

// GET /api/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return failure(c, "products.get", "", services.InvalidRequest("product id must be a positive integer"))
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return failure(c, "products.get", "could not load product", err)
	}
	return c.JSON(toProductJSON(p))
}
