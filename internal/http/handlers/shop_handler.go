package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	applog "shoplocal/internal/log"
	"shoplocal/internal/services"
	"shoplocal/internal/validate"
)

type ShopHandler struct {
	Catalog  *services.CatalogService
	Sessions *session.Store
}

// Home lists active products, optionally filtered by ?category=.
func (h *ShopHandler) Home(c *fiber.Ctx) error {
	category := c.Query("category")
	products, err := h.Catalog.ListProducts(category)
	if err != nil {
		applog.Error(c, "home.list", err, nil)
		return fiber.ErrInternalServerError
	}
	cats, err := h.Catalog.Categories()
	if err != nil {
		applog.Error(c, "home.categories", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "home", fiber.Map{
		"Products":        products,
		"Categories":      cats,
		"CurrentCategory": category,
	})
}

// ProductDetail shows one product with its recommendations and counts the
// view.
func (h *ShopHandler) ProductDetail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFoundPage(c, "Product not found")
	}

	var sid string
	if sess, err := h.Sessions.Get(c); err == nil {
		sid = sess.ID()
		if sess.Fresh() {
			_ = sess.Save()
		}
	}

	p, recs, err := h.Catalog.ProductDetail(id, sid, c.IP())
	if err != nil {
		return notFoundPage(c, "Product not found")
	}
	return render(c, "product", fiber.Map{"P": p, "Recommendations": recs})
}
