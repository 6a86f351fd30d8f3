package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"shoplocal/internal/domain"
	applog "shoplocal/internal/log"
	"shoplocal/internal/services"
	"shoplocal/internal/validate"
)

type CartHandler struct {
	Cart     *services.CartService
	Sessions *session.Store
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	cart := services.CartFromSession(sess)
	lines, total, err := h.Cart.Priced(cart)
	if err != nil {
		applog.Error(c, "cart.view", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "cart", fiber.Map{"Lines": lines, "Total": total})
}

// Add merges a quantity into the session cart. Requests beyond available
// stock are rejected outright.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing product_id")
	}
	qty := validate.Qty(c.FormValue("quantity"))

	sess, err := h.Sessions.Get(c)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	cart := services.CartFromSession(sess)

	if err := h.Cart.Add(cart, productID, qty); err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			return notFoundPage(c, "Product not found")
		case errors.Is(err, domain.ErrInsufficientStock):
			applog.Info(c, "cart.add.insufficient", map[string]any{"product": productID, "qty": qty})
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		default:
			applog.Error(c, "cart.add", err, nil)
			return fiber.ErrInternalServerError
		}
	}
	if err := cart.SaveTo(sess); err != nil {
		return fiber.ErrInternalServerError
	}
	return c.Redirect("/cart")
}

// Update sets a line's quantity; zero or below removes the line.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing product id")
	}
	qty, err := strconv.Atoi(c.FormValue("quantity"))
	if err != nil {
		qty = 1
	}

	sess, serr := h.Sessions.Get(c)
	if serr != nil {
		return fiber.ErrInternalServerError
	}
	cart := services.CartFromSession(sess)
	cart.SetQuantity(productID, qty)
	if err := cart.SaveTo(sess); err != nil {
		return fiber.ErrInternalServerError
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing product id")
	}
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	cart := services.CartFromSession(sess)
	cart.Remove(productID)
	if err := cart.SaveTo(sess); err != nil {
		return fiber.ErrInternalServerError
	}
	return c.Redirect("/cart")
}
