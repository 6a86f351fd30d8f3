package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	applog "shoplocal/internal/log"
	"shoplocal/internal/repos"
	"shoplocal/internal/services"
	"shoplocal/internal/validate"
)

type OrderHandler struct {
	Cart     *services.CartService
	Order    *services.OrderService
	Orders   *repos.OrderRepo
	Sessions *session.Store
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	cart := services.CartFromSession(sess)
	if len(cart) == 0 {
		return c.Redirect("/")
	}
	lines, total, err := h.Cart.Priced(cart)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "checkout", fiber.Map{"Lines": lines, "Total": total})
}

// Place commits the session cart as an order. The form flow drops lines
// that can no longer be fulfilled and proceeds with the rest.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	cart := services.CartFromSession(sess)
	if len(cart) == 0 {
		return c.Redirect("/")
	}

	name, ok := validate.Name(c.FormValue("customer_name"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "customer_name"})
		return c.Status(fiber.StatusBadRequest).SendString("please fill all required fields")
	}
	email, ok := validate.Email(c.FormValue("customer_email"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "customer_email"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid email")
	}
	phone, ok := validate.Phone(c.FormValue("customer_phone"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "customer_phone"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid phone number")
	}

	placed, err := h.Order.Place(services.PlaceOrderInput{
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   phone,
		ShippingAddress: c.FormValue("shipping_address"),
		Lines:           cart.Lines(),
	}, services.DropInvalidLines)
	if err != nil {
		applog.Info(c, "order.place.fail", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).
			SendString("Unable to process order. Please check product availability.")
	}

	if err := services.ClearCart(sess); err != nil {
		applog.Error(c, "order.cart.clear", err, map[string]any{"order_id": placed.ID})
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":     placed.ID,
		"order_number": placed.OrderNumber,
		"total":        placed.Total.String(),
	})
	return c.Redirect("/order/" + placed.ID)
}

func (h *OrderHandler) Confirmation(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Order not found")
	}
	o, err := h.Orders.Get(id)
	if err != nil {
		return notFoundPage(c, "Order not found")
	}
	items, err := h.Orders.Items(id)
	if err != nil {
		applog.Error(c, "order.items", err, map[string]any{"order_id": id})
		return fiber.ErrInternalServerError
	}
	return render(c, "order", fiber.Map{"Order": o, "Items": items})
}
