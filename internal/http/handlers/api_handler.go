package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shoplocal/internal/domain"
	applog "shoplocal/internal/log"
	"shoplocal/internal/services"
	"shoplocal/internal/validate"
)

// APIHandler mirrors the storefront flows as JSON for the mobile client.
type APIHandler struct {
	Catalog *services.CatalogService
	Order   *services.OrderService
}

// Money crosses the API boundary as plain JSON numbers.
type productJSON struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	Category          string  `json:"category"`
	ImageURL          string  `json:"image_url"`
	Status            string  `json:"status"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	Views             int     `json:"views"`
	Purchases         int     `json:"purchases"`
}

func toProductJSON(p domain.Product) productJSON {
	return productJSON{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price.InexactFloat64(),
		Stock:             p.Stock,
		Category:          p.Category,
		ImageURL:          p.ImageURL,
		Status:            p.Status,
		LowStockThreshold: p.LowStockThreshold,
		Views:             p.Views,
		Purchases:         p.Purchases,
	}
}

func toProductsJSON(ps []domain.Product) []productJSON {
	out := make([]productJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductJSON(p))
	}
	return out
}

// GET /api/products[?category=]
func (h *APIHandler) Products(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(c.Query("category"))
	if err != nil {
		applog.Error(c, "api.products", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal error"})
	}
	return c.JSON(fiber.Map{"success": true, "products": toProductsJSON(products)})
}

// GET /api/product/:id
func (h *APIHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Product not found"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Product not found"})
	}
	recs, err := h.Catalog.Recommendations(id)
	if err != nil {
		recs = nil
	}
	return c.JSON(fiber.Map{
		"success":         true,
		"product":         toProductJSON(p),
		"recommendations": toProductsJSON(recs),
	})
}

// GET /api/categories
func (h *APIHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories()
	if err != nil {
		applog.Error(c, "api.categories", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal error"})
	}
	return c.JSON(fiber.Map{"success": true, "categories": cats})
}

type apiOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type apiOrderRequest struct {
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   string         `json:"customer_phone"`
	ShippingAddress string         `json:"shipping_address"`
	Items           []apiOrderItem `json:"items"`
}

// POST /api/order — the API mode is all-or-nothing: any unsatisfiable line
// rejects the whole order.
func (h *APIHandler) CreateOrder(c *fiber.Ctx) error {
	var req apiOrderRequest
	if err := c.BodyParser(&req); err != nil || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "No items in order"})
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, services.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	placed, err := h.Order.Place(services.PlaceOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Lines:           lines,
	}, services.RejectAllOnInvalid)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Missing required fields"})
		case errors.Is(err, domain.ErrEmptyOrder),
			errors.Is(err, domain.ErrProductNotFound),
			errors.Is(err, domain.ErrInsufficientStock):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
		default:
			applog.Error(c, "api.order", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal error"})
		}
	}

	applog.Audit(c, "api.order.place", map[string]any{
		"order_id":     placed.ID,
		"order_number": placed.OrderNumber,
	})
	return c.JSON(fiber.Map{
		"success":      true,
		"order_id":     placed.ID,
		"order_number": placed.OrderNumber,
		"total":        placed.Total.InexactFloat64(),
	})
}
