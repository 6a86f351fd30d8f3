package handlers

import (
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"shoplocal/internal/domain"
	applog "shoplocal/internal/log"
	"shoplocal/internal/repos"
	"shoplocal/internal/services"
	"shoplocal/internal/storage"
	"shoplocal/internal/validate"
)

const placeholderImage = "https://via.placeholder.com/400x400?text=Product"

type AdminHandler struct {
	Auth     *services.AuthService
	Sessions *session.Store
	Prods    *repos.ProductRepo
	Orders   *repos.OrderRepo
	Ledger   *repos.InventoryRepo
	Stock    *services.StockService
	Blobs    storage.BlobStore
}

// ---------- Auth ----------

func (h *AdminHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "admin_login", fiber.Map{"Err": ""})
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	a, err := h.Auth.Login(username, password)
	if err != nil {
		applog.Security(c, "admin.login.fail", map[string]any{"username": username})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "admin_login", fiber.Map{"Err": "Invalid username or password"})
	}

	sess, err := h.Sessions.Get(c)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	sess.Set("admin_id", a.ID)
	sess.Set("admin_username", a.Username)
	if err := sess.Save(); err != nil {
		return fiber.ErrInternalServerError
	}
	applog.Audit(c, "admin.login", map[string]any{"username": a.Username})
	return c.Redirect("/admin")
}

func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if sess, err := h.Sessions.Get(c); err == nil {
		sess.Delete("admin_id")
		sess.Delete("admin_username")
		_ = sess.Save()
	}
	applog.Audit(c, "admin.logout", nil)
	return c.Redirect("/admin/login")
}

// ---------- Dashboard ----------

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	totalProducts, err := h.Prods.CountActive()
	if err != nil {
		applog.Error(c, "admin.dashboard", err, nil)
		return fiber.ErrInternalServerError
	}
	// The remaining stats degrade to zero values but never silently.
	lowStockCount, err := h.Prods.CountLowStock()
	if err != nil {
		applog.Error(c, "admin.dashboard.lowstock", err, nil)
	}
	totalOrders, err := h.Orders.CountPlaced()
	if err != nil {
		applog.Error(c, "admin.dashboard.orders", err, nil)
	}
	revenue, err := h.Orders.PaidRevenue()
	if err != nil {
		applog.Error(c, "admin.dashboard.revenue", err, nil)
	}
	recent, err := h.Orders.ListLatest(10)
	if err != nil {
		applog.Error(c, "admin.dashboard.recent", err, nil)
	}
	lowStock, err := h.Prods.LowStock(10)
	if err != nil {
		applog.Error(c, "admin.dashboard.lowstockrows", err, nil)
	}

	return render(c, "admin_dashboard", fiber.Map{
		"TotalProducts":    totalProducts,
		"LowStockCount":    lowStockCount,
		"TotalOrders":      totalOrders,
		"TotalRevenue":     revenue,
		"RecentOrders":     recent,
		"LowStockProducts": lowStock,
	})
}

// ---------- Products ----------

func (h *AdminHandler) Products(c *fiber.Ctx) error {
	products, err := h.Prods.ListAll()
	if err != nil {
		applog.Error(c, "admin.products.list", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "admin_products", fiber.Map{"Products": products})
}

func (h *AdminHandler) AddProductForm(c *fiber.Ctx) error {
	return render(c, "admin_product_form", fiber.Map{"Product": nil})
}

func (h *AdminHandler) AddProduct(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid name")
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid price")
	}
	stock, ok := validate.Stock(c.FormValue("stock"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid stock")
	}
	category, ok := validate.Name(c.FormValue("category"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid category")
	}

	imageURL := placeholderImage
	if url, err := h.storeUpload(c); err != nil {
		applog.Error(c, "admin.product.upload", err, nil)
	} else if url != "" {
		imageURL = url
	}

	p := domain.Product{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       c.FormValue("description"),
		Price:             price,
		Category:          category,
		ImageURL:          imageURL,
		Status:            domain.StatusActive,
		LowStockThreshold: validate.Threshold(c.FormValue("low_stock_threshold")),
	}
	if err := h.Prods.Create(p); err != nil {
		applog.Error(c, "admin.product.create", err, nil)
		return fiber.ErrInternalServerError
	}

	// Initial stock goes through the mutator so the ledger records it.
	if stock > 0 {
		if err := h.Stock.Adjust(services.StockAdjustment{
			ProductID:      p.ID,
			QuantityChange: stock,
			ChangeType:     domain.ChangeStockIn,
			Notes:          "Initial stock",
			ActorID:        actorID(c),
		}); err != nil {
			applog.Error(c, "admin.product.stock", err, map[string]any{"product": p.ID})
			return fiber.ErrInternalServerError
		}
	}

	applog.Audit(c, "admin.product.add", map[string]any{"product": p.ID, "stock": stock})
	return c.Redirect("/admin/products")
}

func (h *AdminHandler) EditProductForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Product not found")
	}
	p, err := h.Prods.Get(id)
	if err != nil {
		return notFoundPage(c, "Product not found")
	}
	return render(c, "admin_product_form", fiber.Map{"Product": p})
}

func (h *AdminHandler) EditProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Product not found")
	}
	current, err := h.Prods.Get(id)
	if err != nil {
		return notFoundPage(c, "Product not found")
	}

	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid name")
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid price")
	}
	newStock, ok := validate.Stock(c.FormValue("stock"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid stock")
	}
	category, ok := validate.Name(c.FormValue("category"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid category")
	}
	// Manual status override is allowed and may desync status from stock
	// (e.g. discontinuing a product that still has units). A later stock
	// change through the mutator can flip it back on a zero crossing.
	status := strings.TrimSpace(c.FormValue("status"))
	if status == "" {
		status = current.Status
	}

	imageURL := current.ImageURL
	if url, err := h.storeUpload(c); err != nil {
		applog.Error(c, "admin.product.upload", err, nil)
	} else if url != "" {
		imageURL = url
	}

	updated := current
	updated.Name = name
	updated.Description = c.FormValue("description")
	updated.Price = price
	updated.Category = category
	updated.ImageURL = imageURL
	updated.Status = status
	updated.LowStockThreshold = validate.Threshold(c.FormValue("low_stock_threshold"))
	if err := h.Prods.Update(updated); err != nil {
		applog.Error(c, "admin.product.update", err, map[string]any{"product": id})
		return fiber.ErrInternalServerError
	}

	if delta := newStock - current.Stock; delta != 0 {
		if err := h.Stock.Adjust(services.StockAdjustment{
			ProductID:      id,
			QuantityChange: delta,
			ChangeType:     domain.ChangeAdjustment,
			Notes:          "Manual adjustment",
			ActorID:        actorID(c),
		}); err != nil {
			applog.Error(c, "admin.product.stock", err, map[string]any{"product": id, "delta": delta})
			return c.Status(fiber.StatusBadRequest).SendString("could not adjust stock")
		}
	}

	applog.Audit(c, "admin.product.edit", map[string]any{"product": id})
	return c.Redirect("/admin/products")
}

// ---------- Orders ----------

func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.list", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "admin_orders", fiber.Map{"Orders": orders})
}

func (h *AdminHandler) OrderDetail(c *fiber.Ctx) error {
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
		applog.Error(c, "admin.order.items", err, map[string]any{"order_id": id})
		return fiber.ErrInternalServerError
	}
	return render(c, "admin_order_detail", fiber.Map{"Order": o, "Items": items})
}

// ---------- Inventory audit ----------

func (h *AdminHandler) InventoryLog(c *fiber.Ctx) error {
	rows, err := h.Ledger.List(100)
	if err != nil {
		applog.Error(c, "admin.inventory.list", err, nil)
		return fiber.ErrInternalServerError
	}
	return render(c, "admin_inventory", fiber.Map{"Rows": rows})
}

// ---------- Helpers ----------

func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals("admin_id").(string)
	return id
}

var allowedImageExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// storeUpload saves an optional "image" form file through the blob store
// and returns its public URL, or "" when no acceptable file was sent.
func (h *AdminHandler) storeUpload(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Filename == "" {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return "", nil
	}
	data, err := readAll(fh)
	if err != nil {
		return "", err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := uuid.NewString() + ext
	return h.Blobs.Store(c.Context(), data, contentType, key)
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
