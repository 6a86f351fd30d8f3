package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"shoplocal/internal/http/handlers"
	"shoplocal/internal/repos"
	"shoplocal/internal/storage"
)

// newAPIApp wires only the JSON routes against a seeded in-memory DB.
func newAPIApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	// in-memory sqlite is per-connection; keep everything on one
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	sessions := session.New()
	deps := handlers.NewDeps(db, sessions, &storage.LocalStore{Dir: t.TempDir()})

	app := fiber.New()
	app.Get("/api/products", deps.API.Products)
	app.Get("/api/product/:id", deps.API.Product)
	app.Get("/api/categories", deps.API.Categories)
	app.Post("/api/order", deps.API.CreateOrder)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func stockOf(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT stock FROM products WHERE id = ?`, id))
	return n
}

func TestAPIProducts_ListsOnlyActive(t *testing.T) {
	app, _ := newAPIApp(t)

	status, body := doJSON(t, app, "GET", "/api/products", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, true, body["success"])

	products := body["products"].([]any)
	require.NotEmpty(t, products)
	for _, raw := range products {
		p := raw.(map[string]any)
		require.Equal(t, "active", p["status"])
		require.NotEqual(t, "soap-001", p["id"], "out_of_stock product must be hidden")
	}
}

func TestAPIProducts_CategoryFilter(t *testing.T) {
	app, _ := newAPIApp(t)

	status, body := doJSON(t, app, "GET", "/api/products?category=Kitchen", nil)
	require.Equal(t, fiber.StatusOK, status)
	products := body["products"].([]any)
	require.Len(t, products, 1)
	require.Equal(t, "mug-001", products[0].(map[string]any)["id"])
}

func TestAPIProduct_DetailWithRecommendations(t *testing.T) {
	app, _ := newAPIApp(t)

	status, body := doJSON(t, app, "GET", "/api/product/mug-001", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, true, body["success"])
	p := body["product"].(map[string]any)
	require.Equal(t, "Ceramic Mug", p["name"])
	require.Equal(t, 249.00, p["price"])

	recs := body["recommendations"].([]any)
	require.NotEmpty(t, recs)
	// best-scored first
	require.Equal(t, "tea-001", recs[0].(map[string]any)["id"])
}

func TestAPIProduct_NotFound(t *testing.T) {
	app, _ := newAPIApp(t)

	status, body := doJSON(t, app, "GET", "/api/product/nope-999", nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Product not found", body["error"])
}

func TestAPICategories(t *testing.T) {
	app, _ := newAPIApp(t)

	status, body := doJSON(t, app, "GET", "/api/categories", nil)
	require.Equal(t, fiber.StatusOK, status)
	cats := body["categories"].([]any)
	require.Contains(t, cats, "Kitchen")
	require.NotContains(t, cats, "Bath", "category of a hidden product must not appear")
}

func TestAPICreateOrder_HappyPath(t *testing.T) {
	app, db := newAPIApp(t)

	status, body := doJSON(t, app, "POST", "/api/order", map[string]any{
		"customer_name":  "Asha Rao",
		"customer_email": "asha@example.com",
		"customer_phone": "9876543210",
		"items": []map[string]any{
			{"product_id": "mug-001", "quantity": 2},
		},
	})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, true, body["success"])
	require.True(t, strings.HasPrefix(body["order_number"].(string), "SL-"))
	require.Equal(t, 498.00, body["total"])
	require.Equal(t, 38, stockOf(t, db, "mug-001"))
}

func TestAPICreateOrder_DuplicateProductLines(t *testing.T) {
	app, db := newAPIApp(t)

	status, body := doJSON(t, app, "POST", "/api/order", map[string]any{
		"customer_name":  "Asha Rao",
		"customer_email": "asha@example.com",
		"customer_phone": "9876543210",
		"items": []map[string]any{
			{"product_id": "mug-001", "quantity": 2},
			{"product_id": "mug-001", "quantity": 3},
		},
	})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, true, body["success"])
	require.Equal(t, 35, stockOf(t, db, "mug-001"))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM order_items`))
	require.Equal(t, 1, n, "duplicate lines collapse into one item row")
}

func TestAPICreateOrder_EmptyItems(t *testing.T) {
	app, _ := newAPIApp(t)

	status, body := doJSON(t, app, "POST", "/api/order", map[string]any{
		"customer_name":  "Asha Rao",
		"customer_email": "asha@example.com",
		"customer_phone": "9876543210",
		"items":          []map[string]any{},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "No items in order", body["error"])
}

func TestAPICreateOrder_MissingFields(t *testing.T) {
	app, db := newAPIApp(t)

	status, body := doJSON(t, app, "POST", "/api/order", map[string]any{
		"customer_name": "Asha Rao",
		"items": []map[string]any{
			{"product_id": "mug-001", "quantity": 1},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "Missing required fields", body["error"])
	require.Equal(t, 40, stockOf(t, db, "mug-001"))
}

func TestAPICreateOrder_RejectsWholeOrderOnBadLine(t *testing.T) {
	app, db := newAPIApp(t)

	status, body := doJSON(t, app, "POST", "/api/order", map[string]any{
		"customer_name":  "Asha Rao",
		"customer_email": "asha@example.com",
		"customer_phone": "9876543210",
		"items": []map[string]any{
			{"product_id": "mug-001", "quantity": 2},
			{"product_id": "tea-001", "quantity": 9999},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, false, body["success"])

	// nothing persisted for either line
	require.Equal(t, 40, stockOf(t, db, "mug-001"))
	require.Equal(t, 25, stockOf(t, db, "tea-001"))
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders`))
	require.Equal(t, 0, n)
}
