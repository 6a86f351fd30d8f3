package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	html "github.com/gofiber/template/html/v2"

	"shoplocal/internal/config"
	"shoplocal/internal/http/handlers"
	applog "shoplocal/internal/log"
	"shoplocal/internal/repos"
	"shoplocal/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Visitor/admin sessions: in-memory key-value store, TTL-bounded.
	sessions := session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:sid",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	// Image uploads go to S3 when a bucket is configured, local media
	// directory otherwise.
	var blobs storage.BlobStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			log.Fatalf("s3 storage: %v", err)
		}
		blobs = s3Store
		log.Printf("[storage] uploads -> s3://%s", cfg.S3Bucket)
	} else {
		blobs = &storage.LocalStore{Dir: cfg.MediaDir}
		log.Printf("[storage] uploads -> %s", cfg.MediaDir)
	}

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 8 << 20 // uploads capped at 8 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		// The JSON API serves the mobile client; it carries no form token.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{
				"Message": "Security check failed. Please refresh and try again.",
			})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		lower := strings.ToLower(path)
		if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, sessions, blobs)

	// Storefront
	app.Get("/", deps.Shop.Home)
	app.Get("/product/:id", deps.Shop.ProductDetail)
	app.Get("/cart", deps.Cart.View)
	app.Post("/cart", deps.Cart.Add)
	app.Post("/cart/update/:id", deps.Cart.Update)
	app.Post("/cart/remove/:id", deps.Cart.Remove)
	app.Get("/checkout", deps.Order.Checkout)
	app.Post("/place-order", deps.Order.Place)
	app.Get("/order/:id", deps.Order.Confirmation)

	// JSON API for the mobile client
	api := app.Group("/api")
	api.Get("/products", deps.API.Products)
	api.Get("/product/:id", deps.API.Product)
	api.Get("/categories", deps.API.Categories)
	api.Post("/order", deps.API.CreateOrder)

	// Admin login is outside the guarded group (throttled)
	app.Get("/admin/login", deps.Admin.LoginForm)
	app.Post("/admin/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.admin.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("admin_login", fiber.Map{
				"Err": "Too many attempts. Please try again later.",
			})
		},
	}), deps.Admin.Login)
	app.Get("/admin/logout", deps.Admin.Logout)

	admin := app.Group("/admin", handlers.RequireAdmin(sessions))
	admin.Get("/", deps.Admin.Dashboard)
	admin.Get("/products", deps.Admin.Products)
	admin.Get("/product/add", deps.Admin.AddProductForm)
	admin.Post("/product/add", deps.Admin.AddProduct)
	admin.Get("/product/edit/:id", deps.Admin.EditProductForm)
	admin.Post("/product/edit/:id", deps.Admin.EditProduct)
	admin.Get("/orders", deps.Admin.OrdersPage)
	admin.Get("/order/:id", deps.Admin.OrderDetail)
	admin.Get("/inventory", deps.Admin.InventoryLog)

	// Health & 404
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "unhealthy", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "healthy", "database": "connected"})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
