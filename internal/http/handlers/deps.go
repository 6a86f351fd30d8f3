package handlers

import (
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jmoiron/sqlx"

	"shoplocal/internal/repos"
	"shoplocal/internal/services"
	"shoplocal/internal/storage"
)

type Deps struct {
	Shop  *ShopHandler
	Cart  *CartHandler
	Order *OrderHandler
	API   *APIHandler
	Admin *AdminHandler
}

func NewDeps(db *sqlx.DB, sessions *session.Store, blobs storage.BlobStore) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	adminRepo := repos.NewAdminRepo(db)

	stockSvc := services.NewStockService(db, invRepo)
	catalogSvc := services.NewCatalogService(prodRepo)
	cartSvc := services.NewCartService(prodRepo)
	orderSvc := services.NewOrderService(db, orderRepo, prodRepo, stockSvc)
	authSvc := &services.AuthService{Admins: adminRepo}

	return &Deps{
		Shop:  &ShopHandler{Catalog: catalogSvc, Sessions: sessions},
		Cart:  &CartHandler{Cart: cartSvc, Sessions: sessions},
		Order: &OrderHandler{Cart: cartSvc, Order: orderSvc, Orders: orderRepo, Sessions: sessions},
		API:   &APIHandler{Catalog: catalogSvc, Order: orderSvc},
		Admin: &AdminHandler{
			Auth:     authSvc,
			Sessions: sessions,
			Prods:    prodRepo,
			Orders:   orderRepo,
			Ledger:   invRepo,
			Stock:    stockSvc,
			Blobs:    blobs,
		},
	}
}
