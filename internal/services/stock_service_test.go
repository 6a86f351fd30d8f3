package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shoplocal/internal/domain"
	"shoplocal/internal/repos"
	"shoplocal/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// in-memory sqlite is per-connection; keep everything on one
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema := `
	CREATE TABLE products(
	  id TEXT PRIMARY KEY,
	  name TEXT NOT NULL,
	  description TEXT NOT NULL DEFAULT '',
	  price NUMERIC NOT NULL,
	  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	  category TEXT NOT NULL,
	  image_url TEXT NOT NULL DEFAULT '',
	  status TEXT NOT NULL DEFAULT 'active',
	  low_stock_threshold INTEGER NOT NULL DEFAULT 10,
	  views INTEGER NOT NULL DEFAULT 0,
	  purchases INTEGER NOT NULL DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE orders(
	  id TEXT PRIMARY KEY,
	  order_number TEXT NOT NULL UNIQUE,
	  customer_name TEXT NOT NULL,
	  customer_email TEXT NOT NULL,
	  customer_phone TEXT NOT NULL,
	  shipping_address TEXT NOT NULL DEFAULT '',
	  total_amount NUMERIC NOT NULL,
	  status TEXT NOT NULL DEFAULT 'confirmed',
	  payment_status TEXT NOT NULL DEFAULT 'paid',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE order_items(
	  order_id TEXT NOT NULL,
	  product_id TEXT NOT NULL,
	  product_name TEXT NOT NULL,
	  quantity INTEGER NOT NULL,
	  price NUMERIC NOT NULL,
	  subtotal NUMERIC NOT NULL,
	  PRIMARY KEY (order_id, product_id)
	);
	CREATE TABLE inventory_log(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  product_id TEXT NOT NULL,
	  change_type TEXT NOT NULL,
	  quantity_change INTEGER NOT NULL,
	  previous_stock INTEGER NOT NULL,
	  new_stock INTEGER NOT NULL,
	  reference_type TEXT,
	  reference_id TEXT,
	  notes TEXT,
	  created_by TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE product_views(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  product_id TEXT NOT NULL,
	  session_id TEXT,
	  ip_address TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE product_recommendations(
	  product_id TEXT NOT NULL,
	  recommended_product_id TEXT NOT NULL,
	  score REAL NOT NULL DEFAULT 0,
	  PRIMARY KEY (product_id, recommended_product_id)
	);
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func addProduct(t *testing.T, db *sqlx.DB, id string, price string, stock int, status string) {
	t.Helper()
	_, err := db.Exec(`
	  INSERT INTO products(id, name, description, price, stock, category, status)
	  VALUES (?, ?, '', ?, ?, 'Test', ?)
	`, id, "Product "+id, price, stock, status)
	require.NoError(t, err)
}

type productState struct {
	Stock  int    `db:"stock"`
	Status string `db:"status"`
}

func getState(t *testing.T, db *sqlx.DB, id string) productState {
	t.Helper()
	var s productState
	require.NoError(t, db.Get(&s, `SELECT stock, status FROM products WHERE id = ?`, id))
	return s
}

func ledgerCount(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM inventory_log WHERE product_id = ?`, id))
	return n
}

func TestStockAdjust_AppendsLedgerSnapshot(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "p1", "100", 10, domain.StatusActive)

	svc := services.NewStockService(db, repos.NewInventoryRepo(db))
	err := svc.Adjust(services.StockAdjustment{
		ProductID:      "p1",
		QuantityChange: 5,
		ChangeType:     domain.ChangeStockIn,
		Notes:          "restock",
		ActorID:        "adm-root",
	})
	require.NoError(t, err)

	require.Equal(t, 15, getState(t, db, "p1").Stock)

	var e domain.InventoryLogEntry
	require.NoError(t, db.Get(&e, `
	  SELECT product_id, change_type, quantity_change, previous_stock, new_stock,
	         COALESCE(notes,'') AS notes, COALESCE(created_by,'') AS created_by
	  FROM inventory_log WHERE product_id = 'p1'
	`))
	require.Equal(t, domain.ChangeStockIn, e.ChangeType)
	require.Equal(t, 5, e.QuantityChange)
	require.Equal(t, 10, e.PreviousStock)
	require.Equal(t, 15, e.NewStock)
	require.Equal(t, "restock", e.Notes)
	require.Equal(t, "adm-root", e.CreatedBy)
}

func TestStockAdjust_NegativeResultIsNoOp(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "p1", "100", 3, domain.StatusActive)

	svc := services.NewStockService(db, repos.NewInventoryRepo(db))
	err := svc.Adjust(services.StockAdjustment{
		ProductID:      "p1",
		QuantityChange: -4,
		ChangeType:     domain.ChangeStockOut,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// nothing changed, nothing ledgered
	s := getState(t, db, "p1")
	require.Equal(t, 3, s.Stock)
	require.Equal(t, domain.StatusActive, s.Status)
	require.Equal(t, 0, ledgerCount(t, db, "p1"))
}

func TestStockAdjust_UnknownProduct(t *testing.T) {
	db := memdb(t)

	svc := services.NewStockService(db, repos.NewInventoryRepo(db))
	err := svc.Adjust(services.StockAdjustment{
		ProductID:      "ghost",
		QuantityChange: 1,
		ChangeType:     domain.ChangeStockIn,
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestStockAdjust_StatusFollowsZeroCrossings(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "p1", "50", 2, domain.StatusActive)
	svc := services.NewStockService(db, repos.NewInventoryRepo(db))

	// down to zero flips active -> out_of_stock
	require.NoError(t, svc.Adjust(services.StockAdjustment{
		ProductID: "p1", QuantityChange: -2, ChangeType: domain.ChangeSale,
	}))
	require.Equal(t, domain.StatusOutOfStock, getState(t, db, "p1").Status)

	// back above zero flips out_of_stock -> active
	require.NoError(t, svc.Adjust(services.StockAdjustment{
		ProductID: "p1", QuantityChange: 7, ChangeType: domain.ChangeStockIn,
	}))
	s := getState(t, db, "p1")
	require.Equal(t, 7, s.Stock)
	require.Equal(t, domain.StatusActive, s.Status)
}

func TestStockAdjust_PositiveToPositiveKeepsStatus(t *testing.T) {
	db := memdb(t)
	// admin pulled the product while units remain
	addProduct(t, db, "p1", "50", 8, domain.StatusOutOfStock)
	svc := services.NewStockService(db, repos.NewInventoryRepo(db))

	require.NoError(t, svc.Adjust(services.StockAdjustment{
		ProductID: "p1", QuantityChange: -3, ChangeType: domain.ChangeAdjustment,
	}))
	s := getState(t, db, "p1")
	require.Equal(t, 5, s.Stock)
	require.Equal(t, domain.StatusOutOfStock, s.Status)
}

func TestStockAdjust_ExactDepletionLedgersOnce(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "p1", "50", 5, domain.StatusActive)
	svc := services.NewStockService(db, repos.NewInventoryRepo(db))

	require.NoError(t, svc.Adjust(services.StockAdjustment{
		ProductID: "p1", QuantityChange: -5, ChangeType: domain.ChangeSale,
	}))

	s := getState(t, db, "p1")
	require.Equal(t, 0, s.Stock)
	require.Equal(t, domain.StatusOutOfStock, s.Status)
	require.Equal(t, 1, ledgerCount(t, db, "p1"))
}

// decimalEqual avoids the exponent-sensitive Equal on decimal values.
func decimalEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"want %s, got %s", want, got.String())
}
