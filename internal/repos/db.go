package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if the DB is empty (idempotent; safe every start)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  category TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',
  low_stock_threshold INTEGER NOT NULL DEFAULT 10,
  views INTEGER NOT NULL DEFAULT 0,
  purchases INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_status     ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
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
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id)
);

-- Inventory ledger: append-only, never updated or deleted
CREATE TABLE IF NOT EXISTS inventory_log(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('stock_in','stock_out','sale','adjustment')),
  quantity_change INTEGER NOT NULL,
  previous_stock INTEGER NOT NULL,
  new_stock INTEGER NOT NULL,
  reference_type TEXT,
  reference_id TEXT,
  notes TEXT,
  created_by TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_inventory_log_product ON inventory_log(product_id);
CREATE INDEX IF NOT EXISTS idx_inventory_log_created ON inventory_log(created_at);

-- Admin users
CREATE TABLE IF NOT EXISTS admin_users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'admin',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login TEXT
);

-- Page-view events (best-effort statistics, not ledgered)
CREATE TABLE IF NOT EXISTS product_views(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL,
  session_id TEXT,
  ip_address TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Pre-computed recommendation scores (read-only for this app)
CREATE TABLE IF NOT EXISTS product_recommendations(
  product_id TEXT NOT NULL,
  recommended_product_id TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (product_id, recommended_product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products/recommendations")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,description,price,stock,category,image_url,status,low_stock_threshold) VALUES
	  ('mug-001','Ceramic Mug','Hand-glazed 350ml mug',249.00,40,'Kitchen','/media/products/mug-001.jpg','active',10),
	  ('tea-001','Darjeeling Tea 250g','Second flush loose leaf',399.50,25,'Pantry','/media/products/tea-001.jpg','active',5),
	  ('soap-001','Neem Soap Bar','Cold-pressed, unscented',89.00,0,'Bath','/media/products/soap-001.jpg','out_of_stock',10),
	  ('jute-001','Jute Tote Bag','Reinforced handles',199.00,12,'Accessories','/media/products/jute-001.jpg','active',4)`)

	tx.MustExec(`INSERT INTO product_recommendations(product_id,recommended_product_id,score) VALUES
	  ('mug-001','tea-001',0.92),
	  ('mug-001','jute-001',0.41),
	  ('tea-001','mug-001',0.88),
	  ('tea-001','soap-001',0.15),
	  ('jute-001','mug-001',0.37)`)

	return tx.Commit()
}

// seedAdmin ensures a default admin account exists (idempotent).
func seedAdmin(db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe!123"), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO admin_users(id,username,password_hash,role)
		VALUES('adm-root','admin',?,'admin')
		ON CONFLICT(username) DO NOTHING
	`, string(hash))
	return err
}
