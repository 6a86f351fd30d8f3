package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"shoplocal/internal/domain"
)

const productColumns = `
  id, name, description, price, stock, category, image_url, status,
  low_stock_threshold, views, purchases, COALESCE(created_at,'') AS created_at`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// ListActive returns active products, optionally filtered by category.
func (r *ProductRepo) ListActive(category string) ([]domain.Product, error) {
	out := []domain.Product{}
	if category != "" {
		err := r.db.Select(&out, `
		  SELECT `+productColumns+`
		  FROM products
		  WHERE status = ? AND category = ?
		  ORDER BY created_at DESC
		`, domain.StatusActive, category)
		return out, err
	}
	err := r.db.Select(&out, `
	  SELECT `+productColumns+`
	  FROM products
	  WHERE status = ?
	  ORDER BY created_at DESC
	`, domain.StatusActive)
	return out, err
}

// ListAll returns every product regardless of status (admin view).
func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productColumns+`
	  FROM products
	  ORDER BY created_at DESC
	`)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	return getProduct(r.db, id)
}

// GetTx reads a product inside the caller's transaction so the stock value
// observed stays valid for the rest of the transaction.
func (r *ProductRepo) GetTx(tx *sqlx.Tx, id string) (domain.Product, error) {
	return getProduct(tx, id)
}

func getProduct(q sqlx.Queryer, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(q, &p, `
	  SELECT `+productColumns+`
	  FROM products
	  WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

// Categories lists distinct categories among active products.
func (r *ProductRepo) Categories() ([]string, error) {
	out := []string{}
	err := r.db.Select(&out, `
	  SELECT DISTINCT category FROM products
	  WHERE status = ?
	  ORDER BY category
	`, domain.StatusActive)
	return out, err
}

// Recommendations returns pre-scored related products, best first.
func (r *ProductRepo) Recommendations(productID string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT p.id, p.name, p.description, p.price, p.stock, p.category, p.image_url,
	         p.status, p.low_stock_threshold, p.views, p.purchases,
	         COALESCE(p.created_at,'') AS created_at
	  FROM products p
	  JOIN product_recommendations pr ON pr.recommended_product_id = p.id
	  WHERE pr.product_id = ? AND p.status = ?
	  ORDER BY pr.score DESC
	  LIMIT ?
	`, productID, domain.StatusActive, limit)
	return out, err
}

// Create inserts a product with zero stock; initial stock goes through the
// stock mutator so the ledger records it.
func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, name, description, price, stock, category, image_url, status, low_stock_threshold)
	  VALUES(?, ?, ?, ?, 0, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Status, p.LowStockThreshold)
	return err
}

// Update writes every admin-editable field except stock. Status may be set
// to any value here; the stock mutator only touches it on zero crossings.
func (r *ProductRepo) Update(p domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET name = ?, description = ?, price = ?, category = ?, image_url = ?,
	      status = ?, low_stock_threshold = ?
	  WHERE id = ?
	`, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Status, p.LowStockThreshold, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// IncrementViews bumps the view counter. Best-effort statistic.
func (r *ProductRepo) IncrementViews(id string) error {
	_, err := r.db.Exec(`UPDATE products SET views = views + 1 WHERE id = ?`, id)
	return err
}

// RecordView appends a page-view event. Not part of the ledger.
func (r *ProductRepo) RecordView(productID, sessionID, ip string) error {
	_, err := r.db.Exec(`
	  INSERT INTO product_views(product_id, session_id, ip_address)
	  VALUES(?, ?, ?)
	`, productID, sessionID, ip)
	return err
}

// IncrementPurchasesTx bumps the purchase counter within an order's
// transaction. Best-effort statistic, never used for stock integrity.
func (r *ProductRepo) IncrementPurchasesTx(tx *sqlx.Tx, id string, by int) error {
	_, err := tx.Exec(`UPDATE products SET purchases = purchases + ? WHERE id = ?`, by, id)
	return err
}

// LowStock lists active products at or below their low-stock threshold.
func (r *ProductRepo) LowStock(limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productColumns+`
	  FROM products
	  WHERE stock <= low_stock_threshold AND status = ?
	  ORDER BY stock ASC
	  LIMIT ?
	`, domain.StatusActive, limit)
	return out, err
}

func (r *ProductRepo) CountActive() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products WHERE status = ?`, domain.StatusActive)
	return n, err
}

func (r *ProductRepo) CountLowStock() (int, error) {
	var n int
	err := r.db.Get(&n, `
	  SELECT COUNT(*) FROM products
	  WHERE stock <= low_stock_threshold AND status = ?
	`, domain.StatusActive)
	return n, err
}
