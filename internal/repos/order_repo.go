package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shoplocal/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `
  id, order_number, customer_name, customer_email, customer_phone,
  COALESCE(shipping_address,'') AS shipping_address, total_amount,
  status, payment_status, COALESCE(created_at,'') AS created_at`

// CreateTx inserts the order header inside the assembler's transaction.
func (r *OrderRepo) CreateTx(tx *sqlx.Tx, o domain.Order) error {
	_, err := tx.Exec(`
	  INSERT INTO orders
	    (id, order_number, customer_name, customer_email, customer_phone,
	     shipping_address, total_amount, status, payment_status)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.ShippingAddress, o.TotalAmount, o.Status, o.PaymentStatus)
	return err
}

// InsertItemTx inserts one immutable line item.
func (r *OrderRepo) InsertItemTx(tx *sqlx.Tx, it domain.OrderItem) error {
	_, err := tx.Exec(`
	  INSERT INTO order_items(order_id, product_id, product_name, quantity, price, subtotal)
	  VALUES (?, ?, ?, ?, ?, ?)
	`, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.Subtotal)
	return err
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepo) Items(orderID string) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	err := r.db.Select(&out, `
	  SELECT order_id, product_id, product_name, quantity, price, subtotal
	  FROM order_items
	  WHERE order_id = ?
	  ORDER BY product_name
	`, orderID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	err := r.db.Select(&out, `
	  SELECT `+orderColumns+`
	  FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, limit)
	return out, err
}

// CountPlaced counts orders that were not cancelled.
func (r *OrderRepo) CountPlaced() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE status != ?`, domain.OrderCancelled)
	return n, err
}

// PaidRevenue sums total_amount over paid orders.
func (r *OrderRepo) PaidRevenue() (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Get(&total, `
	  SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE payment_status = ?
	`, domain.PaymentPaid)
	return total, err
}
