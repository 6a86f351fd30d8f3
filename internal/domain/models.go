package domain

import "github.com/shopspring/decimal"

// Product status values. The stock mutator flips between active and
// out_of_stock on zero crossings; admins may write any other value
// (e.g. "discontinued") and it stays until stock crosses zero again.
const (
	StatusActive     = "active"
	StatusOutOfStock = "out_of_stock"
)

// Order lifecycle values.
const (
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"
	PaymentPaid    = "paid"
)

// Ledger change types.
const (
	ChangeStockIn    = "stock_in"
	ChangeStockOut   = "stock_out"
	ChangeSale       = "sale"
	ChangeAdjustment = "adjustment"
)

type Product struct {
	ID                string          `db:"id"`
	Name              string          `db:"name"`
	Description       string          `db:"description"`
	Price             decimal.Decimal `db:"price"`
	Stock             int             `db:"stock"`
	Category          string          `db:"category"`
	ImageURL          string          `db:"image_url"`
	Status            string          `db:"status"`
	LowStockThreshold int             `db:"low_stock_threshold"`
	Views             int             `db:"views"`
	Purchases         int             `db:"purchases"`
	CreatedAt         string          `db:"created_at"`
}

type Order struct {
	ID              string          `db:"id"`
	OrderNumber     string          `db:"order_number"`
	CustomerName    string          `db:"customer_name"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerPhone   string          `db:"customer_phone"`
	ShippingAddress string          `db:"shipping_address"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	CreatedAt       string          `db:"created_at"`
}

// OrderItem snapshots name and price at order time; the product row may
// change or disappear afterwards.
type OrderItem struct {
	OrderID     string          `db:"order_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
	Subtotal    decimal.Decimal `db:"subtotal"`
}

// InventoryLogEntry is one immutable audit record of a stock change.
// PreviousStock and NewStock are snapshots taken at write time.
type InventoryLogEntry struct {
	ID             int64  `db:"id"`
	ProductID      string `db:"product_id"`
	ChangeType     string `db:"change_type"`
	QuantityChange int    `db:"quantity_change"`
	PreviousStock  int    `db:"previous_stock"`
	NewStock       int    `db:"new_stock"`
	ReferenceType  string `db:"reference_type"`
	ReferenceID    string `db:"reference_id"`
	Notes          string `db:"notes"`
	CreatedBy      string `db:"created_by"` // empty for system-originated changes
	CreatedAt      string `db:"created_at"`
}

type AdminUser struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	IsActive  bool   `db:"is_active"`
	LastLogin string `db:"last_login"`
}
