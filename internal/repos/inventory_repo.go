package repos

import (
	"github.com/jmoiron/sqlx"

	"shoplocal/internal/domain"
)

// InventoryRepo owns the inventory_log table. Append-only: no update or
// delete is exposed, ever.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// AppendTx writes one ledger row inside the caller's transaction. Empty
// reference/actor fields are stored as NULL.
func (r *InventoryRepo) AppendTx(tx *sqlx.Tx, e domain.InventoryLogEntry) error {
	_, err := tx.Exec(`
	  INSERT INTO inventory_log
	    (product_id, change_type, quantity_change, previous_stock, new_stock,
	     reference_type, reference_id, notes, created_by)
	  VALUES (?, ?, ?, ?, ?, NULLIF(?,''), NULLIF(?,''), NULLIF(?,''), NULLIF(?,''))
	`, e.ProductID, e.ChangeType, e.QuantityChange, e.PreviousStock, e.NewStock,
		e.ReferenceType, e.ReferenceID, e.Notes, e.CreatedBy)
	return err
}

// LedgerRow is a ledger entry joined with product and admin names for the
// audit view.
type LedgerRow struct {
	domain.InventoryLogEntry
	ProductName   string `db:"product_name"`
	AdminUsername string `db:"admin_username"`
}

// List returns the newest entries first, joined with product name and the
// acting admin's username where present.
func (r *InventoryRepo) List(limit int) ([]LedgerRow, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []LedgerRow{}
	err := r.db.Select(&out, `
	  SELECT il.id, il.product_id, il.change_type, il.quantity_change,
	         il.previous_stock, il.new_stock,
	         COALESCE(il.reference_type,'') AS reference_type,
	         COALESCE(il.reference_id,'')   AS reference_id,
	         COALESCE(il.notes,'')          AS notes,
	         COALESCE(il.created_by,'')     AS created_by,
	         COALESCE(il.created_at,'')     AS created_at,
	         COALESCE(p.name,'')            AS product_name,
	         COALESCE(au.username,'')       AS admin_username
	  FROM inventory_log il
	  LEFT JOIN products p     ON p.id = il.product_id
	  LEFT JOIN admin_users au ON au.id = il.created_by
	  ORDER BY il.id DESC
	  LIMIT ?
	`, limit)
	return out, err
}

// CountForProduct is used by tests and dashboards; the ledger itself is
// never aggregated back into stock values.
func (r *InventoryRepo) CountForProduct(productID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM inventory_log WHERE product_id = ?`, productID)
	return n, err
}
