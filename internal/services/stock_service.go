package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shoplocal/internal/domain"
	"shoplocal/internal/repos"
)

// StockService is the only sanctioned path for changing a product's stock.
// Every change, whatever its origin (sale, admin edit, initial stock), lands
// here so the ledger stays complete.
type StockService struct {
	DB     *sqlx.DB
	Ledger *repos.InventoryRepo
}

func NewStockService(db *sqlx.DB, ledger *repos.InventoryRepo) *StockService {
	return &StockService{DB: db, Ledger: ledger}
}

// StockAdjustment describes one requested change. Reference fields tie sale
// entries to their order; ActorID is the admin responsible, empty for
// system-originated changes.
type StockAdjustment struct {
	ProductID      string
	QuantityChange int
	ChangeType     string
	ReferenceType  string
	ReferenceID    string
	Notes          string
	ActorID        string
}

// Adjust applies one stock change in its own transaction.
func (s *StockService) Adjust(adj StockAdjustment) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.AdjustTx(tx, adj); err != nil {
		return err
	}
	return tx.Commit()
}

// AdjustTx applies one stock change inside the caller's transaction: the
// stock write, the ledger append and any status transition all land
// together or not at all. A failed guard leaves no trace.
func (s *StockService) AdjustTx(tx *sqlx.Tx, adj StockAdjustment) error {
	var prev int
	err := tx.Get(&prev, `SELECT stock FROM products WHERE id = ?`, adj.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return err
	}

	next := prev + adj.QuantityChange
	if next < 0 {
		return fmt.Errorf("%w: product %s has %d, requested change %d",
			domain.ErrInsufficientStock, adj.ProductID, prev, adj.QuantityChange)
	}

	// Compare-and-swap against the value read above; a writer that slipped
	// in between leaves this row untouched and we fail the whole call.
	res, err := tx.Exec(`UPDATE products SET stock = ? WHERE id = ? AND stock = ?`,
		next, adj.ProductID, prev)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrStockConflict
	}

	if err := s.Ledger.AppendTx(tx, domain.InventoryLogEntry{
		ProductID:      adj.ProductID,
		ChangeType:     adj.ChangeType,
		QuantityChange: adj.QuantityChange,
		PreviousStock:  prev,
		NewStock:       next,
		ReferenceType:  adj.ReferenceType,
		ReferenceID:    adj.ReferenceID,
		Notes:          adj.Notes,
		CreatedBy:      adj.ActorID,
	}); err != nil {
		return err
	}

	// Status follows stock only across zero crossings; strictly positive
	// transitions never touch an admin-set status.
	switch {
	case next == 0:
		_, err = tx.Exec(`UPDATE products SET status = ? WHERE id = ?`,
			domain.StatusOutOfStock, adj.ProductID)
	case prev == 0 && next > 0:
		_, err = tx.Exec(`UPDATE products SET status = ? WHERE id = ?`,
			domain.StatusActive, adj.ProductID)
	}
	return err
}
