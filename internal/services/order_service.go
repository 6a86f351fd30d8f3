package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shoplocal/internal/domain"
	"shoplocal/internal/repos"
)

// PlacementMode selects how unsatisfiable lines are handled. The two entry
// points deliberately behave differently; keep them as an explicit flag
// rather than diverging code paths.
type PlacementMode int

const (
	// DropInvalidLines skips lines that reference a missing product or
	// exceed its stock and places the order with whatever remains. Used by
	// the checkout form.
	DropInvalidLines PlacementMode = iota
	// RejectAllOnInvalid aborts the whole order on the first bad line,
	// persisting nothing. Used by the JSON API.
	RejectAllOnInvalid
)

type OrderLine struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Lines           []OrderLine
}

type PlacedOrder struct {
	ID          string
	OrderNumber string
	Total       decimal.Decimal
}

type OrderService struct {
	DB     *sqlx.DB
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
	Stock  *StockService
}

func NewOrderService(db *sqlx.DB, orders *repos.OrderRepo, prods *repos.ProductRepo, stock *StockService) *OrderService {
	return &OrderService{DB: db, Orders: orders, Prods: prods, Stock: stock}
}

// Place validates the request, prices the lines and commits the order
// header, line items, stock decrements and purchase counters as one
// transaction. Either the whole order lands or none of it does.
func (s *OrderService) Place(in PlaceOrderInput, mode PlacementMode) (PlacedOrder, error) {
	if len(in.Lines) == 0 {
		return PlacedOrder{}, domain.ErrEmptyOrder
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return PlacedOrder{}, domain.Invalid("customer_name", "required")
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		return PlacedOrder{}, domain.Invalid("customer_email", "required")
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return PlacedOrder{}, domain.Invalid("customer_phone", "required")
	}

	// Requests may name the same product on several lines; they collapse
	// into one line so stock is checked against the combined quantity.
	merged := make([]OrderLine, 0, len(in.Lines))
	byProduct := map[string]int{}
	for _, l := range in.Lines {
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		if i, ok := byProduct[l.ProductID]; ok {
			merged[i].Quantity += qty
			continue
		}
		byProduct[l.ProductID] = len(merged)
		merged = append(merged, OrderLine{ProductID: l.ProductID, Quantity: qty})
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return PlacedOrder{}, err
	}
	defer func() { _ = tx.Rollback() }()

	type pricedLine struct {
		product  domain.Product
		quantity int
		subtotal decimal.Decimal
	}
	lines := make([]pricedLine, 0, len(merged))
	total := decimal.Zero
	for _, l := range merged {
		qty := l.Quantity
		p, err := s.Prods.GetTx(tx, l.ProductID)
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return PlacedOrder{}, err
		}
		if errors.Is(err, domain.ErrProductNotFound) || p.Stock < qty {
			if mode == RejectAllOnInvalid {
				if err != nil {
					return PlacedOrder{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, l.ProductID)
				}
				return PlacedOrder{}, fmt.Errorf("%w: product %s has %d, requested %d",
					domain.ErrInsufficientStock, l.ProductID, p.Stock, qty)
			}
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(sub)
		lines = append(lines, pricedLine{product: p, quantity: qty, subtotal: sub})
	}
	if len(lines) == 0 {
		return PlacedOrder{}, fmt.Errorf("%w: no line could be fulfilled", domain.ErrInsufficientStock)
	}

	o := domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     NewOrderNumber(),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		TotalAmount:     total,
		Status:          domain.OrderConfirmed,
		// Payment is recorded as a flag only; there is no gateway.
		PaymentStatus: domain.PaymentPaid,
	}
	if err := s.Orders.CreateTx(tx, o); err != nil {
		return PlacedOrder{}, err
	}

	for _, l := range lines {
		if err := s.Orders.InsertItemTx(tx, domain.OrderItem{
			OrderID:     o.ID,
			ProductID:   l.product.ID,
			ProductName: l.product.Name,
			Quantity:    l.quantity,
			Price:       l.product.Price,
			Subtotal:    l.subtotal,
		}); err != nil {
			return PlacedOrder{}, err
		}
		if err := s.Stock.AdjustTx(tx, StockAdjustment{
			ProductID:      l.product.ID,
			QuantityChange: -l.quantity,
			ChangeType:     domain.ChangeSale,
			ReferenceType:  "order",
			ReferenceID:    o.ID,
			Notes:          "Order " + o.OrderNumber,
		}); err != nil {
			return PlacedOrder{}, err
		}
		if err := s.Prods.IncrementPurchasesTx(tx, l.product.ID, l.quantity); err != nil {
			return PlacedOrder{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return PlacedOrder{}, err
	}
	return PlacedOrder{ID: o.ID, OrderNumber: o.OrderNumber, Total: total}, nil
}

// NewOrderNumber builds a human-shareable order number: fixed prefix,
// second-resolution timestamp, short random suffix. Collisions are
// accepted as negligible; there is no uniqueness retry.
func NewOrderNumber() string {
	ts := time.Now().Format("20060102150405")
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return "SL-" + ts + "-" + suffix
}
