package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/shopspring/decimal"

	"shoplocal/internal/domain"
	"shoplocal/internal/repos"
)

const cartKey = "cart"

// Cart maps product id to requested quantity. It lives entirely in the
// visitor's session and is discarded when checkout succeeds or the session
// expires.
type Cart map[string]int

// CartFromSession decodes the session's cart, returning an empty cart when
// none is stored.
func CartFromSession(sess *session.Session) Cart {
	cart := Cart{}
	if raw, ok := sess.Get(cartKey).(string); ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &cart)
	}
	return cart
}

// SaveTo writes the cart back into the session.
func (ct Cart) SaveTo(sess *session.Session) error {
	b, err := json.Marshal(ct)
	if err != nil {
		return err
	}
	sess.Set(cartKey, string(b))
	return sess.Save()
}

// ClearCart drops the cart from the session.
func ClearCart(sess *session.Session) error {
	sess.Delete(cartKey)
	return sess.Save()
}

// SetQuantity overwrites a line, removing it when qty drops to zero or
// below.
func (ct Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		delete(ct, productID)
		return
	}
	ct[productID] = qty
}

func (ct Cart) Remove(productID string) { delete(ct, productID) }

// Lines converts the cart for the order assembler.
func (ct Cart) Lines() []OrderLine {
	out := make([]OrderLine, 0, len(ct))
	for id, qty := range ct {
		out = append(out, OrderLine{ProductID: id, Quantity: qty})
	}
	return out
}

type CartService struct {
	Prods *repos.ProductRepo
}

func NewCartService(prods *repos.ProductRepo) *CartService {
	return &CartService{Prods: prods}
}

// Add merges qty into any existing line for the product. A merged quantity
// beyond available stock is a rejection, not a silent clamp.
func (s *CartService) Add(cart Cart, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return err
	}
	if p.Status != domain.StatusActive {
		return domain.ErrProductNotFound
	}
	want := cart[productID] + qty
	if want > p.Stock {
		return fmt.Errorf("%w: only %d of %s available", domain.ErrInsufficientStock, p.Stock, p.Name)
	}
	cart[productID] = want
	return nil
}

// CartLine is a cart entry priced against the current catalog.
type CartLine struct {
	Product  domain.Product
	Quantity int
	Subtotal decimal.Decimal
}

// Priced resolves the cart against current product state. Lines whose
// product is gone or inactive are left out of the view; they are dealt
// with at order time. Storage failures are not "gone" and fail the call.
func (s *CartService) Priced(cart Cart) ([]CartLine, decimal.Decimal, error) {
	out := make([]CartLine, 0, len(cart))
	total := decimal.Zero
	for id, qty := range cart {
		p, err := s.Prods.Get(id)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, decimal.Zero, err
		}
		if p.Status != domain.StatusActive {
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		out = append(out, CartLine{Product: p, Quantity: qty, Subtotal: sub})
		total = total.Add(sub)
	}
	return out, total, nil
}
