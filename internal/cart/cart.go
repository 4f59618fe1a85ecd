// Package cart holds the shopping cart as a single-owner store. State only
// changes through Dispatch, and subscribers receive immutable snapshots.
package cart

import (
	"errors"
	"fmt"

	"github.com/agrimart/storefront/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNoPrice         = errors.New("item has no price")
	ErrUnknownItem     = errors.New("item is not in the cart")
)

// Line is one product in the cart.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is Price times Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a snapshot. Lines keep insertion order.
type Cart struct {
	Lines []Line `json:"lines"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Line(productID string) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func (c Cart) index(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	return Cart{Lines: append([]Line(nil), c.Lines...)}
}

// Action is a cart update understood by Reduce.
type Action interface {
	apply(Cart) (Cart, error)
}

// AddItem adds Quantity units, merging with an existing line. The price of
// the first add is kept.
type AddItem struct {
	ProductID string
	Name      string
	Unit      string
	Price     decimal.NullDecimal
	Quantity  int
}

// Add builds an AddItem for a catalog item.
func Add(item model.Item, quantity int) AddItem {
	return AddItem{
		ProductID: item.ID,
		Name:      item.Name,
		Unit:      item.Unit,
		Price:     item.Price,
		Quantity:  quantity,
	}
}

func (a AddItem) apply(c Cart) (Cart, error) {
	if a.Quantity <= 0 {
		return c, ErrInvalidQuantity
	}
	if a.ProductID == "" {
		return c, fmt.Errorf("add item: %w", ErrUnknownItem)
	}
	next := c.clone()
	if i := next.index(a.ProductID); i >= 0 {
		next.Lines[i].Quantity += a.Quantity
		return next, nil
	}
	if !a.Price.Valid {
		return c, fmt.Errorf("add %s: %w", a.ProductID, ErrNoPrice)
	}
	next.Lines = append(next.Lines, Line{
		ProductID: a.ProductID,
		Name:      a.Name,
		Unit:      a.Unit,
		Price:     a.Price.Decimal,
		Quantity:  a.Quantity,
	})
	return next, nil
}

type RemoveItem struct {
	ProductID string
}

func (a RemoveItem) apply(c Cart) (Cart, error) {
	i := c.index(a.ProductID)
	if i < 0 {
		return c, fmt.Errorf("remove %s: %w", a.ProductID, ErrUnknownItem)
	}
	next := Cart{Lines: make([]Line, 0, len(c.Lines)-1)}
	next.Lines = append(next.Lines, c.Lines[:i]...)
	next.Lines = append(next.Lines, c.Lines[i+1:]...)
	return next, nil
}

// SetQuantity replaces the quantity of a line. Zero removes it.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

func (a SetQuantity) apply(c Cart) (Cart, error) {
	if a.Quantity < 0 {
		return c, ErrInvalidQuantity
	}
	if a.Quantity == 0 {
		return RemoveItem{ProductID: a.ProductID}.apply(c)
	}
	i := c.index(a.ProductID)
	if i < 0 {
		return c, fmt.Errorf("set quantity %s: %w", a.ProductID, ErrUnknownItem)
	}
	next := c.clone()
	next.Lines[i].Quantity = a.Quantity
	return next, nil
}

type Clear struct{}

func (Clear) apply(Cart) (Cart, error) { return Cart{}, nil }

// Reduce returns the cart after a. On error c is returned unchanged.
func Reduce(c Cart, a Action) (Cart, error) {
	return a.apply(c)
}
