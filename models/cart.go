package models

import "github.com/shopspring/decimal"

// CartLine is one selected item in the cart. Name and UnitPrice are copied
// from the menu entry at add-time so a later catalog change cannot reprice
// an order in progress.
type CartLine struct {
	ItemID    string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per item id; every retained line has
// quantity >= 1. A line whose quantity drops to zero is removed.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Add increments the quantity of an existing line for the same item, or
// appends a new line with quantity 1.
func (c *Cart) Add(e MenuEntry) {
	for i := range c.Lines {
		if c.Lines[i].ItemID == e.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ItemID:    e.ID,
		Name:      e.Name,
		UnitPrice: e.UnitPrice,
		Quantity:  1,
	})
}

// Remove deletes the line for itemID. Returns false if no such line exists;
// that is a no-op, not an error.
func (c *Cart) Remove(itemID string) bool {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity updates the quantity of the line for itemID. A quantity of
// zero or less removes the line. Missing lines are a no-op.
func (c *Cart) SetQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		c.Remove(itemID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Line(itemID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ItemID == itemID {
			return l, true
		}
	}
	return CartLine{}, false
}

// ItemCount is the sum of quantities across lines (cart badge number).
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Clear() {
	c.Lines = nil
}
