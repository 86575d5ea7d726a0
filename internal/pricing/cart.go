// Package pricing holds the in-memory order builder and the money math
// shared by order submission. All arithmetic uses decimals; floats never
// touch a price.
package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Line struct {
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  decimal.Decimal
	Notes      string
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Cart accumulates order lines keyed by menu item id. Lines keep their
// insertion order. A Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
}

func (c *Cart) find(menuItemID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

// Add appends a line, or bumps the quantity if the item is already in the
// cart. Later notes replace earlier ones. Non-positive quantities are
// ignored.
func (c *Cart) Add(menuItemID uuid.UUID, quantity int32, unitPrice decimal.Decimal, notes string) {
	if quantity <= 0 {
		return
	}
	if i := c.find(menuItemID); i >= 0 {
		c.lines[i].Quantity += quantity
		c.lines[i].UnitPrice = unitPrice
		if notes != "" {
			c.lines[i].Notes = notes
		}
		return
	}
	c.lines = append(c.lines, Line{
		MenuItemID: menuItemID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Notes:      notes,
	})
}

// SetQuantity pins an item's quantity; zero or negative drops the line.
func (c *Cart) SetQuantity(menuItemID uuid.UUID, quantity int32) {
	i := c.find(menuItemID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.Remove(menuItemID)
		return
	}
	c.lines[i].Quantity = quantity
}

func (c *Cart) Remove(menuItemID uuid.UUID) {
	if i := c.find(menuItemID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Tax rounds half away from zero to whole currency units.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Round(0)
}

// Total clamps at zero so an oversized discount never produces a negative
// amount due.
func Total(subtotal, tax, discount decimal.Decimal) decimal.Decimal {
	t := subtotal.Add(tax).Sub(discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

func (c *Cart) Total(rate, discount decimal.Decimal) decimal.Decimal {
	sub := c.Subtotal()
	return Total(sub, Tax(sub, rate), discount)
}
