// Package cart implements the per-user shopping cart that is checked against
// the redeemable token balance.
package cart

import (
	"errors"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"
)

var (
	ErrInsufficientBalance = errors.New("not enough tokens for this item")
	ErrNotInCart           = errors.New("product not in cart")
	ErrCartFull            = errors.New("cart line limit reached")
)

type Cart struct {
	Lines []schemas.OrderLine `json:"lines"`
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Total is the running total of all lines, without delivery.
func (c *Cart) Total() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Cost * l.Quantity
	}
	return total
}

// AddItem adds one unit of p. It is rejected when the running total would
// exceed balance.
func (c *Cart) AddItem(p *schemas.Product, balance int) error {

	if c.Total()+p.Cost > balance {
		return ErrInsufficientBalance
	}

	if i := c.find(p.Id); i >= 0 {
		c.Lines[i].Quantity++
		return nil
	}

	if len(c.Lines) >= config.MAX_CART_LINES {
		return ErrCartFull
	}

	c.Lines = append(c.Lines, schemas.OrderLine{
		ProductId: p.Id,
		Name:      p.Name,
		Image:     p.Image,
		Cost:      p.Cost,
		Quantity:  1,
	})

	return nil

}

// Increase adds one unit to an existing line under the same balance rule as
// AddItem.
func (c *Cart) Increase(productId string, balance int) error {
	i := c.find(productId)
	if i < 0 {
		return ErrNotInCart
	}
	if c.Total()+c.Lines[i].Cost > balance {
		return ErrInsufficientBalance
	}
	c.Lines[i].Quantity++
	return nil
}

// Decrease removes one unit, never going below a quantity of 1.
func (c *Cart) Decrease(productId string) error {
	i := c.find(productId)
	if i < 0 {
		return ErrNotInCart
	}
	c.Lines[i].Quantity = max(c.Lines[i].Quantity-1, 1)
	return nil
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (c *Cart) SetQuantity(productId string, quantity int, balance int) error {

	i := c.find(productId)
	if i < 0 {
		return ErrNotInCart
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	}

	diff := (quantity - c.Lines[i].Quantity) * c.Lines[i].Cost
	if diff > 0 && c.Total()+diff > balance {
		return ErrInsufficientBalance
	}
	c.Lines[i].Quantity = quantity

	return nil

}

func (c *Cart) Remove(productId string) error {
	i := c.find(productId)
	if i < 0 {
		return ErrNotInCart
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

func (c *Cart) find(productId string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductId == productId {
			return i
		}
	}
	return -1
}
