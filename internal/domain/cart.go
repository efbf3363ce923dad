package domain

import "github.com/shopspring/decimal"

// TaxRate is the IVA applied on top of the cart subtotal.
var TaxRate = decimal.NewFromFloat(0.19)

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

func (i CartItem) TotalPrice() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(i.Quantity))
}

type Cart struct {
	Items []CartItem `json:"items"`
}

func (c *Cart) Find(productID string) int {
	for i, it := range c.Items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) TotalItems() int64 {
	return TotalQuantity(c.Items)
}

func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Items)
}

// Totals are whole currency amounts; Tax is rounded to integer units.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalPrice())
	}
	return sum
}

func TaxFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(0)
}

func ComputeTotals(items []CartItem) Totals {
	sub := Subtotal(items)
	tax := TaxFor(sub)
	return Totals{Subtotal: sub, Tax: tax, Total: sub.Add(tax)}
}

func TotalQuantity(items []CartItem) int64 {
	var n int64
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
