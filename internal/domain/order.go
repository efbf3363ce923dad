package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusInProcess OrderStatus = "in_process"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
	StatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProcess, StatusApproved, StatusRejected,
		StatusCancelled, StatusRefunded, StatusDelivered:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusRefunded
}

// Customer is the authenticated user placing an order.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Order is written once per completed checkout. Only PaymentStatus changes afterwards.
type Order struct {
	ID            string                         `json:"id" gorm:"primaryKey;size:36"`
	UserID        string                         `json:"userId" gorm:"size:64;not null;index:idx_orders_user_date,priority:1"`
	UserEmail     string                         `json:"userEmail" gorm:"size:255"`
	UserName      string                         `json:"userName" gorm:"size:255"`
	UserPhone     string                         `json:"userPhone" gorm:"size:64"`
	OrderNumber   string                         `json:"orderNumber" gorm:"size:64;not null"`
	Items         datatypes.JSONSlice[OrderLine] `json:"items"`
	Subtotal      decimal.Decimal                `json:"subtotal" gorm:"type:decimal(14,2);not null"`
	Tax           decimal.Decimal                `json:"tax" gorm:"type:decimal(14,2);not null"`
	Shipping      decimal.Decimal                `json:"shipping" gorm:"type:decimal(14,2);not null"`
	TotalPrice    decimal.Decimal                `json:"totalPrice" gorm:"type:decimal(14,2);not null"`
	TotalItems    int64                          `json:"totalItems" gorm:"not null"`
	PaymentMethod string                         `json:"paymentMethod" gorm:"size:64"`
	PaymentID     *string                        `json:"paymentId,omitempty" gorm:"size:64;uniqueIndex"`
	PaymentStatus OrderStatus                    `json:"paymentStatus" gorm:"size:32;not null;default:'pending'"`
	Notes         string                         `json:"notes" gorm:"type:text"`
	PurchaseDate  time.Time                      `json:"purchaseDate" gorm:"autoCreateTime;index:idx_orders_user_date,priority:2,sort:desc"`
}

// PaymentRef returns the gateway payment id, or "" when none was recorded.
func (o *Order) PaymentRef() string {
	if o.PaymentID == nil {
		return ""
	}
	return *o.PaymentID
}

// Consistent reports whether the totals match the line items.
func (o *Order) Consistent() bool {
	var qty int64
	for _, l := range o.Items {
		qty += l.Quantity
	}
	if qty != o.TotalItems {
		return false
	}
	sum := o.Subtotal.Add(o.Tax).Add(o.Shipping)
	return sum.Sub(o.TotalPrice).Abs().LessThanOrEqual(decimal.NewFromInt(1))
}

func LinesFromCart(items []CartItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Image:     it.Product.ImageURL,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
			LineTotal: it.TotalPrice(),
		})
	}
	return lines
}
