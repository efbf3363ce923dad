package services

import (
	"checkout-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	testUserID    = "user-1"
	testProductID = "prod-1"
)

var testCustomer = domain.Customer{ID: testUserID, Email: "ana@example.co", Name: "Ana", Phone: "3001234567"}

func mockProduct(id string, price int64, stock int64) *domain.Product {
	return &domain.Product{
		ID:        id,
		Name:      "Producto " + id,
		Price:     decimal.NewFromInt(price),
		Category:  domain.CategoryFruits,
		Unit:      "kg",
		Stock:     stock,
		Available: true,
	}
}

func cartItem(id string, price, qty int64) domain.CartItem {
	return domain.CartItem{Product: *mockProduct(id, price, 100), Quantity: qty}
}
