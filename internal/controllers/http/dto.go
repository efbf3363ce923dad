package http

import "checkout-service/internal/domain"

type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

type SetQuantityRequest struct {
	Quantity *int64 `json:"quantity" binding:"required"`
}

type CartResponse struct {
	Items      []domain.CartItem `json:"items"`
	TotalItems int64             `json:"totalItems"`
	domain.Totals
}

type CreatePreferenceResponse struct {
	CheckoutURL  string `json:"checkoutUrl"`
	PreferenceID string `json:"preferenceId"`
}

type PaymentReturnRequest struct {
	URI string `json:"uri" binding:"required"`
}

type PaymentStatusResponse struct {
	Resolved bool                  `json:"resolved"`
	Result   *domain.PaymentResult `json:"result,omitempty"`
}

type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

func newCartResponse(c domain.Cart) CartResponse {
	return CartResponse{
		Items:      c.Items,
		TotalItems: c.TotalItems(),
		Totals:     c.Totals(),
	}
}
