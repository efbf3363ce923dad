package services

import (
	"errors"
	"fmt"

	"checkout-service/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidAmount = errors.New("amount must be positive")
)

const taxLineTitle = "IVA (19%)"

type PreferenceOptions struct {
	CurrencyID string
	// RedirectBaseURL is the redirect-echo service. Empty omits back_urls.
	RedirectBaseURL string
	Payer           *domain.Payer
	// ExternalReference defaults to a fresh UUID.
	ExternalReference string
}

// BuildPreference turns cart lines into a gateway preference request. The
// gateway only itemizes lines, so tax travels as an extra line with an
// integer unit price.
func BuildPreference(items []domain.CartItem, opts PreferenceOptions) (*domain.PreferenceRequest, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	currency := opts.CurrencyID
	if currency == "" {
		currency = "COP"
	}

	lines := make([]domain.PreferenceItem, 0, len(items)+1)
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s has quantity %d", ErrInvalidAmount, it.Product.ID, it.Quantity)
		}
		if it.Product.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s has a negative price", ErrInvalidAmount, it.Product.ID)
		}
		lines = append(lines, domain.PreferenceItem{
			ID:          it.Product.ID,
			Title:       it.Product.Name,
			Description: it.Product.Description,
			PictureURL:  it.Product.ImageURL,
			CategoryID:  string(it.Product.Category),
			Quantity:    it.Quantity,
			CurrencyID:  currency,
			UnitPrice:   it.Product.Price.InexactFloat64(),
		})
	}

	totals := domain.ComputeTotals(items)
	if !totals.Subtotal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if totals.Tax.IsPositive() {
		lines = append(lines, domain.PreferenceItem{
			ID:         "tax",
			Title:      taxLineTitle,
			Quantity:   1,
			CurrencyID: currency,
			UnitPrice:  totals.Tax.InexactFloat64(),
		})
	}

	ref := opts.ExternalReference
	if ref == "" {
		ref = uuid.NewString()
	}

	req := &domain.PreferenceRequest{
		Items:             lines,
		Payer:             opts.Payer,
		ExternalReference: ref,
	}
	if opts.RedirectBaseURL != "" {
		req.BackURLs = &domain.BackURLs{
			Success: opts.RedirectBaseURL + "/success",
			Pending: opts.RedirectBaseURL + "/pending",
			Failure: opts.RedirectBaseURL + "/failure",
		}
		req.AutoReturn = "approved"
	}
	return req, nil
}
