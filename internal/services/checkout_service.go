package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/infra/settings"
)

var (
	ErrNoCheckoutURL      = errors.New("no checkout URL in response")
	ErrPreferenceNotFound = errors.New("payment preference not found")
	ErrPaymentNotVerified = errors.New("payment not confirmed by the gateway")
)

type CheckoutConfig struct {
	CurrencyID      string
	RedirectBaseURL string
}

type CheckoutService struct {
	cart     *CartService
	orders   *OrderService
	gateway  infra.GatewayClientInterface
	settings settings.Store
	cfg      CheckoutConfig

	inflight sync.WaitGroup
	now      func() time.Time
}

func NewCheckoutService(cart *CartService, orders *OrderService, gw infra.GatewayClientInterface, st settings.Store, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		orders:   orders,
		gateway:  gw,
		settings: st,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CreatePreference starts a checkout for the customer's cart and returns the
// URL to open in the embedded browser plus the gateway preference id.
func (s *CheckoutService) CreatePreference(ctx context.Context, customer domain.Customer) (string, string, error) {
	items := s.cart.Items(customer.ID)

	req, err := BuildPreference(items, PreferenceOptions{
		CurrencyID:      s.cfg.CurrencyID,
		RedirectBaseURL: s.cfg.RedirectBaseURL,
		Payer:           &domain.Payer{Name: customer.Name, Email: customer.Email},
	})
	if err != nil {
		return "", "", err
	}

	pref, err := s.gateway.CreatePreference(ctx, req)
	if err != nil {
		log.Printf("checkout: create preference for %s failed: %v", customer.ID, err)
		return "", "", err
	}

	checkoutURL := pref.CheckoutURL(s.gateway.Sandbox())
	if checkoutURL == "" {
		return "", "", ErrNoCheckoutURL
	}

	// The stored ids are only a fallback for manual polling.
	if err := s.settings.SaveLastPreference(ctx, customer.ID, pref.ID); err != nil {
		log.Printf("checkout: store last preference %s: %v", pref.ID, err)
	}
	if err := s.settings.SavePending(ctx, &domain.PendingCheckout{
		PreferenceID:      pref.ID,
		ExternalReference: req.ExternalReference,
		CheckoutURL:       checkoutURL,
		Customer:          customer,
		Items:             items,
	}); err != nil {
		log.Printf("checkout: store pending checkout %s: %v", pref.ID, err)
	}

	log.Printf("checkout: preference %s created for %s (%d items)", pref.ID, customer.ID, len(items))
	return checkoutURL, pref.ID, nil
}

// OpenCheckout resolves the checkout URL of one of the customer's stored preferences.
func (s *CheckoutService) OpenCheckout(ctx context.Context, customer domain.Customer, preferenceID string) (string, error) {
	pc, err := s.ownedPending(ctx, customer, preferenceID)
	if err != nil {
		return "", err
	}
	if pc == nil || pc.CheckoutURL == "" {
		return "", ErrPreferenceNotFound
	}
	return pc.CheckoutURL, nil
}

// HandleReturn classifies the gateway redirect. On success the payment is
// confirmed with the gateway and the order recorded in the background; the
// cart is cleared regardless of the write's outcome. Payments that cannot be
// confirmed yet stay in the pending snapshot for the reconciler.
func (s *CheckoutService) HandleReturn(ctx context.Context, customer domain.Customer, uri string) domain.PaymentResult {
	res := ClassifyResult(uri)
	if res.Status != domain.PaymentSuccess {
		return res
	}

	preferenceID := res.PreferenceID
	if preferenceID == "" {
		id, err := s.settings.LastPreference(ctx, customer.ID)
		if err != nil {
			log.Printf("checkout: load last preference for %s: %v", customer.ID, err)
		}
		preferenceID = id
	}
	pending, err := s.ownedPending(ctx, customer, preferenceID)
	if err != nil {
		log.Printf("checkout: load pending %s: %v", preferenceID, err)
	}

	items := s.cart.Items(customer.ID)
	if len(items) == 0 && pending != nil {
		items = pending.Items
	}

	switch {
	case pending == nil:
		log.Printf("checkout: approved return for %s matches none of their checkouts, not recording", customer.ID)
	case len(items) == 0:
		log.Printf("checkout: approved payment %s for %s but no items to record", res.PaymentID, customer.ID)
	default:
		s.recordAsync(customer, items, res.PaymentID, pending)
	}

	s.cart.Clear(customer.ID)
	return res
}

func (s *CheckoutService) recordAsync(customer domain.Customer, items []domain.CartItem, paymentID string, pending *domain.PendingCheckout) {
	orderNumber := NewOrderNumber(s.now())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		verified, err := s.verifyPayment(ctx, paymentID, pending)
		if err != nil {
			log.Printf("checkout: payment %q for %s left to reconciliation: %v", paymentID, customer.ID, err)
			return
		}

		order, _, err := s.orders.RecordOrder(ctx, customer, items, verified, orderNumber)
		if err != nil {
			log.Printf("checkout: failed to record order for payment %s (user %s): %v", verified, customer.ID, err)
			return
		}
		if err := s.settings.DeletePending(ctx, pending.PreferenceID); err != nil {
			log.Printf("checkout: drop pending %s: %v", pending.PreferenceID, err)
		}
		log.Printf("checkout: order %s (%s) recorded for payment %s", order.ID, order.OrderNumber, verified)
	}()
}

// verifyPayment asks the gateway for the approved payment behind a redirect
// and returns its id. The redirect alone is client input.
func (s *CheckoutService) verifyPayment(ctx context.Context, paymentID string, pc *domain.PendingCheckout) (string, error) {
	if paymentID == "" {
		payments, err := s.gateway.SearchPayments(ctx, pc.ExternalReference)
		if err != nil {
			return "", err
		}
		for _, p := range payments {
			if OutcomeForGatewayStatus(p.Status) == domain.PaymentSuccess {
				return formatPaymentID(p.ID), nil
			}
		}
		return "", fmt.Errorf("%w: no approved payment for %s", ErrPaymentNotVerified, pc.ExternalReference)
	}

	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", fmt.Errorf("%w: payment %s is unknown", ErrPaymentNotVerified, paymentID)
	}
	if OutcomeForGatewayStatus(p.Status) != domain.PaymentSuccess {
		return "", fmt.Errorf("%w: payment %s is %s", ErrPaymentNotVerified, paymentID, p.Status)
	}
	if p.ExternalReference != pc.ExternalReference {
		return "", fmt.Errorf("%w: payment %s belongs to another checkout", ErrPaymentNotVerified, paymentID)
	}
	return paymentID, nil
}

// ownedPending loads a pending snapshot; other customers' snapshots read as absent.
func (s *CheckoutService) ownedPending(ctx context.Context, customer domain.Customer, preferenceID string) (*domain.PendingCheckout, error) {
	if preferenceID == "" {
		return nil, nil
	}
	pc, err := s.settings.Pending(ctx, preferenceID)
	if err != nil || pc == nil {
		return nil, err
	}
	if pc.Customer.ID != customer.ID {
		log.Printf("checkout: %s asked for preference %s owned by another customer", customer.ID, preferenceID)
		return nil, nil
	}
	if pc.PreferenceID == "" {
		pc.PreferenceID = preferenceID
	}
	return pc, nil
}

// Wait blocks until background order writes have finished.
func (s *CheckoutService) Wait() {
	s.inflight.Wait()
}

// CheckPaymentStatus polls the gateway for a preference. An empty id uses
// the customer's last preference. A nil result means no payment exists yet.
func (s *CheckoutService) CheckPaymentStatus(ctx context.Context, customer domain.Customer, preferenceID string) (*domain.PaymentResult, error) {
	if preferenceID == "" {
		id, err := s.settings.LastPreference(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		preferenceID = id
	}

	pc, err := s.ownedPending(ctx, customer, preferenceID)
	if err != nil {
		return nil, err
	}
	if pc == nil {
		return nil, ErrPreferenceNotFound
	}

	payments, err := s.gateway.SearchPayments(ctx, pc.ExternalReference)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, nil
	}

	res := ResultFromPayment(payments[0])
	res.PreferenceID = preferenceID
	return &res, nil
}

func ResultFromPayment(p domain.Payment) domain.PaymentResult {
	status := OutcomeForGatewayStatus(p.Status)
	return domain.PaymentResult{
		Status:    status,
		PaymentID: formatPaymentID(p.ID),
		Message:   BuildPaymentMessage(status, p.PaymentTypeID, p.StatusDetail, ""),
	}
}

func formatPaymentID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
