package services

import (
	"context"
	"log"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/infra/settings"
)

// Reconciler re-scans pending checkouts and records orders for approved
// payments that never got one (lost redirect or failed order write).
type Reconciler struct {
	settings settings.Store
	gateway  infra.GatewayClientInterface
	orders   *OrderService
	interval time.Duration
}

func NewReconciler(st settings.Store, gw infra.GatewayClientInterface, orders *OrderService, interval time.Duration) *Reconciler {
	return &Reconciler{settings: st, gateway: gw, orders: orders, interval: interval}
}

// Run loops until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("reconciler: running every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := r.RunOnce(ctx); err != nil {
				log.Printf("reconciler: pass failed: %v", err)
			} else if n > 0 {
				log.Printf("reconciler: recorded %d orders", n)
			}
		}
	}
}

// RunOnce performs one pass and returns how many orders it recorded.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	ids, err := r.settings.ListPending(ctx)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return recorded, ctx.Err()
		}
		ok, err := r.reconcile(ctx, id)
		if err != nil {
			log.Printf("reconciler: preference %s: %v", id, err)
			continue
		}
		if ok {
			recorded++
		}
	}
	return recorded, nil
}

func (r *Reconciler) reconcile(ctx context.Context, preferenceID string) (bool, error) {
	pc, err := r.settings.Pending(ctx, preferenceID)
	if err != nil || pc == nil {
		return false, err
	}

	payments, err := r.gateway.SearchPayments(ctx, pc.ExternalReference)
	if err != nil {
		return false, err
	}
	if len(payments) == 0 {
		return false, nil
	}

	// A rejected attempt can still be followed by an approved one on the
	// same preference, so only approvals settle the snapshot; the rest expire.
	res := ResultFromPayment(payments[0])
	if res.Status != domain.PaymentSuccess {
		return false, nil
	}

	_, created, err := r.orders.RecordOrder(ctx, pc.Customer, pc.Items, res.PaymentID, "")
	if err != nil {
		return false, err
	}
	return created, r.settings.DeletePending(ctx, preferenceID)
}
