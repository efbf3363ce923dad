package infra

import (
	"context"

	"checkout-service/internal/domain"
)

type GatewayClientInterface interface {
	CreatePreference(ctx context.Context, req *domain.PreferenceRequest) (*domain.PaymentPreference, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	SearchPayments(ctx context.Context, externalReference string) ([]domain.Payment, error)
	Sandbox() bool
}

var _ GatewayClientInterface = (*GatewayClient)(nil)

// Publisher emits domain events to a broker. Implementations: rabbitmq, kafka, NopPublisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
