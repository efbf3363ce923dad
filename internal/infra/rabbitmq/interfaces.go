package rabbitmq

import "checkout-service/internal/infra"

var _ infra.Publisher = (*Publisher)(nil)
