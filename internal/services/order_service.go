package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status can no longer change")
)

const (
	EventOrderRecorded      = "order.recorded"
	EventOrderStatusChanged = "order.status_changed"

	paymentMethodGateway = "mercadopago"
	historyCacheTTL      = 10 * time.Second
)

type OrderService struct {
	repo        repository.OrderRepository
	publisher   infra.Publisher
	feed        *OrderFeed
	redisClient *redis.Client
}

func NewOrderService(r repository.OrderRepository, pub infra.Publisher, feed *OrderFeed) *OrderService {
	if pub == nil {
		pub = infra.NopPublisher{}
	}
	if feed == nil {
		feed = NewOrderFeed()
	}
	return &OrderService{
		repo:      r,
		publisher: pub,
		feed:      feed,
	}
}

func (u *OrderService) SetRedisClient(client *redis.Client) {
	u.redisClient = client
}

func (u *OrderService) Feed() *OrderFeed {
	return u.feed
}

// NewOrderNumber returns a human-friendly order number.
func NewOrderNumber(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), id[:8])
}

// RecordOrder writes the purchase record for a confirmed payment. A second
// call with the same payment id returns the stored order with created false.
func (u *OrderService) RecordOrder(ctx context.Context, customer domain.Customer, items []domain.CartItem, paymentID, orderNumber string) (order *domain.Order, created bool, err error) {
	if existing, err := u.findByPayment(ctx, paymentID); err != nil || existing != nil {
		return existing, false, err
	}
	if len(items) == 0 {
		return nil, false, ErrEmptyCart
	}

	if orderNumber == "" {
		orderNumber = NewOrderNumber(time.Now())
	}

	totals := domain.ComputeTotals(items)
	order = &domain.Order{
		ID:            uuid.NewString(),
		UserID:        customer.ID,
		UserEmail:     customer.Email,
		UserName:      customer.Name,
		UserPhone:     customer.Phone,
		OrderNumber:   orderNumber,
		Items:         datatypes.NewJSONSlice(domain.LinesFromCart(items)),
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Shipping:      decimal.Zero,
		TotalPrice:    totals.Total,
		TotalItems:    domain.TotalQuantity(items),
		PaymentMethod: paymentMethodGateway,
		PaymentID:     nullable(paymentID),
		PaymentStatus: domain.StatusApproved,
	}

	if err := u.repo.Save(ctx, order); err != nil {
		// A concurrent writer for the same payment wins the unique index.
		if existing, lookupErr := u.findByPayment(ctx, paymentID); lookupErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	u.invalidateHistory(ctx, order.UserID)
	u.feed.Notify(*order)
	go u.publish(context.Background(), EventOrderRecorded, domain.OrderRecordedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		PaymentID:   paymentID,
		TotalPrice:  order.TotalPrice.String(),
		TotalItems:  order.TotalItems,
		CreatedAt:   order.PurchaseDate,
	})

	return order, true, nil
}

func (u *OrderService) findByPayment(ctx context.Context, paymentID string) (*domain.Order, error) {
	if paymentID == "" {
		return nil, nil
	}
	existing, err := u.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("order for payment %s already recorded as %s", paymentID, existing.ID)
	}
	return existing, nil
}

// nullable keeps empty ids out of the unique index.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (u *OrderService) publish(ctx context.Context, routingKey string, evt any) {
	if err := u.publisher.Publish(ctx, routingKey, evt); err != nil {
		log.Printf("Failed to publish %s event: %v", routingKey, err)
	}
}

func (u *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func historyKey(userID string) string {
	return "orders:user:" + userID
}

// ListUserOrders returns the user's orders, newest first. Empty is not an error.
func (u *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if u.redisClient != nil {
		if b, err := u.redisClient.Get(ctx, historyKey(userID)).Bytes(); err == nil {
			var orders []domain.Order
			if err := json.Unmarshal(b, &orders); err == nil {
				return orders, nil
			}
		}
	}

	orders, err := u.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	if u.redisClient != nil {
		if data, err := json.Marshal(orders); err == nil {
			u.redisClient.Set(ctx, historyKey(userID), data, historyCacheTTL)
		}
	}
	return orders, nil
}

func (u *OrderService) ListAllOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	orders, err := u.repo.FindAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateOrderStatus is the staff transition, e.g. pending → approved.
func (u *OrderService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	o, err := u.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == status {
		return o, nil
	}
	if o.PaymentStatus.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, o.PaymentStatus)
	}

	if err := u.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	old := o.PaymentStatus
	o.PaymentStatus = status
	u.invalidateHistory(ctx, o.UserID)
	u.feed.Notify(*o)
	go u.publish(context.Background(), EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		OldStatus: old,
		NewStatus: status,
		ChangedAt: time.Now().UTC(),
	})
	return o, nil
}

func (u *OrderService) DeleteOrder(ctx context.Context, id string) error {
	o, err := u.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	u.invalidateHistory(ctx, o.UserID)
	return nil
}

func (u *OrderService) invalidateHistory(ctx context.Context, userID string) {
	if u.redisClient != nil {
		u.redisClient.Del(ctx, historyKey(userID))
	}
}
