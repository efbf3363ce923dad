package sql

import (
	"context"
	"errors"
	"log"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		return errors.New("order id is required")
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		log.Printf("order save error: %v", err)
		return err
	}
	log.Printf("order %s saved (payment %s)", order.ID, order.PaymentRef())
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *orderRepo) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return r.first(ctx, "payment_id = ?", paymentID)
}

func (r *orderRepo) first(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Where(query, arg).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("order lookup error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("purchase_date DESC").Find(&out).Error; err != nil {
		log.Printf("FindByUser error: %v", err)
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *orderRepo) FindAll(ctx context.Context, limit int) ([]domain.Order, error) {
	var out []domain.Order
	q := r.db.WithContext(ctx).Order("purchase_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		log.Printf("FindAll error: %v", err)
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("payment_status", status)
	if res.Error != nil {
		log.Printf("UpdateStatus error: %v", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Order{})
	if res.Error != nil {
		log.Printf("Delete error: %v", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
