package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"

	"github.com/go-redis/redis/v8"
)

var ErrProductNotFound = errors.New("product not found")

const productCacheTTL = time.Minute

type CatalogService struct {
	repo        repository.ProductRepository
	redisClient *redis.Client
}

func NewCatalogService(r repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: r}
}

func (s *CatalogService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

func productKey(id string) string {
	return "product:" + id
}

// GetProduct reads through the redis cache when one is configured.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, productKey(id)).Bytes(); err == nil {
			var p domain.Product
			if err := json.Unmarshal(cached, &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	s.cache(ctx, p, productCacheTTL)
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	return s.repo.FindAll(ctx, category)
}

func (s *CatalogService) cache(ctx context.Context, p *domain.Product, ttl time.Duration) {
	if s.redisClient == nil {
		return
	}
	if data, err := json.Marshal(p); err == nil {
		s.redisClient.Set(ctx, productKey(p.ID), data, ttl)
	}
}

func (s *CatalogService) WarmupProductCache(ctx context.Context, productIDs []string) error {
	if s.redisClient == nil {
		return nil
	}

	for _, id := range productIDs {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			log.Printf("Failed to warm up cache for product %s: %v", id, err)
			continue
		}
		if p != nil {
			s.cache(ctx, p, 5*time.Minute)
		}
	}
	return nil
}
