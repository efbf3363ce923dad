package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"checkout-service/internal/domain"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("not enough stock")
	ErrItemNotInCart      = errors.New("product is not in the cart")
)

type productLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// CartService keeps one in-memory cart per session (user id).
type CartService struct {
	catalog productLookup

	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func NewCartService(catalog productLookup) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   make(map[string]*domain.Cart),
	}
}

// Get returns a copy; callers cannot mutate the session cart through it.
func (s *CartService) Get(sessionID string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.carts[sessionID])
}

func (s *CartService) Items(sessionID string) []domain.CartItem {
	return s.Get(sessionID).Items
}

func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int64) (domain.Cart, error) {
	if qty < 1 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !p.Available {
		return domain.Cart{}, ErrProductUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(sessionID)
	if i := cart.Find(productID); i >= 0 {
		newQty := cart.Items[i].Quantity + qty
		if newQty > p.Stock {
			return domain.Cart{}, fmt.Errorf("%w: %d requested, %d in stock", ErrInsufficientStock, newQty, p.Stock)
		}
		cart.Items[i].Quantity = newQty
		cart.Items[i].Product = *p
	} else {
		if qty > p.Stock {
			return domain.Cart{}, fmt.Errorf("%w: %d requested, %d in stock", ErrInsufficientStock, qty, p.Stock)
		}
		cart.Items = append(cart.Items, domain.CartItem{Product: *p, Quantity: qty})
	}
	return cloneCart(cart), nil
}

// SetQuantity replaces the quantity of a line; zero or less removes it.
func (s *CartService) SetQuantity(sessionID, productID string, qty int64) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(sessionID)
	i := cart.Find(productID)
	if i < 0 {
		return domain.Cart{}, ErrItemNotInCart
	}
	if qty <= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return cloneCart(cart), nil
	}
	if qty > cart.Items[i].Product.Stock {
		return domain.Cart{}, fmt.Errorf("%w: %d requested, %d in stock", ErrInsufficientStock, qty, cart.Items[i].Product.Stock)
	}
	cart.Items[i].Quantity = qty
	return cloneCart(cart), nil
}

func (s *CartService) Remove(sessionID, productID string) (domain.Cart, error) {
	return s.SetQuantity(sessionID, productID, 0)
}

func (s *CartService) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
}

func (s *CartService) cartLocked(sessionID string) *domain.Cart {
	c, ok := s.carts[sessionID]
	if !ok {
		c = &domain.Cart{}
		s.carts[sessionID] = c
	}
	return c
}

func cloneCart(c *domain.Cart) domain.Cart {
	if c == nil {
		return domain.Cart{Items: []domain.CartItem{}}
	}
	items := make([]domain.CartItem, len(c.Items))
	copy(items, c.Items)
	return domain.Cart{Items: items}
}
