package services

import (
	"context"
	"sync"
	"testing"

	"checkout-service/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) (*CartService, *mocks.MockProductRepository) {
	repo := new(mocks.MockProductRepository)
	t.Cleanup(func() { repo.AssertExpectations(t) })
	return NewCartService(NewCatalogService(repo)), repo
}

func TestCartService_Add(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockProductRepository)
		adds          []int64
		expectedQty   int64
		expectedError error
	}{
		{
			name: "new line",
			setupMocks: func(r *mocks.MockProductRepository) {
				r.On("FindByID", mock.Anything, testProductID).Return(mockProduct(testProductID, 1000, 5), nil)
			},
			adds:        []int64{2},
			expectedQty: 2,
		},
		{
			name: "same product accumulates",
			setupMocks: func(r *mocks.MockProductRepository) {
				r.On("FindByID", mock.Anything, testProductID).Return(mockProduct(testProductID, 1000, 5), nil)
			},
			adds:        []int64{2, 3},
			expectedQty: 5,
		},
		{
			name: "more than stock",
			setupMocks: func(r *mocks.MockProductRepository) {
				r.On("FindByID", mock.Anything, testProductID).Return(mockProduct(testProductID, 1000, 1), nil)
			},
			adds:          []int64{2},
			expectedError: ErrInsufficientStock,
		},
		{
			name: "unavailable product",
			setupMocks: func(r *mocks.MockProductRepository) {
				p := mockProduct(testProductID, 1000, 5)
				p.Available = false
				r.On("FindByID", mock.Anything, testProductID).Return(p, nil)
			},
			adds:          []int64{1},
			expectedError: ErrProductUnavailable,
		},
		{
			name: "unknown product",
			setupMocks: func(r *mocks.MockProductRepository) {
				r.On("FindByID", mock.Anything, testProductID).Return(nil, nil)
			},
			adds:          []int64{1},
			expectedError: ErrProductNotFound,
		},
		{
			name:          "zero quantity",
			setupMocks:    func(r *mocks.MockProductRepository) {},
			adds:          []int64{0},
			expectedError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newCartService(t)
			tt.setupMocks(repo)

			var err error
			for _, q := range tt.adds {
				_, err = svc.Add(context.Background(), testUserID, testProductID, q)
			}

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			cart := svc.Get(testUserID)
			require.Len(t, cart.Items, 1)
			assert.Equal(t, tt.expectedQty, cart.Items[0].Quantity)
		})
	}
}

func TestCartService_SetQuantityRemoveClear(t *testing.T) {
	svc, repo := newCartService(t)
	repo.On("FindByID", mock.Anything, "a").Return(mockProduct("a", 1000, 10), nil)
	repo.On("FindByID", mock.Anything, "b").Return(mockProduct("b", 500, 10), nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, testUserID, "a", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, testUserID, "b", 1)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(testUserID, "a", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cart.Items[0].Quantity)

	_, err = svc.SetQuantity(testUserID, "a", 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	cart, err = svc.Remove(testUserID, "a")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "b", cart.Items[0].Product.ID)

	_, err = svc.Remove(testUserID, "a")
	assert.ErrorIs(t, err, ErrItemNotInCart)

	svc.Clear(testUserID)
	assert.Empty(t, svc.Items(testUserID))
}

func TestCartService_GetReturnsCopy(t *testing.T) {
	svc, repo := newCartService(t)
	repo.On("FindByID", mock.Anything, "a").Return(mockProduct("a", 1000, 10), nil)

	_, err := svc.Add(context.Background(), testUserID, "a", 1)
	require.NoError(t, err)

	cart := svc.Get(testUserID)
	cart.Items[0].Quantity = 99

	assert.Equal(t, int64(1), svc.Get(testUserID).Items[0].Quantity)
}

func TestCartService_SessionsAreIsolated(t *testing.T) {
	svc, repo := newCartService(t)
	repo.On("FindByID", mock.Anything, "a").Return(mockProduct("a", 1000, 1000), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			session := "s1"
			if n%2 == 1 {
				session = "s2"
			}
			_, err := svc.Add(context.Background(), session, "a", 1)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(10), svc.Get("s1").Items[0].Quantity)
	assert.Equal(t, int64(10), svc.Get("s2").Items[0].Quantity)
}
