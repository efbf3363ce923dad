package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReconciler_RunOnce(t *testing.T) {
	st := new(mocks.MockSettingsStore)
	gw := new(mocks.MockGatewayClient)
	repo := new(mocks.MockOrderRepository)

	st.On("ListPending", mock.Anything).Return([]string{"approved-new", "approved-known", "rejected", "waiting", "broken"}, nil)

	st.On("Pending", mock.Anything, "approved-new").Return(&domain.PendingCheckout{
		PreferenceID: "approved-new", ExternalReference: "e1", Customer: testCustomer,
		Items: []domain.CartItem{cartItem("p1", 1000, 1)},
	}, nil)
	gw.On("SearchPayments", mock.Anything, "e1").Return([]domain.Payment{{ID: 1, Status: "approved"}}, nil)
	repo.On("FindByPaymentID", mock.Anything, "1").Return(nil, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
	st.On("DeletePending", mock.Anything, "approved-new").Return(nil)

	st.On("Pending", mock.Anything, "approved-known").Return(&domain.PendingCheckout{PreferenceID: "approved-known", ExternalReference: "e2"}, nil)
	gw.On("SearchPayments", mock.Anything, "e2").Return([]domain.Payment{{ID: 2, Status: "approved"}}, nil)
	repo.On("FindByPaymentID", mock.Anything, "2").Return(&domain.Order{ID: "o2"}, nil)
	st.On("DeletePending", mock.Anything, "approved-known").Return(nil)

	st.On("Pending", mock.Anything, "rejected").Return(&domain.PendingCheckout{PreferenceID: "rejected", ExternalReference: "e3"}, nil)
	gw.On("SearchPayments", mock.Anything, "e3").Return([]domain.Payment{{ID: 3, Status: "rejected"}}, nil)

	st.On("Pending", mock.Anything, "waiting").Return(&domain.PendingCheckout{PreferenceID: "waiting", ExternalReference: "e4"}, nil)
	gw.On("SearchPayments", mock.Anything, "e4").Return(nil, nil)

	st.On("Pending", mock.Anything, "broken").Return(&domain.PendingCheckout{PreferenceID: "broken", ExternalReference: "e5"}, nil)
	gw.On("SearchPayments", mock.Anything, "e5").Return(nil, errors.New("timeout"))

	r := NewReconciler(st, gw, NewOrderService(repo, nil, nil), time.Minute)
	n, err := r.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	st.AssertExpectations(t)
	gw.AssertExpectations(t)
	repo.AssertExpectations(t)
	st.AssertNotCalled(t, "DeletePending", mock.Anything, "rejected")
	st.AssertNotCalled(t, "DeletePending", mock.Anything, "waiting")
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	st := new(mocks.MockSettingsStore)
	st.On("ListPending", mock.Anything).Return([]string{}, nil).Maybe()

	r := NewReconciler(st, new(mocks.MockGatewayClient), NewOrderService(new(mocks.MockOrderRepository), nil, nil), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
