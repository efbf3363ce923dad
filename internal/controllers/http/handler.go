package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	catalog  *services.CatalogService
	cart     *services.CartService
	checkout *services.CheckoutService
	orders   *services.OrderService
}

func NewHandler(catalog *services.CatalogService, cart *services.CartService, checkout *services.CheckoutService, orders *services.OrderService) *Handler {
	return &Handler{catalog: catalog, cart: cart, checkout: checkout, orders: orders}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	auth := r.Group("/", AuthRequired(jwtSecret))

	auth.GET("/cart", h.GetCart)
	auth.POST("/cart/items", h.AddCartItem)
	auth.PUT("/cart/items/:productId", h.SetCartItemQuantity)
	auth.DELETE("/cart/items/:productId", h.RemoveCartItem)
	auth.DELETE("/cart", h.ClearCart)

	auth.POST("/checkout/preferences", h.CreatePreference)
	auth.GET("/checkout/preferences/:id/open", h.OpenCheckout)
	auth.GET("/checkout/preferences/:id/status", h.CheckPaymentStatus)
	auth.GET("/checkout/status", h.CheckPaymentStatus)
	auth.POST("/checkout/return", h.HandleReturn)

	auth.GET("/orders", h.ListOrders)
	auth.GET("/orders/stream", h.StreamOrders)
	auth.GET("/orders/:id", h.GetOrder)

	staff := auth.Group("/admin", RoleRequired(RoleStaff))
	staff.GET("/orders", h.ListAllOrders)
	staff.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	staff.DELETE("/orders/:id", h.DeleteOrder)
}

func (h *Handler) ListProducts(c *gin.Context) {
	category := domain.Category(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context(), category)
	if err != nil {
		writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, newCartResponse(h.cart.Get(currentCustomer(c).ID)))
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.cart.Add(c.Request.Context(), currentCustomer(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) SetCartItemQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.cart.SetQuantity(currentCustomer(c).ID, c.Param("productId"), *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	cart, err := h.cart.Remove(currentCustomer(c).ID, c.Param("productId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) ClearCart(c *gin.Context) {
	h.cart.Clear(currentCustomer(c).ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreatePreference(c *gin.Context) {
	url, prefID, err := h.checkout.CreatePreference(c.Request.Context(), currentCustomer(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatePreferenceResponse{CheckoutURL: url, PreferenceID: prefID})
}

func (h *Handler) OpenCheckout(c *gin.Context) {
	url, err := h.checkout.OpenCheckout(c.Request.Context(), currentCustomer(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}

func (h *Handler) HandleReturn(c *gin.Context) {
	var req PaymentReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := h.checkout.HandleReturn(c.Request.Context(), currentCustomer(c), req.URI)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CheckPaymentStatus(c *gin.Context) {
	res, err := h.checkout.CheckPaymentStatus(c.Request.Context(), currentCustomer(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusAccepted, PaymentStatusResponse{Resolved: false})
		return
	}
	c.JSON(http.StatusOK, PaymentStatusResponse{Resolved: true, Result: res})
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListUserOrders(c.Request.Context(), currentCustomer(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if o.UserID != currentCustomer(c).ID && !isStaff(c) {
		writeError(c, services.ErrOrderNotFound)
		return
	}
	c.JSON(http.StatusOK, o)
}

// StreamOrders pushes the caller's order changes as server-sent events
// until the client disconnects.
func (h *Handler) StreamOrders(c *gin.Context) {
	updates, release := h.orders.Feed().Subscribe(currentCustomer(c).ID)
	defer release()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case o, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("order", o)
			return true
		}
	})
}

func (h *Handler) ListAllOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	orders, err := h.orders.ListAllOrders(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	var apiErr *infra.APIError
	var connErr *infra.ConnectionError

	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrPreferenceNotFound),
		errors.Is(err, services.ErrItemNotInCart):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, infra.ErrGatewayNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "gatewayStatus": apiErr.StatusCode, "gatewayBody": apiErr.Body})
	case errors.As(err, &connErr), errors.Is(err, services.ErrNoCheckoutURL):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
