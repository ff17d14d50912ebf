package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/service"
	"commerce-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders      *service.OrderService
	bookings    *service.BookingService
	webhookHash string
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, bookings *service.BookingService, webhookHash string) *Handler {
	return &Handler{
		orders:      orders,
		bookings:    bookings,
		webhookHash: webhookHash,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/flutterwave", h.paymentWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:orderNumber", h.getOrder)
		v1.POST("/orders/:orderNumber/pay", h.payOrder)
		v1.PATCH("/orders/:orderNumber/cancel", h.cancelOrder)

		v1.GET("/payments/orders/verify", h.verifyOrderPayment)
		v1.GET("/payments/bookings/verify", h.verifyBookingPayment)

		v1.GET("/brand/orders", h.listBrandOrders)
		v1.GET("/brand/orders/:orderNumber", h.getBrandOrder)
		v1.PATCH("/brand/orders/:orderNumber/status", h.updateBrandItemStatus)

		v1.POST("/bookings", h.createBooking)
		v1.GET("/bookings", h.listBookings)
		v1.GET("/bookings/:bookingNumber", h.getBooking)
		v1.POST("/bookings/:bookingNumber/pay", h.payBooking)
		v1.PATCH("/bookings/:bookingNumber/cancel", h.cancelBooking)

		v1.GET("/provider/bookings", h.listProviderBookings)
		v1.GET("/provider/bookings/:bookingNumber", h.getProviderBooking)
		v1.PATCH("/provider/bookings/:bookingNumber/status", h.updateBookingStatus)
	}
}

// userID extracts the authenticated caller set by the upstream auth proxy.
// Session issuance itself is outside this service.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return "", false
	}
	return id, true
}

// respondError maps domain errors onto HTTP status codes. Gateway failures
// deliberately hide provider internals behind a generic retryable message.
func respondError(c *gin.Context, err error) {
	var notFound *models.NotFoundError
	var stock *models.InsufficientStockError
	var transition *models.InvalidTransitionError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrEmptyCart), errors.Is(err, models.ErrInvalidSchedule),
		errors.Is(err, models.ErrVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stock), errors.As(err, &transition),
		errors.Is(err, models.ErrTotalMismatch), errors.Is(err, models.ErrProductsUnavailable),
		errors.Is(err, models.ErrAlreadyPaid), errors.Is(err, models.ErrAlreadyCancelled),
		errors.Is(err, models.ErrOrderCancelled), errors.Is(err, models.ErrBookingCancelled),
		errors.Is(err, models.ErrCancelAfterShipment), errors.Is(err, models.ErrCancelInProgress),
		errors.Is(err, models.ErrCancelCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrGateway):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment service unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) createOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	details, err := h.orders.CreateOrder(c.Request.Context(), &req, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": details})
}

func (h *Handler) listOrders(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListUserOrders(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	details, err := h.orders.GetOrderByNumber(c.Request.Context(), c.Param("orderNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) payOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	link, err := h.orders.InitializePayment(c.Request.Context(), c.Param("orderNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *Handler) cancelOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	details, err := h.orders.GetOrderByNumber(c.Request.Context(), c.Param("orderNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), details.Order.ID, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully and stock restocked", "order": order})
}

func (h *Handler) verifyOrderPayment(c *gin.Context) {
	txRef := c.Query("tx_ref")
	transactionID := c.Query("transaction_id")
	if txRef == "" || transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_ref and transaction_id are required"})
		return
	}

	order, err := h.orders.VerifyPayment(c.Request.Context(), txRef, transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) listBrandOrders(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	summaries, err := h.orders.ListBrandOrders(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": summaries})
}

func (h *Handler) getBrandOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	summary, err := h.orders.GetBrandOrderDetails(c.Request.Context(), uid, c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type updateItemStatusRequest struct {
	Status models.OrderItemStatus `json:"status" binding:"required"`
}

func (h *Handler) updateBrandItemStatus(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req updateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.UpdateBrandItemStatus(c.Request.Context(), uid, c.Param("orderNumber"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) createBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), &req, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking initiated successfully", "booking": booking})
}

func (h *Handler) listBookings(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListClientBookings(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) getBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetClientBooking(c.Request.Context(), c.Param("bookingNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) payBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	link, err := h.bookings.InitializePayment(c.Request.Context(), c.Param("bookingNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *Handler) cancelBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.CancelClientBooking(c.Request.Context(), c.Param("bookingNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": booking})
}

func (h *Handler) verifyBookingPayment(c *gin.Context) {
	txRef := c.Query("tx_ref")
	transactionID := c.Query("transaction_id")
	if txRef == "" || transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_ref and transaction_id are required"})
		return
	}

	booking, err := h.bookings.VerifyPayment(c.Request.Context(), txRef, transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (h *Handler) listProviderBookings(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListProviderBookings(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) getProviderBooking(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetProviderBooking(c.Request.Context(), c.Param("bookingNumber"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type updateBookingStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

func (h *Handler) updateBookingStatus(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request.Context(), uid, c.Param("bookingNumber"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
