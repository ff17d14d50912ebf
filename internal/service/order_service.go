package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"commerce-service/internal/broker"
	"commerce-service/internal/gateway"
	"commerce-service/internal/models"
	"commerce-service/internal/redisclient"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// totalTolerance is the absolute tolerance when comparing the caller's total
// against the server-computed one.
const totalTolerance = 0.01

const checkoutLinkTTL = 15 * time.Minute

// OrderService orchestrates the product purchase workflow: cart validation,
// pricing authority, transactional persistence with stock reservation, and
// payment reconciliation for orders.
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	gateway        *gateway.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger

	deliveryFee float64
	currency    string
	storeName   string
	frontendURL string
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	gw *gateway.Client,
	eventPublisher *broker.EventPublisher,
	deliveryFee float64,
	currency, storeName, frontendURL string,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		gateway:        gw,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		deliveryFee:    deliveryFee,
		currency:       currency,
		storeName:      storeName,
		frontendURL:    frontendURL,
	}
}

// OrderLineRequest is one cart line. A product may appear on several lines
// with different size/color variants.
type OrderLineRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Price     float64 `json:"price" binding:"required"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Items        []OrderLineRequest `json:"items" binding:"required,min=1"`
	FirstName    string             `json:"first_name" binding:"required"`
	LastName     string             `json:"last_name" binding:"required"`
	Phone        string             `json:"phone" binding:"required"`
	Address      string             `json:"address" binding:"required"`
	City         string             `json:"city" binding:"required"`
	State        string             `json:"state" binding:"required"`
	CustomerNote string             `json:"customer_note,omitempty"`
	TotalAmount  float64            `json:"total_amount" binding:"required"`
}

// OrderDetails bundles an order with its items and shipping address.
type OrderDetails struct {
	Order           *models.Order          `json:"order"`
	Items           []models.OrderItem     `json:"items"`
	ShippingAddress *models.ShippingAddress `json:"shipping_address,omitempty"`
}

// CreateOrder validates the cart against the live catalog, recomputes the
// total server-side, and persists order, items, address and stock decrement
// in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, userID string) (*OrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.ErrEmptyCart
	}

	quantities := aggregateQuantities(req.Items)

	productIDs := make([]string, 0, len(quantities))
	for id := range quantities {
		productIDs = append(productIDs, id)
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) != len(productIDs) {
		util.OrdersFailedTotal.WithLabelValues("products_unavailable").Inc()
		return nil, models.ErrProductsUnavailable
	}

	productMap := make(map[string]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	// Fast-fail stock check. The store re-checks under row locks inside the
	// transaction; this only avoids opening one for obvious rejections.
	for id, qty := range quantities {
		if product := productMap[id]; product.Stock < qty {
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, &models.InsufficientStockError{ProductName: product.Name, Remaining: product.Stock}
		}
	}

	subtotal := calculateSubtotal(req.Items)
	discount := 0.0 // promotions are not implemented yet
	total := subtotal + s.deliveryFee - discount

	if math.Abs(total-req.TotalAmount) > totalTolerance {
		util.OrdersFailedTotal.WithLabelValues("total_mismatch").Inc()
		return nil, models.ErrTotalMismatch
	}

	order := &models.Order{
		UserID:        userID,
		Subtotal:      subtotal,
		DeliveryFee:   s.deliveryFee,
		Discount:      discount,
		Total:         total,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		CustomerNote:  req.CustomerNote,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product := productMap[line.ProductID]
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductSlug:  product.Slug,
			ProductImage: product.Thumbnail,
			Quantity:     line.Quantity,
			Price:        line.Price,
			Size:         line.Size,
			Color:        line.Color,
			Status:       models.ItemStatusPending,
		})
	}

	address := &models.ShippingAddress{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
	}

	if err := s.store.CreateOrder(ctx, order, items, address, quantities); err != nil {
		if _, ok := err.(*models.InsufficientStockError); ok {
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
		} else {
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.Float64("total", order.Total))

	event := &models.OrderCreatedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderCreated),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		ItemCount:   len(items),
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish order.created event", zap.Error(err))
	}

	return &OrderDetails{Order: order, Items: items, ShippingAddress: address}, nil
}

// CancelOrder cancels the caller's order and restores stock. Only PENDING or
// PROCESSING orders with no shipment can be cancelled; a second cancel fails
// with ErrAlreadyCancelled and releases nothing twice.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.NewNotFound("order")
	}

	cancelled, err := s.store.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled and stock restored",
		zap.String("order_number", cancelled.OrderNumber))

	event := &models.OrderCancelledEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderCancelled),
		OrderID:     cancelled.ID,
		OrderNumber: cancelled.OrderNumber,
		UserID:      cancelled.UserID,
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish order.cancelled event", zap.Error(err))
	}

	return cancelled, nil
}

// GetOrder retrieves the caller's order with items and address.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*OrderDetails, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.NewNotFound("order")
	}
	return s.loadDetails(ctx, order)
}

// GetOrderByNumber retrieves the caller's order by reference code.
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber, userID string) (*OrderDetails, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.NewNotFound("order")
	}
	return s.loadDetails(ctx, order)
}

// ListUserOrders retrieves the caller's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

func (s *OrderService) loadDetails(ctx context.Context, order *models.Order) (*OrderDetails, error) {
	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	address, err := s.store.GetShippingAddress(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetails{Order: order, Items: items, ShippingAddress: address}, nil
}

// InitializePayment opens a hosted checkout session for an unpaid order and
// returns the gateway link. Repeated calls inside the cache window reuse the
// existing session.
func (s *OrderService) InitializePayment(ctx context.Context, orderNumber, userID string) (string, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.InitializePayment")
	defer span.End()

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return "", err
	}
	if order.UserID != userID {
		return "", models.NewNotFound("order")
	}
	if order.Status == models.OrderStatusCancelled {
		return "", models.ErrOrderCancelled
	}
	if order.PaidAt != nil {
		return "", models.ErrAlreadyPaid
	}

	if link, err := s.redis.GetCheckoutLink(ctx, orderNumber); err == nil && link != "" {
		return link, nil
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	address, err := s.store.GetShippingAddress(ctx, order.ID)
	if err != nil {
		return "", err
	}

	paymentReq := &gateway.PaymentRequest{
		TxRef:       order.OrderNumber,
		Amount:      formatAmount(order.Total),
		Currency:    s.currency,
		RedirectURL: fmt.Sprintf("%s/orders/%s?payment=success", s.frontendURL, order.OrderNumber),
		Customer: gateway.Customer{
			Email:       user.Email,
			PhoneNumber: address.Phone,
			Name:        fmt.Sprintf("%s %s", address.FirstName, address.LastName),
		},
		Customizations: gateway.Customizations{
			Title:       s.storeName,
			Description: fmt.Sprintf("Payment for Order #%s", order.OrderNumber),
		},
	}

	start := time.Now()
	link, err := s.gateway.CreatePayment(ctx, paymentReq)
	util.GatewayLatency.WithLabelValues("create_payment").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Payment init failed",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return "", models.ErrGateway
	}

	util.PaymentsInitializedTotal.Inc()
	if err := s.redis.CacheCheckoutLink(ctx, orderNumber, link, checkoutLinkTTL); err != nil {
		s.logger.Warn("Failed to cache checkout link", zap.Error(err))
	}

	return link, nil
}

// VerifyPayment reconciles a gateway transaction against the order. It is
// idempotent: whichever of the redirect verify call, the webhook, or a
// reconciliation job arrives first applies the update, later arrivals see
// the already-paid order and change nothing.
func (s *OrderService) VerifyPayment(ctx context.Context, txRef, transactionID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.VerifyPayment")
	defer span.End()

	if seen, err := s.redis.TransactionSeen(ctx, txRef); err == nil && seen {
		util.PaymentsVerifiedTotal.WithLabelValues("duplicate").Inc()
		return s.store.GetOrderByNumber(ctx, txRef)
	}

	start := time.Now()
	result, err := s.gateway.VerifyTransaction(ctx, transactionID)
	util.GatewayLatency.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Gateway verify call failed",
			zap.String("tx_ref", txRef),
			zap.Error(err))
		return nil, models.ErrGateway
	}

	if !result.Successful(txRef) {
		util.PaymentsVerifiedTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("Transaction verification rejected",
			zap.String("tx_ref", txRef),
			zap.String("gateway_status", result.Data.Status))
		return nil, models.ErrVerificationFailed
	}

	applied, err := s.store.MarkOrderPaid(ctx, txRef, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	order, err := s.store.GetOrderByNumber(ctx, txRef)
	if err != nil {
		return nil, err
	}

	if !applied {
		// Another entry point won the race; nothing to do.
		util.PaymentsVerifiedTotal.WithLabelValues("duplicate").Inc()
		return order, nil
	}

	util.PaymentsVerifiedTotal.WithLabelValues("applied").Inc()
	s.logger.Info("Order payment confirmed",
		zap.String("order_number", txRef),
		zap.String("transaction_ref", transactionID))

	if _, err := s.redis.MarkTransactionSeen(ctx, txRef, 24*time.Hour); err != nil {
		s.logger.Warn("Failed to mark transaction seen", zap.Error(err))
	}
	if err := s.redis.InvalidateCheckoutLink(ctx, txRef); err != nil {
		s.logger.Warn("Failed to drop checkout link", zap.Error(err))
	}

	event := &models.OrderPaidEvent{
		BaseEvent:      newBaseEvent(models.EventTypeOrderPaid),
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Total:          order.Total,
		TransactionRef: transactionID,
	}
	if err := s.eventPublisher.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish order.paid event", zap.Error(err))
	}

	return order, nil
}

// BrandOrderSummary is an order as seen by one brand: only that brand's
// items, plus what the brand earned from them.
type BrandOrderSummary struct {
	Order         *models.Order      `json:"order"`
	Items         []models.OrderItem `json:"items"`
	BrandEarnings float64            `json:"brand_earnings"`
}

// ListBrandOrders retrieves orders containing the caller's brand items.
func (s *OrderService) ListBrandOrders(ctx context.Context, userID string) ([]BrandOrderSummary, error) {
	brand, err := s.store.GetBrandByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.store.GetBrandOrders(ctx, brand.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]BrandOrderSummary, 0, len(orders))
	for i := range orders {
		items, err := s.store.GetBrandOrderItems(ctx, orders[i].ID, brand.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, BrandOrderSummary{
			Order:         &orders[i],
			Items:         items,
			BrandEarnings: brandEarnings(items),
		})
	}
	return summaries, nil
}

// GetBrandOrderDetails retrieves one order restricted to the caller's brand
// items.
func (s *OrderService) GetBrandOrderDetails(ctx context.Context, userID, orderNumber string) (*BrandOrderSummary, error) {
	brand, err := s.store.GetBrandByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetBrandOrderItems(ctx, order.ID, brand.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, models.NewNotFound("order for brand")
	}

	return &BrandOrderSummary{Order: order, Items: items, BrandEarnings: brandEarnings(items)}, nil
}

// UpdateBrandItemStatus sets the fulfillment status on the caller brand's
// items and recomputes the aggregate order status.
func (s *OrderService) UpdateBrandItemStatus(ctx context.Context, userID, orderNumber string, status models.OrderItemStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateBrandItemStatus")
	defer span.End()

	brand, err := s.store.GetBrandByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	order, err := s.store.UpdateBrandItemsStatus(ctx, existing.ID, brand.ID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Brand item status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("brand_id", brand.ID),
		zap.String("item_status", string(status)),
		zap.String("order_status", string(order.Status)))
	return order, nil
}

// aggregateQuantities sums requested quantities per product across variant
// lines.
func aggregateQuantities(items []OrderLineRequest) map[string]int {
	quantities := make(map[string]int, len(items))
	for _, item := range items {
		quantities[item.ProductID] += item.Quantity
	}
	return quantities
}

// calculateSubtotal sums line price times quantity across the cart.
func calculateSubtotal(items []OrderLineRequest) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

func brandEarnings(items []models.OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
