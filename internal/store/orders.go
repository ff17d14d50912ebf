package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/refnum"

	"github.com/jmoiron/sqlx"
)

// lockProducts loads live products by ID under FOR UPDATE row locks so that
// concurrent order creations serialize on the same stock rows.
func (s *Store) lockProducts(ctx context.Context, tx *sqlx.Tx, ids []string) (map[string]*models.Product, error) {
	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?) AND is_deleted = false FOR UPDATE", ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var products []models.Product
	if err := tx.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}

	locked := make(map[string]*models.Product, len(products))
	for i := range products {
		locked[products[i].ID] = &products[i]
	}
	return locked, nil
}

// CreateOrder persists the order, its item snapshots and shipping address,
// and decrements stock for every aggregated quantity, all in one
// transaction. The order number is allocated from the per-year counter
// inside the same transaction, so a rollback never burns a gap into
// committed history visible as a duplicate.
func (s *Store) CreateOrder(
	ctx context.Context,
	order *models.Order,
	items []models.OrderItem,
	address *models.ShippingAddress,
	quantities map[string]int,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	productIDs := make([]string, 0, len(quantities))
	for id := range quantities {
		productIDs = append(productIDs, id)
	}

	locked, err := s.lockProducts(ctx, tx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to lock products: %w", err)
	}

	for id, qty := range quantities {
		product, ok := locked[id]
		if !ok {
			return models.ErrProductsUnavailable
		}
		if product.Stock < qty {
			return &models.InsufficientStockError{ProductName: product.Name, Remaining: product.Stock}
		}
	}

	seq, err := s.nextSequence(ctx, tx, refnum.OrderCounter(time.Now().Year()))
	if err != nil {
		return err
	}
	order.OrderNumber = refnum.OrderNumber(time.Now().Year(), seq)

	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (order_number, user_id, subtotal, delivery_fee, discount, total, status, payment_status, customer_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		order.OrderNumber, order.UserID, order.Subtotal, order.DeliveryFee,
		order.Discount, order.Total, order.Status, order.PaymentStatus, order.CustomerNote)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, product_id, product_name, product_slug, product_image, quantity, price, size, color, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].ProductName, items[i].ProductSlug,
			items[i].ProductImage, items[i].Quantity, items[i].Price, items[i].Size,
			items[i].Color, items[i].Status)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	address.OrderID = order.ID
	err = tx.GetContext(ctx, &address.ID, `
		INSERT INTO shipping_addresses (order_id, first_name, last_name, phone, address, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		address.OrderID, address.FirstName, address.LastName, address.Phone,
		address.Address, address.City, address.State)
	if err != nil {
		return fmt.Errorf("failed to insert shipping address: %w", err)
	}

	for id, qty := range quantities {
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1 WHERE id = $2", qty, id); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its reference code
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// GetShippingAddress retrieves the shipping address of an order
func (s *Store) GetShippingAddress(ctx context.Context, orderID string) (*models.ShippingAddress, error) {
	var addr models.ShippingAddress
	err := s.db.GetContext(ctx, &addr,
		"SELECT * FROM shipping_addresses WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("shipping address")
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// CancelOrder flips the order to CANCELLED and restores stock for every item
// in the same transaction. The row lock on the order makes a concurrent
// second cancel observe CANCELLED and fail, so stock is only released once.
func (s *Store) CancelOrder(ctx context.Context, orderID string) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("order")
	}
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusCancelled {
		return nil, models.ErrAlreadyCancelled
	}
	if !order.Cancellable() {
		return nil, models.ErrCancelAfterShipment
	}

	err = tx.GetContext(ctx, &order, `
		UPDATE orders SET status = $1, cancelled_at = NOW()
		WHERE id = $2
		RETURNING *`, models.OrderStatusCancelled, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	var items []models.OrderItem
	if err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID); err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock + $1 WHERE id = $2",
			item.Quantity, item.ProductID); err != nil {
			return nil, fmt.Errorf("failed to restock product %s: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderPaid applies a verified gateway transaction to the order. The
// write is conditional on payment_status still being PENDING, so whichever
// of the verify call, the webhook or a reconciliation job arrives first wins
// and later applications are no-ops. Returns whether this call applied the
// update.
func (s *Store) MarkOrderPaid(ctx context.Context, orderNumber, transactionRef string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, paid_at = NOW(), status = $2, transaction_ref = $3
		WHERE order_number = $4 AND payment_status = $5`,
		models.PaymentStatusPaid, models.OrderStatusProcessing,
		transactionRef, orderNumber, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetBrandOrders retrieves orders containing at least one item from the
// brand, newest first
func (s *Store) GetBrandOrders(ctx context.Context, brandID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT DISTINCT o.* FROM orders o
		JOIN order_items i ON i.order_id = o.id
		JOIN products p ON p.id = i.product_id
		WHERE p.brand_id = $1
		ORDER BY o.created_at DESC`, brandID)
	return orders, err
}

// GetBrandOrderItems retrieves the items of an order that belong to a brand
func (s *Store) GetBrandOrderItems(ctx context.Context, orderID, brandID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT i.* FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1 AND p.brand_id = $2`, orderID, brandID)
	return items, err
}

// UpdateBrandItemsStatus sets the fulfillment status on all of a brand's
// items in the order, then recomputes and persists the aggregate order
// status, in one transaction.
func (s *Store) UpdateBrandItemsStatus(ctx context.Context, orderID, brandID string, status models.OrderItemStatus) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE order_items
		SET status = $1,
		    shipped_at = CASE WHEN $1 = 'SHIPPED' THEN NOW() ELSE shipped_at END,
		    delivered_at = CASE WHEN $1 = 'DELIVERED' THEN NOW() ELSE delivered_at END
		WHERE order_id = $2
		  AND product_id IN (SELECT id FROM products WHERE brand_id = $3)`,
		status, orderID, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to update item statuses: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, models.NewNotFound("order items for brand")
	}

	var items []models.OrderItem
	if err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID); err != nil {
		return nil, err
	}

	aggregate := models.AggregateOrderStatus(items)

	var order models.Order
	err = tx.GetContext(ctx, &order, `
		UPDATE orders
		SET status = $1,
		    shipped_at = CASE WHEN $1 IN ('SHIPPED', 'DELIVERED') AND shipped_at IS NULL THEN NOW() ELSE shipped_at END,
		    delivered_at = CASE WHEN $1 = 'DELIVERED' AND delivered_at IS NULL THEN NOW() ELSE delivered_at END
		WHERE id = $2
		RETURNING *`, aggregate, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}
