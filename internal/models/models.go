package models

import (
	"time"

	"github.com/lib/pq"
)

// User carries the contact fields the commerce flows need. Account
// management itself lives outside this service.
type User struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	PhoneNumber string    `db:"phone_number" json:"phone_number,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Brand is a product vendor. One user owns at most one brand.
type Brand struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product represents a catalog product owned by a brand.
type Product struct {
	ID        string    `db:"id" json:"id"`
	BrandID   string    `db:"brand_id" json:"brand_id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Thumbnail string    `db:"thumbnail" json:"thumbnail,omitempty"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order represents a customer purchase of one or more products.
type Order struct {
	ID             string        `db:"id" json:"id"`
	OrderNumber    string        `db:"order_number" json:"order_number"`
	UserID         string        `db:"user_id" json:"user_id"`
	Subtotal       float64       `db:"subtotal" json:"subtotal"`
	DeliveryFee    float64       `db:"delivery_fee" json:"delivery_fee"`
	Discount       float64       `db:"discount" json:"discount"`
	Total          float64       `db:"total" json:"total"`
	Status         OrderStatus   `db:"status" json:"status"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	TransactionRef string        `db:"transaction_ref" json:"transaction_ref,omitempty"`
	CustomerNote   string        `db:"customer_note" json:"customer_note,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	PaidAt         *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	ShippedAt      *time.Time    `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time    `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt    *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// OrderItem is a snapshot of a purchased product line. Product name, slug
// and image are denormalized at creation time so later catalog edits do not
// rewrite order history.
type OrderItem struct {
	ID           string          `db:"id" json:"id"`
	OrderID      string          `db:"order_id" json:"order_id"`
	ProductID    string          `db:"product_id" json:"product_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	ProductSlug  string          `db:"product_slug" json:"product_slug"`
	ProductImage string          `db:"product_image" json:"product_image,omitempty"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Price        float64         `db:"price" json:"price"`
	Size         string          `db:"size" json:"size,omitempty"`
	Color        string          `db:"color" json:"color,omitempty"`
	Status       OrderItemStatus `db:"status" json:"status"`
	ShippedAt    *time.Time      `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time      `db:"delivered_at" json:"delivered_at,omitempty"`
}

// ShippingAddress is the 1:1 delivery address of an order.
type ShippingAddress struct {
	ID        string `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Phone     string `db:"phone" json:"phone"`
	Address   string `db:"address" json:"address"`
	City      string `db:"city" json:"city"`
	State     string `db:"state" json:"state"`
}

// Service is a bookable professional service. Read-only input here; catalog
// management is out of scope.
type Service struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Thumbnail string    `db:"thumbnail" json:"thumbnail,omitempty"`
	Price     float64   `db:"price" json:"price"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ServiceBooking represents a client booking of a provider's service.
type ServiceBooking struct {
	ID             string         `db:"id" json:"id"`
	BookingNumber  string         `db:"booking_number" json:"booking_number"`
	ClientID       string         `db:"client_id" json:"client_id"`
	UserID         string         `db:"user_id" json:"user_id"`
	ServiceID      string         `db:"service_id" json:"service_id"`
	Requirements   string         `db:"requirements" json:"requirements,omitempty"`
	Attachments    pq.StringArray `db:"attachments" json:"attachments,omitempty"`
	ScheduledAt    *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Price          float64        `db:"price" json:"price"`
	ServiceFee     float64        `db:"service_fee" json:"service_fee"`
	TotalAmount    float64        `db:"total_amount" json:"total_amount"`
	Status         BookingStatus  `db:"status" json:"status"`
	PaymentStatus  PaymentStatus  `db:"payment_status" json:"payment_status"`
	TransactionRef string         `db:"transaction_ref" json:"transaction_ref,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	PaidAt         *time.Time     `db:"paid_at" json:"paid_at,omitempty"`
}
