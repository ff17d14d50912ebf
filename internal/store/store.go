package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"commerce-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBrandByUserID retrieves the brand owned by a user
func (s *Store) GetBrandByUserID(ctx context.Context, userID string) (*models.Brand, error) {
	var brand models.Brand
	err := s.db.GetContext(ctx, &brand, "SELECT * FROM brands WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("brand")
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

// GetServiceByID retrieves a bookable service by ID
func (s *Store) GetServiceByID(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	err := s.db.GetContext(ctx, &svc, "SELECT * FROM services WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("service")
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// GetProductsByIDs retrieves multiple live products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?) AND is_deleted = false", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// nextSequence bumps the named reference counter and returns the new value.
// The upsert is a single atomic statement, so concurrent transactions never
// observe the same sequence; the first caller of a counter gets 1.
func (s *Store) nextSequence(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var seq int64
	err := tx.GetContext(ctx, &seq, `
		INSERT INTO reference_counters (name, seq)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET seq = reference_counters.seq + 1
		RETURNING seq`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", name, err)
	}
	return seq, nil
}
