package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/interfaces/iorderrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/models/order"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/postgres"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// OrderDal represents the order data access layer model.
type OrderDal struct {
	ID          int64
	ExternalID  string
	Description string
	ItemName    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:          o.ID,
		ExternalID:  o.ExternalID,
		Description: o.Description,
		ItemName:    o.ItemName,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// OrderRepository implements the order repository for PostgreSQL.
type OrderRepository struct {
	pgClient *postgres.Client
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(pgClient *postgres.Client) *OrderRepository {
	return &OrderRepository{
		pgClient: pgClient,
	}
}

// Insert creates one order row and returns its surrogate id. A duplicate
// external id fails deterministically with ErrDuplicateExternalID.
func (r *OrderRepository) Insert(ctx context.Context, ord order.Order) (int64, error) {
	query, args, err := sq.Insert("orders").
		Columns(
			"external_id",
			"description",
			"item_name",
			"created_at",
			"updated_at",
		).
		Values(
			ord.ExternalID,
			ord.Description,
			ord.ItemName,
			ord.CreatedAt,
			ord.UpdatedAt,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build order insert query: %w", err)
	}

	var id int64
	if err := r.pgClient.Pool().QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, fmt.Errorf("%w: %s", iorderrepo.ErrDuplicateExternalID, ord.ExternalID)
		}

		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	return id, nil
}

// GetByExternalID returns the order with the given external id.
func (r *OrderRepository) GetByExternalID(ctx context.Context, externalID string) (*order.Order, error) {
	query, args, err := sq.Select(
		"id",
		"external_id",
		"description",
		"item_name",
		"created_at",
		"updated_at",
	).
		From("orders").
		Where(sq.Eq{"external_id": externalID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order select query: %w", err)
	}

	var dal OrderDal
	err = r.pgClient.Pool().QueryRow(ctx, query, args...).Scan(
		&dal.ID,
		&dal.ExternalID,
		&dal.Description,
		&dal.ItemName,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, iorderrepo.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return dal.ToModel(), nil
}
