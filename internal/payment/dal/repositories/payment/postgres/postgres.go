package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/interfaces/ipaymentrepo"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/models/payment"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/postgres"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentDal represents the payment data access layer model.
type PaymentDal struct {
	ID              int64
	PaymentID       string
	Amount          decimal.Decimal
	OrderExternalID string
	Description     string
	ItemName        string
	OrderCreatedAt  time.Time
	CreatedAt       time.Time
}

// ToModel converts PaymentDal to the service layer Payment model.
func (p *PaymentDal) ToModel() *payment.Payment {
	return &payment.Payment{
		ID:              p.ID,
		PaymentID:       p.PaymentID,
		Amount:          p.Amount,
		OrderExternalID: p.OrderExternalID,
		Description:     p.Description,
		ItemName:        p.ItemName,
		OrderCreatedAt:  p.OrderCreatedAt,
		CreatedAt:       p.CreatedAt,
	}
}

// PaymentRepository implements the payment repository for PostgreSQL.
type PaymentRepository struct {
	pgClient *postgres.Client
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(pgClient *postgres.Client) *PaymentRepository {
	return &PaymentRepository{
		pgClient: pgClient,
	}
}

// Save persists a derived payment. A conflicting payment id is a no-op,
// which keeps the derivation idempotent under event redelivery.
func (r *PaymentRepository) Save(ctx context.Context, p payment.Payment) error {
	query, args, err := sq.Insert("payments").
		Columns(
			"payment_id",
			"amount",
			"order_external_id",
			"description",
			"item_name",
			"order_created_at",
			"created_at",
		).
		Values(
			p.PaymentID,
			p.Amount,
			p.OrderExternalID,
			p.Description,
			p.ItemName,
			p.OrderCreatedAt,
			p.CreatedAt,
		).
		Suffix("ON CONFLICT (payment_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payment insert query: %w", err)
	}

	_, err = r.pgClient.Pool().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// GetByPaymentID returns the payment with the given payment id.
func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*payment.Payment, error) {
	query, args, err := sq.Select(
		"id",
		"payment_id",
		"amount",
		"order_external_id",
		"description",
		"item_name",
		"order_created_at",
		"created_at",
	).
		From("payments").
		Where(sq.Eq{"payment_id": paymentID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payment select query: %w", err)
	}

	var dal PaymentDal
	err = r.pgClient.Pool().QueryRow(ctx, query, args...).Scan(
		&dal.ID,
		&dal.PaymentID,
		&dal.Amount,
		&dal.OrderExternalID,
		&dal.Description,
		&dal.ItemName,
		&dal.OrderCreatedAt,
		&dal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ipaymentrepo.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return dal.ToModel(), nil
}
