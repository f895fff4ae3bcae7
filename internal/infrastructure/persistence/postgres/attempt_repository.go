package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mtandao-labs/hotspotpay/internal/application"
	"github.com/mtandao-labs/hotspotpay/internal/domain"
	"github.com/mtandao-labs/hotspotpay/internal/infrastructure/persistence"
)

const attemptColumns = `id, merchant_request_id, checkout_request_id, phone_number, amount,
	plan_description, status, result_code, result_description, receipt_number,
	transaction_time, expires_at, raw_callback, created_at, updated_at`

// AttemptRepository persists payment attempts. It satisfies
// application.AttemptStore against either a pool or a transaction.
type AttemptRepository struct {
	db persistence.Executor
}

func NewAttemptRepository(db persistence.Executor) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (
			id, merchant_request_id, checkout_request_id, phone_number, amount,
			plan_description, status, result_code, result_description, receipt_number,
			transaction_time, expires_at, raw_callback, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	m := toDBModel(attempt)
	_, err := r.db.Exec(ctx, query,
		m.ID,
		m.MerchantRequestID,
		m.CheckoutRequestID,
		m.PhoneNumber,
		m.Amount,
		m.PlanDescription,
		m.Status,
		m.ResultCode,
		m.ResultDescription,
		m.ReceiptNumber,
		m.TransactionTime,
		m.ExpiresAt,
		m.RawCallback,
		m.CreatedAt,
		m.UpdatedAt,
	)

	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return fmt.Errorf("attempt with these correlation IDs already exists: %w", err)
		}
		return fmt.Errorf("failed to create payment attempt: %w", err)
	}

	return nil
}

func (r *AttemptRepository) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE checkout_request_id = $1`

	row := r.db.QueryRow(ctx, query, checkoutRequestID)
	return scanAttempt(row)
}

// FindByCorrelation looks an attempt up by its checkout request ID first and
// falls back to the merchant request ID, matching how confirmations are
// correlated.
func (r *AttemptRepository) FindByCorrelation(ctx context.Context, merchantRequestID, checkoutRequestID string) (*domain.PaymentAttempt, error) {
	attempt, err := r.FindByCheckoutID(ctx, checkoutRequestID)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, application.ErrAttemptNotFound) {
		return nil, err
	}

	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE merchant_request_id = $1`

	row := r.db.QueryRow(ctx, query, merchantRequestID)
	return scanAttempt(row)
}

// Finalize writes a terminal verdict onto an attempt, but only while it is
// still open. The status predicate makes concurrent duplicate confirmations
// settle exactly once: losers see applied == false.
func (r *AttemptRepository) Finalize(ctx context.Context, update application.TerminalUpdate) (bool, error) {
	query := `
		UPDATE payment_attempts
		SET status = $2,
			result_code = $3, result_description = $4, receipt_number = $5,
			transaction_time = $6, expires_at = $7, raw_callback = $8,
			updated_at = now()
		WHERE checkout_request_id = $1
		  AND status IN ('PENDING', 'PROCESSING')
	`

	tag, err := r.db.Exec(ctx, query,
		update.CheckoutRequestID,
		string(update.Status),
		update.ResultCode,
		update.ResultDescription,
		update.ReceiptNumber,
		update.TransactionTime,
		update.ExpiresAt,
		update.RawCallback,
	)

	if err != nil {
		return false, fmt.Errorf("failed to finalize payment attempt: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *AttemptRepository) LatestCompletedByPhone(ctx context.Context, phoneNumber string) (*domain.PaymentAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE phone_number = $1
		  AND status = 'COMPLETED'
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := r.db.QueryRow(ctx, query, phoneNumber)
	return scanAttempt(row)
}

// FindStuckProcessing returns open attempts created before the cutoff, oldest
// first, for the reconciliation sweep.
func (r *AttemptRepository) FindStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.PaymentAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE status IN ('PENDING', 'PROCESSING')
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("query stuck attempts: %w", err)
	}

	return collectAttempts(rows)
}

func (r *AttemptRepository) List(ctx context.Context, filter application.ListFilter) ([]*domain.PaymentAttempt, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR phone_number = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.Status, filter.Phone, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("query payment attempts: %w", err)
	}

	return collectAttempts(rows)
}

// scanAttempt converts a database row into a domain attempt.
// Returns application.ErrAttemptNotFound if the row doesn't exist.
func scanAttempt(row pgx.Row) (*domain.PaymentAttempt, error) {
	var m AttemptModel
	err := row.Scan(
		&m.ID, &m.MerchantRequestID, &m.CheckoutRequestID, &m.PhoneNumber, &m.Amount,
		&m.PlanDescription, &m.Status, &m.ResultCode, &m.ResultDescription, &m.ReceiptNumber,
		&m.TransactionTime, &m.ExpiresAt, &m.RawCallback, &m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to scan payment attempt: %w", err)
	}
	return toDomainModel(m), nil
}

func collectAttempts(rows pgx.Rows) ([]*domain.PaymentAttempt, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentAttempt, error) {
		var m AttemptModel
		err := row.Scan(
			&m.ID, &m.MerchantRequestID, &m.CheckoutRequestID, &m.PhoneNumber, &m.Amount,
			&m.PlanDescription, &m.Status, &m.ResultCode, &m.ResultDescription, &m.ReceiptNumber,
			&m.TransactionTime, &m.ExpiresAt, &m.RawCallback, &m.CreatedAt, &m.UpdatedAt,
		)
		return toDomainModel(m), err
	})

	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}
