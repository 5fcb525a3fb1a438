/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. State transitions that touch both the user_subscriptions
 * table and the payment_history ledger run inside one transaction, with
 * the target row locked for the duration of the transition.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/billing-service/internal/domain"
)

const uniqueViolationCode = "23505"

// PostgresRepository is a concrete implementation of the Repository
// interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByEmail resolves a customer identity from an email address.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, name FROM users WHERE lower(btrim(email)) = lower(btrim($1))`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.Email, &user.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindPaymentMethodByID retrieves a stored payment instrument by its id.
func (r *PostgresRepository) FindPaymentMethodByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	query := `SELECT id, user_id, type, card_number, expiration_date FROM payment_methods WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&method.ID,
		&method.UserID,
		&method.Type,
		&method.CardNumber,
		&method.ExpirationDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return &method, nil
}

// FindPlanByProviderID retrieves a subscription plan by the provider's
// identifier for it.
func (r *PostgresRepository) FindPlanByProviderID(ctx context.Context, providerID string) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	query := `SELECT id, name, third_party_id, amount, billing_period FROM subscriptions WHERE third_party_id = $1`
	err := r.db.QueryRow(ctx, query, providerID).Scan(
		&plan.ID,
		&plan.Name,
		&plan.ProviderID,
		&plan.Amount,
		&plan.BillingPeriod,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// CreatePlan inserts a new subscription plan and fills in its generated id.
func (r *PostgresRepository) CreatePlan(ctx context.Context, plan *domain.SubscriptionPlan) error {
	query := `
		INSERT INTO subscriptions (name, third_party_id, amount, billing_period)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		plan.Name,
		plan.ProviderID,
		plan.Amount,
		plan.BillingPeriod,
	).Scan(&plan.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePlan
		}
		return err
	}
	return nil
}

// DeletePlan removes a subscription plan row by its internal id.
func (r *PostgresRepository) DeletePlan(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// FindUserSubscription retrieves the binding between a user and a plan.
func (r *PostgresRepository) FindUserSubscription(ctx context.Context, userID, subscriptionID int64) (*domain.UserSubscription, error) {
	var sub domain.UserSubscription
	query := `
		SELECT id, user_id, subscription_id, status, payment_method_id, end_at
		FROM user_subscriptions
		WHERE user_id = $1 AND subscription_id = $2
	`
	err := r.db.QueryRow(ctx, query, userID, subscriptionID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.SubscriptionID,
		&sub.Status,
		&sub.PaymentMethodID,
		&sub.EndAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// ListUserSubscriptions returns every subscription binding for a user.
func (r *PostgresRepository) ListUserSubscriptions(ctx context.Context, userID int64) ([]domain.UserSubscription, error) {
	query := `
		SELECT id, user_id, subscription_id, status, payment_method_id, end_at
		FROM user_subscriptions
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.UserSubscription
	for rows.Next() {
		var sub domain.UserSubscription
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.SubscriptionID,
			&sub.Status,
			&sub.PaymentMethodID,
			&sub.EndAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CreateUserSubscriptionWithHistory inserts a new user subscription and
// its first ledger entry atomically.
func (r *PostgresRepository) CreateUserSubscriptionWithHistory(ctx context.Context, sub *domain.UserSubscription, entry *domain.PaymentHistory) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO user_subscriptions (user_id, subscription_id, status, payment_method_id, end_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		sub.UserID,
		sub.SubscriptionID,
		sub.Status,
		sub.PaymentMethodID,
		sub.EndAt,
	).Scan(&sub.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUserSubscription
		}
		return err
	}

	if err := insertPaymentHistory(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateUserSubscriptionWithHistory applies a partial update to a user
// subscription and appends the matching ledger entry atomically. The row
// is locked first so concurrent transitions on the same binding serialize
// instead of losing updates.
func (r *PostgresRepository) UpdateUserSubscriptionWithHistory(ctx context.Context, id int64, update UserSubscriptionUpdate, entry *domain.PaymentHistory) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM user_subscriptions WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrUserSubscriptionNotFound
		}
		return err
	}

	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	if update.Status != nil {
		args = append(args, *update.Status)
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.EndAt != nil {
		args = append(args, *update.EndAt)
		setClauses = append(setClauses, fmt.Sprintf("end_at = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE user_subscriptions SET %s WHERE id = $1`, strings.Join(setClauses, ", "))
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return err
	}

	if err := insertPaymentHistory(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListPaymentHistory returns a user's ledger entries, newest first.
func (r *PostgresRepository) ListPaymentHistory(ctx context.Context, userID int64) ([]domain.PaymentHistory, error) {
	query := `
		SELECT id, user_id, subscription_id, amount, currency, payment_date, old_status, new_status
		FROM payment_history
		WHERE user_id = $1
		ORDER BY payment_date DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PaymentHistory
	for rows.Next() {
		var entry domain.PaymentHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SubscriptionID,
			&entry.Amount,
			&entry.Currency,
			&entry.PaymentDate,
			&entry.OldStatus,
			&entry.NewStatus,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func insertPaymentHistory(ctx context.Context, tx pgx.Tx, entry *domain.PaymentHistory) error {
	query := `
		INSERT INTO payment_history (user_id, subscription_id, amount, currency, payment_date, old_status, new_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return tx.QueryRow(ctx, query,
		entry.UserID,
		entry.SubscriptionID,
		entry.Amount,
		entry.Currency,
		entry.PaymentDate,
		entry.OldStatus,
		entry.NewStatus,
	).Scan(&entry.ID)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
