package paymentctx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

// PostgresStore хранит контексты в таблице payment_contexts.
type PostgresStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewPostgresStore создаёт хранилище поверх подключения sqlx.
func NewPostgresStore(db *sqlx.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

type contextRow struct {
	Payload   []byte    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (s *PostgresStore) Save(ctx context.Context, userID int64, pc models.PaymentContext) error {
	if pc.CreatedAt.IsZero() {
		pc.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(pc)
	if err != nil {
		return fmt.Errorf("paymentctx: не удалось сериализовать контекст: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_contexts (user_id, namespace, payload, created_at, expires_at)
		VALUES ($1, $2, $3, NOW(), NOW() + $4 * INTERVAL '1 second')
		ON CONFLICT (user_id, namespace) DO UPDATE
		SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`, userID, Namespace, payload, int64(s.ttl/time.Second))
	if err != nil {
		return fmt.Errorf("paymentctx: не удалось сохранить контекст: %w", err)
	}
	return nil
}

func (s *PostgresStore) Consume(ctx context.Context, userID int64) (models.PaymentContext, error) {
	var row contextRow
	err := s.db.GetContext(ctx, &row, `
		DELETE FROM payment_contexts
		WHERE user_id = $1 AND namespace = $2
		RETURNING payload, expires_at
	`, userID, Namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentContext{}, ErrNotFound
	}
	if err != nil {
		return models.PaymentContext{}, fmt.Errorf("paymentctx: не удалось прочитать контекст: %w", err)
	}

	if !time.Now().Before(row.ExpiresAt) {
		return models.PaymentContext{}, ErrExpired
	}

	var pc models.PaymentContext
	if err := json.Unmarshal(row.Payload, &pc); err != nil {
		return models.PaymentContext{}, fmt.Errorf("paymentctx: повреждённый контекст: %w", err)
	}
	return pc, nil
}

func (s *PostgresStore) Discard(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM payment_contexts WHERE user_id = $1 AND namespace = $2`, userID, Namespace)
	if err != nil {
		return fmt.Errorf("paymentctx: не удалось удалить контекст: %w", err)
	}
	return nil
}

func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payment_contexts WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("paymentctx: не удалось очистить устаревшие контексты: %w", err)
	}
	return res.RowsAffected()
}
