// Package paymentctx хранит контекст оплаты на время редиректа на платёжную страницу.
//
// Запись одна на пользователя, читается ровно один раз и истекает по TTL,
// чтобы не переиспользоваться при следующем, не связанном визите.
package paymentctx

import (
	"context"
	"errors"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

// Namespace ключ записи контекста оплаты заказа.
const Namespace = "orderPaymentDetails"

var (
	ErrNotFound = errors.New("paymentctx: контекст оплаты не найден")
	ErrExpired  = errors.New("paymentctx: контекст оплаты устарел")
)

// Store хранилище контекста оплаты.
type Store interface {
	// Save сохраняет контекст, заменяя предыдущий.
	Save(ctx context.Context, userID int64, pc models.PaymentContext) error
	// Consume возвращает контекст и удаляет его.
	Consume(ctx context.Context, userID int64) (models.PaymentContext, error)
	// Discard удаляет контекст без чтения.
	Discard(ctx context.Context, userID int64) error
	// Purge удаляет все истёкшие записи.
	Purge(ctx context.Context) (int64, error)
}
