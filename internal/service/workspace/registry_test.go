package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/uniform-portal/internal/backend"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/paymentctx"
)

// stubBackend отвечает пустыми списками.
type stubBackend struct{}

func (stubBackend) ListReports(context.Context) backend.Result[[]models.Feedback] {
	return backend.Ok([]models.Feedback{})
}

func (stubBackend) ApproveReport(context.Context, models.ApproveReportRequest) backend.Result[struct{}] {
	return backend.Ok(struct{}{})
}

func (stubBackend) RefundTransaction(_ context.Context, req models.RefundRequest) backend.Result[models.RefundRequest] {
	return backend.Ok(req)
}

func (stubBackend) ListDesignerFeedback(context.Context) backend.Result[[]models.Feedback] {
	return backend.Ok([]models.Feedback{})
}

func (stubBackend) GiveEvidence(context.Context, models.GiveEvidenceRequest) backend.Result[struct{}] {
	return backend.Ok(struct{}{})
}

func (stubBackend) ListQuotations(context.Context, int64) backend.Result[[]models.Quotation] {
	return backend.Ok([]models.Quotation{})
}

func (stubBackend) CreatePaymentURL(context.Context, models.PaymentURLRequest) backend.Result[models.PaymentURL] {
	return backend.Ok(models.PaymentURL{URL: "https://pay.example.com"})
}

func newRegistry(ttl time.Duration) *Registry {
	return NewRegistry(Deps{
		API:        stubBackend{},
		Payments:   paymentctx.NewMemoryStore(time.Minute),
		ReturnPath: "/school/payment/result",
	}, ttl)
}

func TestRegistry_SameControllerPerUser(t *testing.T) {
	r := newRegistry(time.Hour)

	assert.Same(t, r.Reports(1), r.Reports(1))
	assert.NotSame(t, r.Reports(1), r.Reports(2))
	assert.Same(t, r.Evidence(1), r.Evidence(1))
	assert.Same(t, r.Quotations(1), r.Quotations(1))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_EvictIdle(t *testing.T) {
	r := newRegistry(time.Hour)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	first := r.Reports(1)
	r.Reports(2)

	now = now.Add(45 * time.Minute)
	r.Evidence(2)

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, r.Evict())
	assert.Equal(t, 1, r.Len())

	// Пользователь 1 получает новый контроллер с чистым состоянием.
	assert.NotSame(t, first, r.Reports(1))
}

func TestRegistry_NoEvictionWithoutTTL(t *testing.T) {
	r := newRegistry(0)
	r.Reports(1)
	r.now = func() time.Time { return time.Now().Add(100 * time.Hour) }

	assert.Equal(t, 0, r.Evict())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := newRegistry(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не остановился после отмены контекста")
	}
}

func TestRegistry_HoldPreventsEviction(t *testing.T) {
	r := newRegistry(time.Hour)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ctrl := r.Evidence(1)
	release := r.Hold(1)

	// Загрузка дольше idleTTL.
	now = now.Add(3 * time.Hour)
	assert.Equal(t, 0, r.Evict())

	release()
	release()
	assert.Equal(t, 0, r.Evict())
	assert.Same(t, ctrl, r.Evidence(1))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, r.Evict())
	assert.Equal(t, 0, r.Len())
}
