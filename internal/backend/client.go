// Package backend клиент REST API маркетплейса школьной формы.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/session"
)

const maxResponseBytes = 8 << 20

// Client обращается к бэкенду от имени текущего пользователя.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиента. Таймаут берётся из конфигурации.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListReports GET /feedbacks: все жалобы и отзывы для администратора.
func (c *Client) ListReports(ctx context.Context) Result[[]models.Feedback] {
	var out []models.Feedback
	if err := c.do(ctx, http.MethodGet, "/feedbacks", nil, &out); err != nil {
		return Fail[[]models.Feedback](err)
	}
	return Ok(out)
}

// ApproveReport POST /feedback/approval: решение администратора.
func (c *Client) ApproveReport(ctx context.Context, req models.ApproveReportRequest) Result[struct{}] {
	if err := c.do(ctx, http.MethodPost, "/feedback/approval", req, nil); err != nil {
		return Fail[struct{}](err)
	}
	return Ok(struct{}{})
}

// RefundTransaction POST /payment/refund: расчёт возврата после решения.
func (c *Client) RefundTransaction(ctx context.Context, req models.RefundRequest) Result[models.RefundRequest] {
	var out models.RefundRequest
	if err := c.do(ctx, http.MethodPost, "/payment/refund", req, &out); err != nil {
		return Fail[models.RefundRequest](err)
	}
	return Ok(out)
}

// ListDesignerFeedback POST /feedback/designer: жалобы и отзывы текущего дизайнера.
func (c *Client) ListDesignerFeedback(ctx context.Context) Result[[]models.Feedback] {
	var out []models.Feedback
	if err := c.do(ctx, http.MethodPost, "/feedback/designer", struct{}{}, &out); err != nil {
		return Fail[[]models.Feedback](err)
	}
	return Ok(out)
}

// GiveEvidence PUT /feedback/evidence: ответ партнёра на жалобу.
func (c *Client) GiveEvidence(ctx context.Context, req models.GiveEvidenceRequest) Result[struct{}] {
	if req.ImageURLs == nil {
		req.ImageURLs = []string{}
	}
	if err := c.do(ctx, http.MethodPut, "/feedback/evidence", req, nil); err != nil {
		return Fail[struct{}](err)
	}
	return Ok(struct{}{})
}

// ListQuotations GET /orders/{id}/quotations: предложения фабрик по заказу.
func (c *Client) ListQuotations(ctx context.Context, orderID int64) Result[[]models.Quotation] {
	var out []models.Quotation
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/quotations"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Fail[[]models.Quotation](err)
	}
	return Ok(out)
}

// CreatePaymentURL POST /payment/url: ссылка на внешнюю платёжную страницу.
func (c *Client) CreatePaymentURL(ctx context.Context, req models.PaymentURLRequest) Result[models.PaymentURL] {
	var out models.PaymentURL
	if err := c.do(ctx, http.MethodPost, "/payment/url", req, &out); err != nil {
		return Fail[models.PaymentURL](err)
	}
	if out.URL == "" {
		return Fail[models.PaymentURL](&APIError{Status: http.StatusOK, Message: "бэкенд не вернул ссылку на оплату"})
	}
	return Ok(out)
}

// do выполняет запрос и раскладывает тело ответа в out.
// Успехом считается только статус 200.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) *APIError {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "не удалось сформировать запрос", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Message: "не удалось сформировать запрос", Cause: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := logger.L().WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("backend: запрос не выполнен")
		return &APIError{Message: "сервер недоступен", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "не удалось прочитать ответ", Cause: err}
	}

	env := parseEnvelope(raw)
	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("backend: неуспешный ответ")
		return &APIError{Status: resp.StatusCode, Message: env.message}
	}

	if out == nil || len(env.payload) == 0 || string(env.payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.payload, out); err != nil {
		log.WithError(err).Warn("backend: не удалось разобрать ответ")
		return &APIError{Status: resp.StatusCode, Message: "некорректный ответ сервера", Cause: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
