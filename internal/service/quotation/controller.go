// Package quotation реализует выбор коммерческого предложения школой и переход к оплате.
package quotation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uniform-portal/internal/backend"
	"github.com/ignatzorin/uniform-portal/internal/domain/valueobject"
	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/notify"
	"github.com/ignatzorin/uniform-portal/internal/paymentctx"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/workflow"
)

// Backend вызовы бэкенда, нужные школе.
type Backend interface {
	ListQuotations(ctx context.Context, orderID int64) backend.Result[[]models.Quotation]
	CreatePaymentURL(ctx context.Context, req models.PaymentURLRequest) backend.Result[models.PaymentURL]
}

// Item предложение в списке. Выбрать можно только PENDING, принятые показываются отметкой.
type Item struct {
	models.Quotation
	CanAccept bool `json:"can_accept"`
	Accepted  bool `json:"accepted"`
}

// Selection черновик итогового окна.
type Selection struct {
	OrderID   int64            `json:"order_id"`
	Quotation models.Quotation `json:"quotation"`
}

// Summary итоговое окно перед оплатой.
type Summary struct {
	QuotationID  int64                      `json:"quotation_id"`
	OrderID      int64                      `json:"order_id"`
	Manufacturer string                     `json:"manufacturer"`
	DeliveryDate models.Date                `json:"delivery_date"`
	Deadline     models.Date                `json:"acceptance_deadline"`
	Note         *string                    `json:"note,omitempty"`
	Breakdown    valueobject.PriceBreakdown `json:"breakdown"`
	TotalText    string                     `json:"total_text"`
}

// Redirect адрес внешней платёжной страницы.
type Redirect struct {
	URL   string `json:"url"`
	Total int64  `json:"total"`
}

// PaymentResult данные, восстановленные после возврата с платёжной страницы.
type PaymentResult struct {
	OrderID   int64                      `json:"order_id"`
	Quotation models.Quotation           `json:"quotation"`
	Breakdown valueobject.PriceBreakdown `json:"breakdown"`
}

// State состояние экрана предложений.
type State struct {
	OrderID    int64                        `json:"order_id"`
	Quotations workflow.ListView[Item]      `json:"quotations"`
	Dialog     workflow.Snapshot[Selection] `json:"dialog"`
	Summary    *Summary                     `json:"summary,omitempty"`
}

// Controller хранит предложения по заказу и окно выбора одной школы.
type Controller struct {
	userID     int64
	api        Backend
	store      paymentctx.Store
	notify     notify.Notifier
	returnPath string
	log        *logrus.Entry

	mu         sync.RWMutex
	orderID    int64
	quotations []models.Quotation
	lastErr    string

	dialog *workflow.Dialog[Selection]
}

// NewController создаёт контроллер. returnPath путь, на который платёжная система вернёт браузер.
func NewController(userID int64, api Backend, store paymentctx.Store, notifier notify.Notifier, returnPath string) *Controller {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{
		userID:     userID,
		api:        api,
		store:      store,
		notify:     notifier,
		returnPath: returnPath,
		log:        logger.ForUser(userID).WithField("workflow", "quotation"),
		dialog:     workflow.NewDialog[Selection](),
	}
}

// LoadQuotations загружает предложения по заказу. Автоматических повторов нет:
// при ошибке возвращается ветка error, повтор выполняется новым вызовом.
func (c *Controller) LoadQuotations(ctx context.Context, orderID int64) workflow.ListView[Item] {
	res := c.api.ListQuotations(ctx, orderID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.orderID != orderID {
		c.dialog.Close()
	}
	c.orderID = orderID

	if !res.OK() {
		reason := res.Err().UserMessage("Не удалось загрузить предложения")
		c.quotations = nil
		c.lastErr = reason
		c.log.WithError(res.Err()).WithField("order_id", orderID).Warn("quotation: предложения не загружены")
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Предложения", reason))
		return workflow.Failed[Item](nil, reason)
	}

	c.quotations = res.Value()
	c.lastErr = ""
	return workflow.Loaded(toItems(c.quotations))
}

// Quotations последний результат загрузки.
func (c *Controller) Quotations() workflow.ListView[Item] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastErr != "" {
		return workflow.Failed[Item](nil, c.lastErr)
	}
	return workflow.Loaded(toItems(c.quotations))
}

// State список, окно выбора и итог.
func (c *Controller) State() State {
	c.mu.RLock()
	orderID := c.orderID
	c.mu.RUnlock()

	snap := c.dialog.Snapshot()
	state := State{OrderID: orderID, Quotations: c.Quotations(), Dialog: snap}
	if snap.Draft != nil {
		if summary, err := summarize(*snap.Draft); err == nil {
			state.Summary = &summary
		}
	}
	return state
}

// SelectQuotation открывает итоговое окно для предложения в статусе PENDING.
func (c *Controller) SelectQuotation(quotationID int64) (Summary, error) {
	c.mu.RLock()
	orderID := c.orderID
	q, ok := findQuotation(c.quotations, quotationID)
	c.mu.RUnlock()

	if !ok {
		return Summary{}, apperror.ErrQuotationNotFound
	}
	if !q.CanAccept() {
		return Summary{}, apperror.New(apperror.ErrCodeConflict, "предложение уже недоступно для выбора")
	}

	sel := Selection{OrderID: orderID, Quotation: q}
	summary, err := summarize(sel)
	if err != nil {
		return Summary{}, err
	}
	if err := c.dialog.Open(sel); err != nil {
		return Summary{}, workflow.AppError(err)
	}
	return summary, nil
}

// CloseSummary закрывает итоговое окно.
func (c *Controller) CloseSummary() {
	c.dialog.Close()
}

// ProceedToPayment сохраняет контекст оплаты и запрашивает ссылку на платёжную страницу.
// При ошибке окно остаётся открытым, сохранённый контекст удаляется.
func (c *Controller) ProceedToPayment(ctx context.Context) (Redirect, error) {
	sel, epoch, err := c.dialog.Begin()
	if err != nil {
		return Redirect{}, workflow.AppError(err)
	}

	ctx = context.WithoutCancel(ctx)
	q := sel.Quotation
	log := c.log.WithFields(logrus.Fields{"order_id": sel.OrderID, "quotation_id": q.ID})

	breakdown, err := valueobject.NewPriceBreakdown(q.Price)
	if err != nil {
		c.dialog.Fail(epoch, "Некорректная цена предложения")
		return Redirect{}, err
	}

	pc := models.PaymentContext{
		Quotation:  q,
		OrderID:    sel.OrderID,
		ServiceFee: breakdown.ServiceFee,
		Total:      breakdown.Total,
	}
	if err := c.store.Save(ctx, c.userID, pc); err != nil {
		const msg = "Не удалось подготовить оплату"
		log.WithError(err).Error("quotation: контекст оплаты не сохранён")
		c.dialog.Fail(epoch, msg)
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Оплата", msg))
		return Redirect{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, msg)
	}

	res := c.api.CreatePaymentURL(ctx, models.PaymentURLRequest{
		Amount:      breakdown.Total,
		Description: fmt.Sprintf("Оплата заказа #%d: %s", sel.OrderID, q.GarmentName),
		OrderType:   models.PaymentOrderType,
		ReturnURL:   c.returnURL(q.ID),
	})
	if !res.OK() {
		reason := res.Err().UserMessage("Не удалось получить ссылку на оплату")
		log.WithError(res.Err()).Warn("quotation: ссылка на оплату не получена")
		if err := c.store.Discard(ctx, c.userID); err != nil {
			log.WithError(err).Warn("quotation: контекст оплаты не удалён")
		}
		c.dialog.Fail(epoch, reason)
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Оплата", reason))
		return Redirect{}, apperror.Wrap(res.Err(), apperror.ErrCodeUpstream, reason)
	}

	c.dialog.Finish(epoch)
	log.WithField("total", breakdown.Total).Info("quotation: переход к оплате")
	return Redirect{URL: res.Value().URL, Total: breakdown.Total}, nil
}

// ResumePayment читает контекст оплаты после возврата с платёжной страницы.
// Контекст читается один раз: повторный возврат его уже не найдёт.
func (c *Controller) ResumePayment(ctx context.Context, quotationID int64) (PaymentResult, error) {
	pc, err := c.store.Consume(ctx, c.userID)
	switch {
	case errors.Is(err, paymentctx.ErrNotFound):
		return PaymentResult{}, apperror.New(apperror.ErrCodeNotFound, "данные об оплате не найдены")
	case errors.Is(err, paymentctx.ErrExpired):
		return PaymentResult{}, apperror.New(apperror.ErrCodeConflict, "данные об оплате устарели")
	case err != nil:
		return PaymentResult{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать данные об оплате")
	}

	if pc.Quotation.ID != quotationID {
		c.log.WithFields(logrus.Fields{"expected": pc.Quotation.ID, "got": quotationID}).
			Warn("quotation: возврат с оплаты для другого предложения")
		return PaymentResult{}, apperror.New(apperror.ErrCodeBadRequest, "данные об оплате относятся к другому предложению")
	}

	c.notify.Notify(c.userID, notify.Newf(models.LevelInfo, "Оплата",
		"Оплата %s по заказу #%d обрабатывается", valueobject.FormatVND(pc.Total), pc.OrderID))

	return PaymentResult{
		OrderID:   pc.OrderID,
		Quotation: pc.Quotation,
		Breakdown: valueobject.PriceBreakdown{
			Price:      pc.Quotation.Price,
			ServiceFee: pc.ServiceFee,
			Total:      pc.Total,
		},
	}, nil
}

// returnURL путь возврата: тип оплаты и предложение кодируются в запросе.
func (c *Controller) returnURL(quotationID int64) string {
	q := url.Values{}
	q.Set("orderType", models.PaymentOrderType)
	q.Set("quotationId", strconv.FormatInt(quotationID, 10))
	return c.returnPath + "?" + q.Encode()
}

func summarize(sel Selection) (Summary, error) {
	q := sel.Quotation
	breakdown, err := valueobject.NewPriceBreakdown(q.Price)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		QuotationID:  q.ID,
		OrderID:      sel.OrderID,
		Manufacturer: q.GarmentName,
		DeliveryDate: q.EarliestDeliveryDate,
		Deadline:     q.AcceptanceDeadline,
		Note:         q.Note,
		Breakdown:    breakdown,
		TotalText:    valueobject.FormatVND(breakdown.Total),
	}, nil
}

func toItems(qs []models.Quotation) []Item {
	items := make([]Item, 0, len(qs))
	for _, q := range qs {
		items = append(items, Item{Quotation: q, CanAccept: q.CanAccept(), Accepted: q.IsAccepted()})
	}
	return items
}

func findQuotation(qs []models.Quotation, id int64) (models.Quotation, bool) {
	for _, q := range qs {
		if q.ID == id {
			return q, true
		}
	}
	return models.Quotation{}, false
}
