// Package reportreview реализует рассмотрение жалоб администратором:
// одобрение или отклонение и последующий расчёт возврата.
package reportreview

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uniform-portal/internal/backend"
	"github.com/ignatzorin/uniform-portal/internal/domain/valueobject"
	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/notify"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/workflow"
)

// Backend вызовы бэкенда, нужные администратору.
type Backend interface {
	ListReports(ctx context.Context) backend.Result[[]models.Feedback]
	ApproveReport(ctx context.Context, req models.ApproveReportRequest) backend.Result[struct{}]
	RefundTransaction(ctx context.Context, req models.RefundRequest) backend.Result[models.RefundRequest]
}

// Outcome итог отправки решения.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	// OutcomeRefundFailed решение сохранено, но расчёт возврата не удался.
	OutcomeRefundFailed Outcome = "refund_failed"
)

// SubmitResult результат SubmitApproval.
type SubmitResult struct {
	Outcome  Outcome                            `json:"outcome"`
	ReportID int64                              `json:"report_id"`
	Status   models.FeedbackStatus              `json:"status"`
	Refund   *models.RefundRequest              `json:"refund,omitempty"`
	Reports  workflow.ListView[models.Feedback] `json:"reports"`
}

// State состояние экрана администратора.
type State struct {
	Reports workflow.ListView[models.Feedback]      `json:"reports"`
	Dialog  workflow.Snapshot[models.ApprovalDraft] `json:"dialog"`
}

// Controller хранит список жалоб и диалог решения одного администратора.
type Controller struct {
	userID int64
	api    Backend
	notify notify.Notifier
	log    *logrus.Entry

	mu      sync.RWMutex
	reports []models.Feedback
	loaded  bool
	lastErr string

	dialog *workflow.Dialog[models.ApprovalDraft]
}

// NewController создаёт контроллер для пользователя userID.
func NewController(userID int64, api Backend, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{
		userID: userID,
		api:    api,
		notify: notifier,
		log:    logger.ForUser(userID).WithField("workflow", "reportreview"),
		dialog: workflow.NewDialog[models.ApprovalDraft](),
	}
}

// LoadReports загружает все жалобы и отзывы. При ошибке прежний список сохраняется.
func (c *Controller) LoadReports(ctx context.Context) workflow.ListView[models.Feedback] {
	res := c.api.ListReports(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !res.OK() {
		reason := res.Err().UserMessage("Не удалось загрузить жалобы")
		c.lastErr = reason
		c.log.WithError(res.Err()).Warn("reportreview: список жалоб не загружен")
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Жалобы", reason))
		return workflow.Failed(cloneFeedback(c.reports), reason)
	}

	c.reports = res.Value()
	c.loaded = true
	c.lastErr = ""
	return workflow.Loaded(cloneFeedback(c.reports))
}

// EnsureLoaded загружает список, если он ещё ни разу не был получен.
func (c *Controller) EnsureLoaded(ctx context.Context) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if !loaded {
		c.LoadReports(ctx)
	}
}

// Reports последний загруженный список.
func (c *Controller) Reports() workflow.ListView[models.Feedback] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastErr != "" {
		return workflow.Failed(cloneFeedback(c.reports), c.lastErr)
	}
	return workflow.Loaded(cloneFeedback(c.reports))
}

// Dialog снимок диалога решения.
func (c *Controller) Dialog() workflow.Snapshot[models.ApprovalDraft] {
	return c.dialog.Snapshot()
}

// State список и диалог вместе.
func (c *Controller) State() State {
	return State{Reports: c.Reports(), Dialog: c.Dialog()}
}

// OpenApproval открывает диалог решения по жалобе. Поля решения всегда сбрасываются.
func (c *Controller) OpenApproval(reportID int64, action models.ApprovalAction) (workflow.Snapshot[models.ApprovalDraft], error) {
	if !action.IsValid() {
		return workflow.Snapshot[models.ApprovalDraft]{}, apperror.Validation("action", "действие должно быть approve или reject")
	}

	c.mu.RLock()
	report, ok := models.FindFeedback(c.reports, reportID)
	c.mu.RUnlock()
	if !ok {
		return workflow.Snapshot[models.ApprovalDraft]{}, apperror.ErrReportNotFound
	}
	if !report.IsReport {
		return workflow.Snapshot[models.ApprovalDraft]{}, apperror.New(apperror.ErrCodeBadRequest, "отзыв не требует решения администратора")
	}
	if !valueobject.CanTransition(report.Status, valueobject.ResolutionStatus(action)) {
		return workflow.Snapshot[models.ApprovalDraft]{}, apperror.New(apperror.ErrCodeConflict, "жалоба уже рассмотрена")
	}

	if err := c.dialog.Open(models.ApprovalDraft{ReportID: reportID, Action: action}); err != nil {
		return workflow.Snapshot[models.ApprovalDraft]{}, workflow.AppError(err)
	}
	return c.dialog.Snapshot(), nil
}

// UpdateDraft меняет уровень проблемы и сообщения.
func (c *Controller) UpdateDraft(patch models.ApprovalPatch) (workflow.Snapshot[models.ApprovalDraft], error) {
	if patch.ProblemLevel != nil && *patch.ProblemLevel != "" && !patch.ProblemLevel.IsValid() {
		return workflow.Snapshot[models.ApprovalDraft]{}, apperror.Validation("problem_level", "неизвестный уровень проблемы")
	}

	err := c.dialog.Update(func(d *models.ApprovalDraft) error {
		if patch.ProblemLevel != nil {
			d.ProblemLevel = *patch.ProblemLevel
		}
		if patch.MessageForSchool != nil {
			d.MessageForSchool = *patch.MessageForSchool
		}
		if patch.MessageForPartner != nil {
			d.MessageForPartner = *patch.MessageForPartner
		}
		return nil
	})
	if err != nil {
		return workflow.Snapshot[models.ApprovalDraft]{}, workflow.AppError(err)
	}
	return c.dialog.Snapshot(), nil
}

// CloseApproval закрывает диалог. Уже отправленный запрос завершится, но его ответ не попадёт в диалог.
func (c *Controller) CloseApproval() {
	c.dialog.Close()
}

// SubmitApproval отправляет решение и запрашивает расчёт возврата.
func (c *Controller) SubmitApproval(ctx context.Context) (SubmitResult, error) {
	draft, epoch, err := c.dialog.Begin()
	if err != nil {
		return SubmitResult{}, workflow.AppError(err)
	}

	if draft.Action == models.ActionApprove && draft.ProblemLevel == "" {
		const msg = "Выберите уровень проблемы перед одобрением жалобы"
		c.dialog.Fail(epoch, msg)
		c.notify.Notify(c.userID, notify.ForField("problem_level", msg))
		return SubmitResult{}, apperror.Validation("problem_level", msg)
	}

	// Закрытие диалога не отменяет уже начатые запросы.
	ctx = context.WithoutCancel(ctx)
	log := c.log.WithFields(logrus.Fields{"report_id": draft.ReportID, "action": draft.Action})

	approved := draft.Action == models.ActionApprove
	res := c.api.ApproveReport(ctx, models.ApproveReportRequest{
		FeedbackID:        draft.ReportID,
		MessageForSchool:  strings.TrimSpace(draft.MessageForSchool),
		MessageForPartner: strings.TrimSpace(draft.MessageForPartner),
		Approved:          approved,
	})
	if !res.OK() {
		reason := res.Err().UserMessage(failureMessage(draft.Action))
		log.WithError(res.Err()).Warn("reportreview: решение не принято бэкендом")
		c.dialog.Fail(epoch, reason)
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Жалоба", reason))
		return SubmitResult{}, apperror.Wrap(res.Err(), apperror.ErrCodeUpstream, reason)
	}

	result := SubmitResult{
		Outcome:  OutcomeRejected,
		ReportID: draft.ReportID,
		Status:   valueobject.ResolutionStatus(draft.Action),
	}
	if approved {
		result.Outcome = OutcomeApproved
	}

	level := draft.ProblemLevel
	if level == "" {
		level = models.ProblemLevelLow
	}
	refund := c.api.RefundTransaction(ctx, models.RefundRequest{
		ReportID:     draft.ReportID,
		Decision:     valueobject.RefundDecisionFor(draft.Action),
		ProblemLevel: level,
	})
	if refund.OK() {
		value := refund.Value()
		result.Refund = &value
		c.notify.Notify(c.userID, notify.New(models.LevelSuccess, "Жалоба", successMessage(draft.Action)))
	} else {
		result.Outcome = OutcomeRefundFailed
		log.WithError(refund.Err()).Warn("reportreview: решение сохранено, возврат не рассчитан")
		c.notify.Notify(c.userID, notify.New(models.LevelWarning, "Жалоба",
			fmt.Sprintf("%s, но расчёт возврата не удался: %s", successMessage(draft.Action), refund.Err().UserMessage("ошибка сервера"))))
	}

	c.dialog.Finish(epoch)
	log.WithField("outcome", result.Outcome).Info("reportreview: решение отправлено")

	result.Reports = c.LoadReports(ctx)
	return result, nil
}

func failureMessage(action models.ApprovalAction) string {
	if action == models.ActionApprove {
		return "Не удалось одобрить жалобу"
	}
	return "Не удалось отклонить жалобу"
}

func successMessage(action models.ApprovalAction) string {
	if action == models.ActionApprove {
		return "Жалоба одобрена"
	}
	return "Жалоба отклонена"
}

func cloneFeedback(items []models.Feedback) []models.Feedback {
	if items == nil {
		return nil
	}
	return append([]models.Feedback(nil), items...)
}
