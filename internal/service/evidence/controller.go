// Package evidence реализует ответ дизайнера на жалобу: текст и ровно один вид доказательств.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uniform-portal/internal/backend"
	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/notify"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/upload"
	"github.com/ignatzorin/uniform-portal/internal/workflow"
)

// Backend вызовы бэкенда, нужные дизайнеру.
type Backend interface {
	ListDesignerFeedback(ctx context.Context) backend.Result[[]models.Feedback]
	GiveEvidence(ctx context.Context, req models.GiveEvidenceRequest) backend.Result[struct{}]
}

// Limits ограничения размеров файлов.
type Limits struct {
	MaxImageBytes int64
	MaxVideoBytes int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxImageBytes <= 0 {
		l.MaxImageBytes = models.MaxImageBytes
	}
	if l.MaxVideoBytes <= 0 {
		l.MaxVideoBytes = models.MaxVideoBytes
	}
	return l
}

// FileOutcome результат загрузки одного файла пакета.
type FileOutcome struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// BatchResult результат загрузки пакета изображений.
type BatchResult struct {
	Uploaded  int           `json:"uploaded"`
	Failed    int           `json:"failed"`
	Files     []FileOutcome `json:"files"`
	ImageURLs []string      `json:"image_urls"`
}

// SubmitResult результат отправки ответа.
type SubmitResult struct {
	ReportID int64                              `json:"report_id"`
	Feedback workflow.ListView[models.Feedback] `json:"feedback"`
}

// State состояние экрана дизайнера.
type State struct {
	Feedback workflow.ListView[models.Feedback]      `json:"feedback"`
	Loading  bool                                    `json:"loading"`
	Dialog   workflow.Snapshot[models.EvidenceDraft] `json:"dialog"`
}

// Controller хранит список жалоб дизайнера и диалог ответа.
type Controller struct {
	userID   int64
	api      Backend
	uploader upload.Provider
	notify   notify.Notifier
	limits   Limits
	log      *logrus.Entry

	mu      sync.RWMutex
	items   []models.Feedback
	loaded  bool
	loading bool
	lastErr string

	dialog *workflow.Dialog[models.EvidenceDraft]
}

// NewController создаёт контроллер для пользователя userID.
func NewController(userID int64, api Backend, uploader upload.Provider, notifier notify.Notifier, limits Limits) *Controller {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{
		userID:   userID,
		api:      api,
		uploader: uploader,
		notify:   notifier,
		limits:   limits.withDefaults(),
		log:      logger.ForUser(userID).WithField("workflow", "evidence"),
		dialog:   workflow.NewDialog[models.EvidenceDraft](),
	}
}

// LoadFeedback загружает жалобы и отзывы дизайнера. silent не выставляет флаг загрузки,
// чтобы обновление после отправки не мигало индикатором.
func (c *Controller) LoadFeedback(ctx context.Context, silent bool) workflow.ListView[models.Feedback] {
	if !silent {
		c.mu.Lock()
		c.loading = true
		c.mu.Unlock()
	}

	res := c.api.ListDesignerFeedback(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !silent {
		c.loading = false
	}

	if !res.OK() {
		reason := res.Err().UserMessage("Не удалось загрузить отзывы и жалобы")
		c.lastErr = reason
		c.log.WithError(res.Err()).Warn("evidence: список не загружен")
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Отзывы", reason))
		return workflow.Failed(cloneFeedback(c.items), reason)
	}

	c.items = res.Value()
	c.loaded = true
	c.lastErr = ""
	return workflow.Loaded(cloneFeedback(c.items))
}

// EnsureLoaded загружает список, если он ещё ни разу не был получен.
func (c *Controller) EnsureLoaded(ctx context.Context) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if !loaded {
		c.LoadFeedback(ctx, false)
	}
}

// State список, флаг загрузки и диалог.
func (c *Controller) State() State {
	c.mu.RLock()
	view := workflow.Loaded(cloneFeedback(c.items))
	if c.lastErr != "" {
		view = workflow.Failed(cloneFeedback(c.items), c.lastErr)
	}
	loading := c.loading
	c.mu.RUnlock()

	return State{Feedback: view, Loading: loading, Dialog: c.Dialog()}
}

// Dialog снимок диалога. Списки ссылок копируются.
func (c *Controller) Dialog() workflow.Snapshot[models.EvidenceDraft] {
	snap := c.dialog.Snapshot()
	if snap.Draft != nil {
		snap.Draft.ImageURLs = append([]string{}, snap.Draft.ImageURLs...)
	}
	return snap
}

// OpenEvidenceDialog открывает диалог ответа. Доступно только для жалобы без ответа.
func (c *Controller) OpenEvidenceDialog(reportID int64) (workflow.Snapshot[models.EvidenceDraft], error) {
	c.mu.RLock()
	report, ok := models.FindFeedback(c.items, reportID)
	c.mu.RUnlock()

	switch {
	case !ok:
		return workflow.Snapshot[models.EvidenceDraft]{}, apperror.ErrReportNotFound
	case !report.IsReport:
		return workflow.Snapshot[models.EvidenceDraft]{}, apperror.New(apperror.ErrCodeBadRequest, "на отзыв нельзя ответить доказательствами")
	case report.HasEvidence():
		return workflow.Snapshot[models.EvidenceDraft]{}, apperror.New(apperror.ErrCodeConflict, "ответ на жалобу уже отправлен")
	}

	err := c.dialog.Open(models.EvidenceDraft{
		ReportID:  reportID,
		Medium:    models.MediumImage,
		ImageURLs: []string{},
	})
	if err != nil {
		return workflow.Snapshot[models.EvidenceDraft]{}, workflow.AppError(err)
	}
	return c.Dialog(), nil
}

// SetMedium переключает вид доказательств. Переключение очищает загруженное для другого вида.
func (c *Controller) SetMedium(medium models.EvidenceMedium) error {
	if !medium.IsValid() {
		return apperror.Validation("medium", "выберите изображения или видео")
	}
	return workflow.AppError(c.dialog.Update(func(d *models.EvidenceDraft) error {
		if d.Medium == medium {
			return nil
		}
		d.Medium = medium
		if medium == models.MediumVideo {
			d.ImageURLs = []string{}
		} else {
			d.VideoURL = ""
		}
		return nil
	}))
}

// SetContent задаёт текст ответа.
func (c *Controller) SetContent(content string) error {
	return workflow.AppError(c.dialog.Update(func(d *models.EvidenceDraft) error {
		d.Content = content
		return nil
	}))
}

// UpdateDraft применяет частичное обновление формы.
func (c *Controller) UpdateDraft(patch models.EvidencePatch) (workflow.Snapshot[models.EvidenceDraft], error) {
	if patch.Medium != nil {
		if err := c.SetMedium(*patch.Medium); err != nil {
			return workflow.Snapshot[models.EvidenceDraft]{}, err
		}
	}
	if patch.Content != nil {
		if err := c.SetContent(*patch.Content); err != nil {
			return workflow.Snapshot[models.EvidenceDraft]{}, err
		}
	}
	return c.Dialog(), nil
}

// CloseEvidenceDialog закрывает диалог и отбрасывает загруженные ссылки.
func (c *Controller) CloseEvidenceDialog() {
	c.dialog.Close()
}

// errMediumChanged вид доказательств переключили, пока шла загрузка.
var errMediumChanged = apperror.New(apperror.ErrCodeConflict, "вид доказательств изменён, загруженные файлы отброшены")

// fileError отказ по одному файлу пакета.
type fileError struct {
	msg      string
	upstream bool
}

func (e *fileError) Error() string { return e.msg }

// UploadImages загружает изображения по одному и добавляет ссылки к уже загруженным.
// Слишком большие и не распознанные файлы пропускаются с предупреждением.
func (c *Controller) UploadImages(ctx context.Context, files []upload.File) (BatchResult, error) {
	if len(files) == 0 {
		return BatchResult{}, apperror.Validation("images", "выберите хотя бы одно изображение")
	}

	draft, epoch, err := c.dialog.Session()
	if err != nil {
		return BatchResult{}, workflow.AppError(err)
	}
	if draft.Medium != models.MediumImage {
		return BatchResult{}, apperror.Validation("medium", "сначала выберите загрузку изображений")
	}

	total := int64(len(files))
	result := BatchResult{Files: make([]FileOutcome, 0, len(files))}
	var urls []string
	upstreamFailures := 0

	for i, f := range files {
		outcome := FileOutcome{Name: f.Name}

		url, err := c.uploadImage(ctx, f)
		if err != nil {
			var fe *fileError
			if errors.As(err, &fe) && fe.upstream {
				upstreamFailures++
			}
			outcome.Error = err.Error()
			result.Failed++
			c.notify.Notify(c.userID, notify.New(models.LevelWarning, "Изображения", err.Error()))
		} else {
			outcome.URL = url
			urls = append(urls, url)
			result.Uploaded++
		}
		result.Files = append(result.Files, outcome)

		completed := int64(i + 1)
		c.notify.Progress(c.userID, models.UploadProgress{
			Medium:    models.MediumImage,
			Completed: completed,
			Total:     total,
			Percent:   notify.Percent(completed, total),
		})
	}

	if len(urls) == 0 {
		const msg = "Не удалось загрузить ни одного изображения"
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Изображения", msg))
		result.ImageURLs = draft.ImageURLs
		if upstreamFailures > 0 {
			return result, apperror.New(apperror.ErrCodeUpstream, msg)
		}
		return result, apperror.Validation("images", msg)
	}

	err = c.dialog.UpdateSession(epoch, func(d *models.EvidenceDraft) error {
		if d.Medium != models.MediumImage {
			return errMediumChanged
		}
		d.ImageURLs = append(d.ImageURLs, urls...)
		result.ImageURLs = append([]string{}, d.ImageURLs...)
		return nil
	})
	if err != nil {
		c.log.WithError(err).Info("evidence: загруженные изображения отброшены")
		return result, workflow.AppError(err)
	}

	c.notify.Notify(c.userID, notify.Newf(models.LevelSuccess, "Изображения",
		"Загружено изображений: %d из %d", result.Uploaded, len(files)))
	return result, nil
}

func (c *Controller) uploadImage(ctx context.Context, f upload.File) (string, error) {
	if f.Size > c.limits.MaxImageBytes {
		return "", &fileError{msg: fmt.Sprintf("Файл %s больше %d МБ и пропущен", f.Name, c.limits.MaxImageBytes>>20)}
	}

	medium, _, reader, err := upload.Sniff(f.Reader)
	if err != nil || medium != models.MediumImage {
		return "", &fileError{msg: fmt.Sprintf("Файл %s не является изображением", f.Name)}
	}
	f.Reader = reader

	url, err := c.uploader.Upload(ctx, models.MediumImage, f, nil)
	if err != nil {
		c.log.WithError(err).WithField("file", f.Name).Warn("evidence: изображение не загружено")
		return "", &fileError{msg: fmt.Sprintf("Не удалось загрузить %s", f.Name), upstream: true}
	}
	return url, nil
}

// UploadVideo загружает одно видео, сообщая побайтовый прогресс. Заменяет ранее загруженное видео.
func (c *Controller) UploadVideo(ctx context.Context, f upload.File) (string, error) {
	draft, epoch, err := c.dialog.Session()
	if err != nil {
		return "", workflow.AppError(err)
	}
	if draft.Medium != models.MediumVideo {
		return "", apperror.Validation("medium", "сначала выберите загрузку видео")
	}

	if f.Size > c.limits.MaxVideoBytes {
		msg := fmt.Sprintf("Видео больше %d МБ", c.limits.MaxVideoBytes>>20)
		c.notify.Notify(c.userID, notify.ForField("video", msg))
		return "", apperror.Validation("video", msg)
	}

	medium, _, reader, err := upload.Sniff(f.Reader)
	if err != nil || medium != models.MediumVideo {
		msg := fmt.Sprintf("Файл %s не является видео", f.Name)
		c.notify.Notify(c.userID, notify.ForField("video", msg))
		return "", apperror.Validation("video", msg)
	}
	f.Reader = reader

	lastPercent := -1
	progress := func(sent, total int64) {
		p := notify.Percent(sent, total)
		if p == lastPercent {
			return
		}
		lastPercent = p
		c.notify.Progress(c.userID, models.UploadProgress{
			Medium:    models.MediumVideo,
			Completed: sent,
			Total:     total,
			Percent:   p,
		})
	}

	url, err := c.uploader.Upload(ctx, models.MediumVideo, f, progress)
	if err != nil {
		const msg = "Не удалось загрузить видео"
		c.log.WithError(err).WithField("file", f.Name).Warn("evidence: видео не загружено")
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Видео", msg))
		return "", apperror.Wrap(err, apperror.ErrCodeUpstream, msg)
	}

	err = c.dialog.UpdateSession(epoch, func(d *models.EvidenceDraft) error {
		if d.Medium != models.MediumVideo {
			return errMediumChanged
		}
		d.VideoURL = url
		return nil
	})
	if err != nil {
		c.log.WithError(err).Info("evidence: загруженное видео отброшено")
		return "", workflow.AppError(err)
	}

	c.notify.Notify(c.userID, notify.New(models.LevelSuccess, "Видео", "Видео загружено"))
	return url, nil
}

// SubmitEvidence отправляет ответ. При ошибке диалог остаётся открытым, загруженные ссылки сохраняются.
func (c *Controller) SubmitEvidence(ctx context.Context) (SubmitResult, error) {
	draft, epoch, err := c.dialog.Begin()
	if err != nil {
		return SubmitResult{}, workflow.AppError(err)
	}

	if field, msg := validateDraft(draft); field != "" {
		c.dialog.Fail(epoch, msg)
		c.notify.Notify(c.userID, notify.ForField(field, msg))
		return SubmitResult{}, apperror.Validation(field, msg)
	}

	c.mu.RLock()
	report, ok := models.FindFeedback(c.items, draft.ReportID)
	c.mu.RUnlock()
	if ok && report.HasEvidence() {
		const msg = "Ответ на эту жалобу уже отправлен"
		c.dialog.Fail(epoch, msg)
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Жалоба", msg))
		return SubmitResult{}, apperror.New(apperror.ErrCodeConflict, msg)
	}

	ctx = context.WithoutCancel(ctx)
	log := c.log.WithFields(logrus.Fields{"report_id": draft.ReportID, "medium": draft.Medium})

	res := c.api.GiveEvidence(ctx, buildRequest(draft))
	if !res.OK() {
		reason := res.Err().UserMessage("Не удалось отправить ответ на жалобу")
		log.WithError(res.Err()).Warn("evidence: ответ не принят бэкендом")
		c.dialog.Fail(epoch, reason)
		c.notify.Notify(c.userID, notify.New(models.LevelError, "Жалоба", reason))
		return SubmitResult{}, apperror.Wrap(res.Err(), apperror.ErrCodeUpstream, reason)
	}

	c.dialog.Finish(epoch)
	log.Info("evidence: ответ отправлен")
	c.notify.Notify(c.userID, notify.New(models.LevelSuccess, "Жалоба", "Ответ на жалобу отправлен"))

	return SubmitResult{
		ReportID: draft.ReportID,
		Feedback: c.LoadFeedback(ctx, true),
	}, nil
}

// validateDraft возвращает поле и сообщение первой ошибки или пустые строки.
func validateDraft(d models.EvidenceDraft) (string, string) {
	if strings.TrimSpace(d.Content) == "" {
		return "content", "Опишите вашу позицию по жалобе"
	}
	switch d.Medium {
	case models.MediumImage:
		if len(d.ImageURLs) == 0 {
			return "image_urls", "Загрузите хотя бы одно изображение"
		}
	case models.MediumVideo:
		if d.VideoURL == "" {
			return "video_url", "Загрузите видео"
		}
	default:
		return "medium", "Выберите изображения или видео"
	}
	return "", ""
}

// buildRequest собирает тело запроса: ровно один вид доказательств.
func buildRequest(d models.EvidenceDraft) models.GiveEvidenceRequest {
	req := models.GiveEvidenceRequest{
		ReportID:  d.ReportID,
		Content:   strings.TrimSpace(d.Content),
		ImageURLs: []string{},
	}
	if d.Medium == models.MediumVideo {
		url := d.VideoURL
		req.VideoURL = &url
		return req
	}
	req.ImageURLs = append(req.ImageURLs, d.ImageURLs...)
	return req
}

func cloneFeedback(items []models.Feedback) []models.Feedback {
	if items == nil {
		return nil
	}
	return append([]models.Feedback(nil), items...)
}
