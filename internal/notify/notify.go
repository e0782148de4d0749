// Package notify доставляет пользователю уведомления и прогресс загрузки.
package notify

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

// Типы событий, уходящих клиенту.
const (
	EventNotification   = "notification"
	EventUploadProgress = "upload_progress"
)

// Notifier получатель уведомлений рабочих процессов.
type Notifier interface {
	Notify(userID int64, n models.Notification)
	Progress(userID int64, p models.UploadProgress)
}

// New создаёт уведомление с новым идентификатором.
func New(level models.NotificationLevel, title, message string) models.Notification {
	return models.Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Title:   title,
		Message: message,
	}
}

// Newf как New, но с форматированием сообщения.
func Newf(level models.NotificationLevel, title, format string, args ...any) models.Notification {
	return New(level, title, fmt.Sprintf(format, args...))
}

// ForField уведомление об ошибке конкретного поля формы.
func ForField(field, message string) models.Notification {
	n := New(models.LevelError, "Проверьте форму", message)
	n.Field = field
	return n
}

// Percent доля completed от total в процентах, 0..100.
func Percent(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(completed * 100 / total)
}

// Nop отбрасывает все события.
type Nop struct{}

func (Nop) Notify(int64, models.Notification)     {}
func (Nop) Progress(int64, models.UploadProgress) {}

// Recorder запоминает события. Используется в тестах и для отладки.
type Recorder struct {
	mu            sync.Mutex
	notifications map[int64][]models.Notification
	progress      map[int64][]models.UploadProgress
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		notifications: make(map[int64][]models.Notification),
		progress:      make(map[int64][]models.UploadProgress),
	}
}

func (r *Recorder) Notify(userID int64, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[userID] = append(r.notifications[userID], n)
}

func (r *Recorder) Progress(userID int64, p models.UploadProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[userID] = append(r.progress[userID], p)
}

// Notifications возвращает копию уведомлений пользователя.
func (r *Recorder) Notifications(userID int64) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.notifications[userID]...)
}

// ByLevel уведомления пользователя заданного уровня.
func (r *Recorder) ByLevel(userID int64, level models.NotificationLevel) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Notification
	for _, n := range r.notifications[userID] {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

// ProgressEvents возвращает копию событий прогресса пользователя.
func (r *Recorder) ProgressEvents(userID int64) []models.UploadProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.UploadProgress(nil), r.progress[userID]...)
}

// Reset очищает записанные события.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = make(map[int64][]models.Notification)
	r.progress = make(map[int64][]models.UploadProgress)
}
