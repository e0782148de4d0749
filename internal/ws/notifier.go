package ws

import (
	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/notify"
)

// Notifier отправляет события рабочих процессов через хаб.
type Notifier struct {
	hub *Hub
}

// NewNotifier создаёт notify.Notifier поверх хаба.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

var _ notify.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(userID int64, note models.Notification) {
	if err := n.hub.BroadcastToUser(userID, notify.EventNotification, note); err != nil {
		logger.ForUser(userID).WithError(err).Warn("ws: уведомление не отправлено")
	}
}

func (n *Notifier) Progress(userID int64, p models.UploadProgress) {
	if err := n.hub.BroadcastToUser(userID, notify.EventUploadProgress, p); err != nil {
		logger.ForUser(userID).WithError(err).Debug("ws: прогресс не отправлен")
	}
}
