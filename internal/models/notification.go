package models

// NotificationLevel уровень всплывающего уведомления.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification уведомление, показываемое пользователю.
type Notification struct {
	ID      string            `json:"id"`
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title,omitempty"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
}

// UploadProgress событие прогресса загрузки доказательств.
type UploadProgress struct {
	Medium    EvidenceMedium `json:"medium"`
	Completed int64          `json:"completed"`
	Total     int64          `json:"total"`
	Percent   int            `json:"percent"`
}
