package models

import "strings"

// FeedbackStatus статус жалобы или отзыва.
type FeedbackStatus string

const (
	FeedbackStatusPending     FeedbackStatus = "PENDING"
	FeedbackStatusUnderReview FeedbackStatus = "UNDER_REVIEW"
	FeedbackStatusApproved    FeedbackStatus = "APPROVED"
	FeedbackStatusAccepted    FeedbackStatus = "ACCEPTED"
	FeedbackStatusRejected    FeedbackStatus = "REJECTED"
)

// Party описывает отправителя или получателя жалобы.
type Party struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}

// Attachment изображение, приложенное к жалобе.
type Attachment struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// OrderRef краткие сведения о связанном заказе.
type OrderRef struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
}

// DesignRequestRef краткие сведения о связанной заявке на дизайн.
type DesignRequestRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Feedback жалоба (IsReport) или обычный отзыв с оценкой.
type Feedback struct {
	ID               int64             `json:"id"`
	IsReport         bool              `json:"report"`
	Content          string            `json:"content"`
	Rating           *int              `json:"rating,omitempty"`
	Images           []Attachment      `json:"images"`
	Video            *string           `json:"video,omitempty"`
	Status           FeedbackStatus    `json:"status"`
	CreatedAt        Date              `json:"creationDate"`
	Sender           Party             `json:"sender"`
	Receiver         Party             `json:"receiver"`
	Order            *OrderRef         `json:"order,omitempty"`
	DesignRequest    *DesignRequestRef `json:"designRequest,omitempty"`
	PartnerContent   *string           `json:"partnerContent,omitempty"`
	PartnerImageURLs []string          `json:"partnerImageUrls,omitempty"`
	PartnerVideo     *string           `json:"partnerVideo,omitempty"`
}

// IsPending сообщает, ожидает ли жалоба решения администратора.
func (f Feedback) IsPending() bool {
	return f.Status == FeedbackStatusPending || f.Status == FeedbackStatusUnderReview
}

// IsResolved сообщает, находится ли жалоба в терминальном статусе.
func (f Feedback) IsResolved() bool {
	switch f.Status {
	case FeedbackStatusApproved, FeedbackStatusAccepted, FeedbackStatusRejected:
		return true
	}
	return false
}

// HasEvidence сообщает, ответил ли уже партнёр на жалобу.
func (f Feedback) HasEvidence() bool {
	return f.PartnerContent != nil && strings.TrimSpace(*f.PartnerContent) != ""
}

// AcceptsEvidence сообщает, может ли партнёр приложить доказательства.
func (f Feedback) AcceptsEvidence() bool {
	return f.IsReport && !f.HasEvidence()
}

// FindFeedback ищет элемент по идентификатору.
func FindFeedback(items []Feedback, id int64) (Feedback, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Feedback{}, false
}
