package valueobject

import "github.com/ignatzorin/uniform-portal/internal/models"

// ResolutionStatus статус, в который переводит жалобу действие администратора.
func ResolutionStatus(action models.ApprovalAction) models.FeedbackStatus {
	if action == models.ActionApprove {
		return models.FeedbackStatusApproved
	}
	return models.FeedbackStatusRejected
}

// CanTransition проверяет переход статуса жалобы. Терминальные статусы неизменяемы.
func CanTransition(from, to models.FeedbackStatus) bool {
	transitions := map[models.FeedbackStatus][]models.FeedbackStatus{
		models.FeedbackStatusPending:     {models.FeedbackStatusApproved, models.FeedbackStatusRejected},
		models.FeedbackStatusUnderReview: {models.FeedbackStatusApproved, models.FeedbackStatusRejected},
		models.FeedbackStatusApproved:    {},
		models.FeedbackStatusAccepted:    {},
		models.FeedbackStatusRejected:    {},
	}

	allowed, ok := transitions[from]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

// RefundDecisionFor решение для расчёта возврата.
func RefundDecisionFor(action models.ApprovalAction) models.RefundDecision {
	if action == models.ActionApprove {
		return models.RefundAccepted
	}
	return models.RefundRejected
}
