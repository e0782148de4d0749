package models

// ApprovalAction действие администратора над жалобой.
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionReject  ApprovalAction = "reject"
)

func (a ApprovalAction) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// ProblemLevel серьёзность нарушения, по которой бэкенд рассчитывает возврат.
type ProblemLevel string

const (
	ProblemLevelLow     ProblemLevel = "low"
	ProblemLevelMedium  ProblemLevel = "medium"
	ProblemLevelHigh    ProblemLevel = "high"
	ProblemLevelSerious ProblemLevel = "serious"
)

func (l ProblemLevel) IsValid() bool {
	switch l {
	case ProblemLevelLow, ProblemLevelMedium, ProblemLevelHigh, ProblemLevelSerious:
		return true
	}
	return false
}

// RefundDecision решение, передаваемое в расчёт возврата.
type RefundDecision string

const (
	RefundAccepted RefundDecision = "ACCEPTED"
	RefundRejected RefundDecision = "REJECTED"
)

// ApprovalDraft содержимое открытого диалога решения по жалобе.
type ApprovalDraft struct {
	ReportID          int64          `json:"report_id"`
	Action            ApprovalAction `json:"action"`
	ProblemLevel      ProblemLevel   `json:"problem_level,omitempty"`
	MessageForSchool  string         `json:"message_for_school"`
	MessageForPartner string         `json:"message_for_partner"`
}

// ApprovalPatch частичное обновление черновика решения.
type ApprovalPatch struct {
	ProblemLevel      *ProblemLevel `json:"problem_level"`
	MessageForSchool  *string       `json:"message_for_school"`
	MessageForPartner *string       `json:"message_for_partner"`
}

// ApproveReportRequest тело запроса подтверждения или отклонения жалобы.
type ApproveReportRequest struct {
	FeedbackID        int64  `json:"feedbackId"`
	MessageForSchool  string `json:"messageForSchool"`
	MessageForPartner string `json:"messageForPartner"`
	Approved          bool   `json:"approved"`
}

// RefundRequest тело запроса расчёта возврата.
type RefundRequest struct {
	ReportID     int64          `json:"reportId"`
	Decision     RefundDecision `json:"decision"`
	ProblemLevel ProblemLevel   `json:"problemLevel"`
}
