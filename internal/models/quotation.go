package models

// QuotationStatus статус коммерческого предложения швейной фабрики.
type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "PENDING"
	QuotationStatusAccepted QuotationStatus = "ACCEPTED"
	QuotationStatusApproved QuotationStatus = "APPROVED"
	QuotationStatusRejected QuotationStatus = "REJECTED"
)

// Quotation предложение цены и сроков по заказу школы.
type Quotation struct {
	ID                   int64           `json:"id"`
	GarmentName          string          `json:"garmentName"`
	Price                int64           `json:"price"`
	EarliestDeliveryDate Date            `json:"earlyDeliveryDate"`
	AcceptanceDeadline   Date            `json:"acceptanceDeadline"`
	Note                 *string         `json:"note,omitempty"`
	Status               QuotationStatus `json:"status"`
}

// CanAccept сообщает, можно ли выбрать предложение для оплаты.
func (q Quotation) CanAccept() bool {
	return q.Status == QuotationStatusPending
}

// IsAccepted сообщает, что предложение уже принято.
func (q Quotation) IsAccepted() bool {
	return q.Status == QuotationStatusAccepted || q.Status == QuotationStatusApproved
}

// PaymentURLRequest тело запроса ссылки на оплату.
type PaymentURLRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	OrderType   string `json:"orderType"`
	ReturnURL   string `json:"returnUrl"`
}

// PaymentURL ответ бэкенда со ссылкой на платёжную страницу.
type PaymentURL struct {
	URL string `json:"url"`
}
