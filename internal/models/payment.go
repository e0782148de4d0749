package models

import "time"

// PaymentContext снимок выбранного предложения, переживающий редирект на платёжную страницу.
type PaymentContext struct {
	Quotation  Quotation `json:"quotation"`
	OrderID    int64     `json:"order_id"`
	ServiceFee int64     `json:"service_fee"`
	Total      int64     `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}
