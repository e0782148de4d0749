package valueobject

import (
	"strconv"
	"strings"

	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
)

const (
	// ServiceFeeThreshold цена, до которой комиссия считается в процентах.
	ServiceFeeThreshold int64 = 10_000_000
	// ServiceFeeFlat фиксированная комиссия для дорогих заказов.
	ServiceFeeFlat int64 = 200_000
	// serviceFeePercent процент комиссии платформы.
	serviceFeePercent int64 = 2
)

// Money сумма в донгах без дробной части.
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = "VND"
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func (m Money) String() string {
	return FormatVND(m.Amount)
}

// ServiceFee считает комиссию платформы: 2% до порога включительно, иначе фиксированная сумма.
// Дробная часть округляется до ближайшего донга.
func ServiceFee(price int64) int64 {
	if price <= 0 {
		return 0
	}
	if price <= ServiceFeeThreshold {
		return (price*serviceFeePercent + 50) / 100
	}
	return ServiceFeeFlat
}

// Total сумма к оплате вместе с комиссией.
func Total(price int64) int64 {
	return price + ServiceFee(price)
}

// PriceBreakdown разбивка суммы для итогового окна.
type PriceBreakdown struct {
	Price      int64 `json:"price"`
	ServiceFee int64 `json:"service_fee"`
	Total      int64 `json:"total"`
}

func NewPriceBreakdown(price int64) (PriceBreakdown, error) {
	m, err := NewMoney(price, "")
	if err != nil {
		return PriceBreakdown{}, err
	}
	fee := ServiceFee(m.Amount)
	return PriceBreakdown{
		Price:      m.Amount,
		ServiceFee: fee,
		Total:      m.Amount + fee,
	}, nil
}

// FormatVND форматирует сумму как "5.100.000 ₫".
func FormatVND(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String() + " ₫"
}
