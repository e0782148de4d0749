package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

func TestServiceFee(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		fee   int64
		total int64
	}{
		{name: "zero", price: 0, fee: 0, total: 0},
		{name: "percent", price: 5_000_000, fee: 100_000, total: 5_100_000},
		{name: "threshold", price: 10_000_000, fee: 200_000, total: 10_200_000},
		{name: "flat", price: 50_000_000, fee: 200_000, total: 50_200_000},
		{name: "just-above-threshold", price: 10_000_001, fee: 200_000, total: 10_200_001},
		{name: "rounding", price: 1_234, fee: 25, total: 1_259},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fee, ServiceFee(tt.price))
			assert.Equal(t, tt.total, Total(tt.price))
		})
	}
}

func TestTotal_Monotonic(t *testing.T) {
	prev := Total(0)
	for p := int64(0); p <= 12_000_000; p += 9_973 {
		cur := Total(p)
		assert.GreaterOrEqual(t, cur, prev, "total decreased at price %d", p)
		prev = cur
	}
	assert.GreaterOrEqual(t, Total(ServiceFeeThreshold+1), Total(ServiceFeeThreshold))
}

func TestNewPriceBreakdown(t *testing.T) {
	b, err := NewPriceBreakdown(5_000_000)
	require.NoError(t, err)
	assert.Equal(t, PriceBreakdown{Price: 5_000_000, ServiceFee: 100_000, Total: 5_100_000}, b)

	_, err = NewPriceBreakdown(-1)
	assert.Error(t, err)
}

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "0 ₫", FormatVND(0))
	assert.Equal(t, "950 ₫", FormatVND(950))
	assert.Equal(t, "5.100.000 ₫", FormatVND(5_100_000))
	assert.Equal(t, "10.200.000 ₫", FormatVND(10_200_000))
	assert.Equal(t, "-1.000 ₫", FormatVND(-1_000))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.FeedbackStatusPending, models.FeedbackStatusApproved))
	assert.True(t, CanTransition(models.FeedbackStatusUnderReview, models.FeedbackStatusRejected))
	assert.False(t, CanTransition(models.FeedbackStatusApproved, models.FeedbackStatusRejected))
	assert.False(t, CanTransition(models.FeedbackStatusRejected, models.FeedbackStatusApproved))
	assert.Equal(t, models.FeedbackStatusApproved, ResolutionStatus(models.ActionApprove))
	assert.Equal(t, models.RefundRejected, RefundDecisionFor(models.ActionReject))
}
