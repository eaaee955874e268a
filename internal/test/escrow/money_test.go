package escrow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gigpay-backend/internal/escrow"
)

func TestAdvanceAndFinalAmounts(t *testing.T) {
	cases := []struct {
		total   float64
		advance float64
		final   float64
	}{
		{10000, 1000, 9000},
		{9999, 1000, 8999},
		{10001, 1000, 9001},
		{55, 6, 50},
		{1, 0, 1},
		{15, 2, 14},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.advance, escrow.AdvanceAmount(tc.total), "advance of %v", tc.total)
		assert.Equal(t, tc.final, escrow.FinalAmount(tc.total), "final of %v", tc.total)
	}
}

func TestCommissionSplit(t *testing.T) {
	cases := []struct {
		total      float64
		percent    float64
		commission float64
		payout     float64
	}{
		{10000, 5, 500, 9500},
		{9999, 5, 500, 9499},
		{10, 5, 1, 9},
		{1000, 0, 0, 1000},
		{1000, 100, 1000, 0},
	}
	for _, tc := range cases {
		commission, payout := escrow.CommissionSplit(tc.total, tc.percent)
		assert.Equal(t, tc.commission, commission, "commission of %v at %v%%", tc.total, tc.percent)
		assert.Equal(t, tc.payout, payout, "payout of %v at %v%%", tc.total, tc.percent)
		assert.Equal(t, tc.total, commission+payout, "split must sum to the total")
	}
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, escrow.TransitionAllowed(escrow.StatusOfferSent, escrow.StatusAccepted))
	assert.True(t, escrow.TransitionAllowed(escrow.StatusOfferSent, escrow.StatusRejected))
	assert.True(t, escrow.TransitionAllowed(escrow.StatusAccepted, escrow.StatusInProgress))
	assert.True(t, escrow.TransitionAllowed(escrow.StatusPendingAdvance, escrow.StatusInProgress))
	assert.True(t, escrow.TransitionAllowed(escrow.StatusInProgress, escrow.StatusCompleted))
	assert.True(t, escrow.TransitionAllowed(escrow.StatusMidLevel, escrow.StatusCompleted))
	assert.True(t, escrow.TransitionAllowed(escrow.StatusCompleted, escrow.StatusCompletedReleased))

	// Terminal and skipping moves are refused.
	assert.False(t, escrow.TransitionAllowed(escrow.StatusRejected, escrow.StatusAccepted))
	assert.False(t, escrow.TransitionAllowed(escrow.StatusCompletedReleased, escrow.StatusCompleted))
	assert.False(t, escrow.TransitionAllowed(escrow.StatusOfferSent, escrow.StatusInProgress))
	assert.False(t, escrow.TransitionAllowed(escrow.StatusAccepted, escrow.StatusCompleted))
	assert.False(t, escrow.TransitionAllowed(escrow.StatusCancelled, escrow.StatusInProgress))
}
