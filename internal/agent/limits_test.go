package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimits_Thresholds(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		count     int
		wantOffer bool
		wantForce bool
	}{
		{count: 0, wantOffer: false, wantForce: false},
		{count: 14, wantOffer: false, wantForce: false},
		{count: 15, wantOffer: true, wantForce: false},
		{count: 19, wantOffer: true, wantForce: false},
		{count: 20, wantOffer: false, wantForce: true},
		{count: 100, wantOffer: false, wantForce: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantOffer, limits.ShouldOfferConclusion(tt.count), "offer at %d", tt.count)
		assert.Equal(t, tt.wantForce, limits.ShouldForceHandover(tt.count), "force at %d", tt.count)
	}
}

func TestLimits_MutuallyExclusive(t *testing.T) {
	limits := DefaultLimits()

	for n := 0; n <= 100; n++ {
		offer := limits.ShouldOfferConclusion(n)
		force := limits.ShouldForceHandover(n)
		assert.False(t, offer && force, "both predicates true at %d", n)
	}
}

func TestLimits_Valid(t *testing.T) {
	assert.True(t, DefaultLimits().Valid())
	assert.False(t, Limits{OfferConclusion: 20, ForceHandover: 20}.Valid())
	assert.False(t, Limits{OfferConclusion: 25, ForceHandover: 20}.Valid())
}
