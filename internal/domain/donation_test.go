package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDonationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from DonationStatus
		to   DonationStatus
		want bool
	}{
		{DonationStatusPending, DonationStatusConfirmed, true},
		{DonationStatusConfirmed, DonationStatusCollected, true},
		{DonationStatusCollected, DonationStatusProcessed, true},
		{DonationStatusProcessed, DonationStatusCompleted, true},
		{DonationStatusPending, DonationStatusRejected, true},
		{DonationStatusProcessed, DonationStatusRejected, true},
		{DonationStatusPending, DonationStatusCompleted, false},
		{DonationStatusConfirmed, DonationStatusPending, false},
		{DonationStatusPending, DonationStatusPending, false},
		{DonationStatusCompleted, DonationStatusRejected, false},
		{DonationStatusRejected, DonationStatusPending, false},
		{DonationStatusCompleted, DonationStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDonationStatus_Valid(t *testing.T) {
	for _, s := range []DonationStatus{
		DonationStatusPending, DonationStatusConfirmed, DonationStatusCollected,
		DonationStatusProcessed, DonationStatusCompleted, DonationStatusRejected,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, DonationStatus("SHIPPED").Valid())
	assert.False(t, DonationStatus("").Valid())
}

func TestCondition(t *testing.T) {
	assert.True(t, ConditionExcellent.Donatable())
	assert.True(t, ConditionFair.Donatable())
	assert.False(t, ConditionPoor.Donatable())
	assert.False(t, Condition("NEW").Valid())
	assert.True(t, PickupMethodPickup.Valid())
	assert.False(t, PickupMethod("DRONE").Valid())
}
