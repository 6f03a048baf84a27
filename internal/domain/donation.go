package domain

import (
	"slices"
	"time"
)

// Condition is the graded state of a clothing item.
type Condition string

const (
	ConditionExcellent Condition = "EXCELLENT"
	ConditionGood      Condition = "GOOD"
	ConditionFair      Condition = "FAIR"
	ConditionPoor      Condition = "POOR"
)

// Conditions lists every grade from best to worst.
var Conditions = []Condition{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}

// Valid reports whether c is one of the known grades.
func (c Condition) Valid() bool {
	return slices.Contains(Conditions, c)
}

// Donatable reports whether an item in this condition can be picked up.
func (c Condition) Donatable() bool {
	return c.Valid() && c != ConditionPoor
}

// PickupMethod is how the item travels from the donor.
type PickupMethod string

const (
	PickupMethodDelivery PickupMethod = "DELIVERY"
	PickupMethodPickup   PickupMethod = "PICKUP"
)

// Valid reports whether m is a known pickup method.
func (m PickupMethod) Valid() bool {
	return m == PickupMethodDelivery || m == PickupMethodPickup
}

// DonationStatus represents the lifecycle state of a donation.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusConfirmed DonationStatus = "CONFIRMED"
	DonationStatusCollected DonationStatus = "COLLECTED"
	DonationStatusProcessed DonationStatus = "PROCESSED"
	DonationStatusCompleted DonationStatus = "COMPLETED"
	DonationStatusRejected  DonationStatus = "REJECTED"
)

// forward holds the single non-rejecting successor of each non-terminal status.
var forward = map[DonationStatus]DonationStatus{
	DonationStatusPending:   DonationStatusConfirmed,
	DonationStatusConfirmed: DonationStatusCollected,
	DonationStatusCollected: DonationStatusProcessed,
	DonationStatusProcessed: DonationStatusCompleted,
}

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	_, ok := forward[s]
	return ok || s.Terminal()
}

// Terminal reports whether no further transitions are allowed from s.
func (s DonationStatus) Terminal() bool {
	return s == DonationStatusCompleted || s == DonationStatusRejected
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == DonationStatusRejected {
		return true
	}
	return forward[s] == next
}

// Donation is a pickup request created from an estimation.
type Donation struct {
	ID              string         `json:"id" db:"id"`
	UserID          string         `json:"userId" db:"user_id"`
	ImageURL        string         `json:"imageUrl" db:"image_url"`
	ItemType        string         `json:"itemType" db:"item_type"`
	Condition       Condition      `json:"condition" db:"condition"`
	EstimatedPoints int            `json:"estimatedPoints" db:"estimated_points"`
	ActualPoints    *int           `json:"actualPoints" db:"actual_points"`
	PickupMethod    PickupMethod   `json:"pickupMethod" db:"pickup_method"`
	Address         string         `json:"address" db:"address"`
	Notes           string         `json:"notes" db:"notes"`
	Status          DonationStatus `json:"status" db:"status"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

// DonationCounts summarizes a user's donations for the profile view.
type DonationCounts struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
}
