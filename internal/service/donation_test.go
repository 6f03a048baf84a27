package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abjin/reward-closet/internal/domain"
	"github.com/abjin/reward-closet/internal/service/servicetest"
)

type countingRecorder struct {
	created     int
	transitions []domain.DonationStatus
}

func (r *countingRecorder) RecordDonationCreated() { r.created++ }
func (r *countingRecorder) RecordTransition(s domain.DonationStatus) {
	r.transitions = append(r.transitions, s)
}

func seedUser(t *testing.T, store *servicetest.Store, id string) domain.Identity {
	t.Helper()
	_, err := store.Create(context.Background(), domain.User{ID: id, Email: id + "@b.com", Nickname: "Ann"})
	require.NoError(t, err)
	return domain.Identity{UserID: id, Email: id + "@b.com"}
}

func validInput() CreateDonationInput {
	return CreateDonationInput{
		ImageURL:        "https://cdn.example.com/public/a.jpg",
		ItemType:        "상의",
		Condition:       domain.ConditionGood,
		EstimatedPoints: 300,
		PickupMethod:    domain.PickupMethodPickup,
		Address:         "Seoul",
	}
}

func intPtr(v int) *int { return &v }

func TestDonationService_Create(t *testing.T) {
	ctx := context.Background()
	store := servicetest.New()
	rec := &countingRecorder{}
	svc := NewDonationService(store, store.Donations(), rec)
	identity := seedUser(t, store, "u1")

	donation, err := svc.Create(ctx, identity, validInput())
	require.NoError(t, err)

	assert.Equal(t, domain.DonationStatusPending, donation.Status)
	assert.Equal(t, "u1", donation.UserID)
	assert.Nil(t, donation.ActualPoints)
	assert.Equal(t, 300, donation.EstimatedPoints)
	assert.Equal(t, 1, rec.created)
}

func TestDonationService_Create_FlagsPoorCondition(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.Background()
	store := servicetest.New()
	svc := NewDonationService(store, store.Donations(), nil)
	identity := seedUser(t, store, "u1")

	_, err := svc.Create(ctx, identity, validInput())
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "below resale grade")

	in := validInput()
	in.Condition = "poor"
	in.EstimatedPoints = 0
	donation, err := svc.Create(ctx, identity, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionPoor, donation.Condition)
	assert.Contains(t, logs.String(), `"msg":"donation below resale grade"`)
	assert.Contains(t, logs.String(), donation.ID)
}

func TestDonationService_Create_MissingFields(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*CreateDonationInput)
	}{
		{"imageUrl", func(in *CreateDonationInput) { in.ImageURL = "" }},
		{"itemType", func(in *CreateDonationInput) { in.ItemType = " " }},
		{"condition", func(in *CreateDonationInput) { in.Condition = "" }},
		{"condition", func(in *CreateDonationInput) { in.Condition = "MINT" }},
		{"pickupMethod", func(in *CreateDonationInput) { in.PickupMethod = "" }},
		{"pickupMethod", func(in *CreateDonationInput) { in.PickupMethod = "DRONE" }},
		{"address", func(in *CreateDonationInput) { in.Address = "" }},
		{"estimatedPoints", func(in *CreateDonationInput) { in.EstimatedPoints = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			store := servicetest.New()
			svc := NewDonationService(store, store.Donations(), nil)
			identity := seedUser(t, store, "u1")

			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), identity, in)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, store.DonationCount())
		})
	}
}

func TestDonationService_Create_UnknownUser(t *testing.T) {
	store := servicetest.New()
	svc := NewDonationService(store, store.Donations(), nil)

	_, err := svc.Create(context.Background(), domain.Identity{UserID: "ghost"}, validInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(context.Background(), domain.Identity{}, validInput())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, store.DonationCount())
}

func TestDonationService_List(t *testing.T) {
	ctx := context.Background()
	store := servicetest.New()
	svc := NewDonationService(store, store.Donations(), nil)
	ann := seedUser(t, store, "u1")
	bob := seedUser(t, store, "u2")

	first, err := svc.Create(ctx, ann, validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, ann, validInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, validInput())
	require.NoError(t, err)

	list, err := svc.List(ctx, ann)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	empty := seedUser(t, store, "u3")
	list, err = svc.List(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDonationService_ReconcileBalance(t *testing.T) {
	ctx := context.Background()
	store := servicetest.New()
	svc := NewDonationService(store, store.Donations(), nil)
	identity := seedUser(t, store, "u1")

	donation, err := svc.Create(ctx, identity, validInput())
	require.NoError(t, err)
	donation.Status = domain.DonationStatusCompleted
	donation.ActualPoints = intPtr(300)
	store.SetDonation(*donation)

	user, _ := store.User("u1")
	require.Zero(t, user.Points)

	reconciled, err := svc.ReconcileBalance(ctx, &user)
	require.NoError(t, err)
	assert.Equal(t, 300, reconciled.Points)
	assert.Equal(t, 1, store.Writes)

	again, err := svc.ReconcileBalance(ctx, reconciled)
	require.NoError(t, err)
	assert.Equal(t, 300, again.Points)
	assert.Equal(t, 1, store.Writes, "no write when balance already matches")
}

func TestDonationService_ReconcileBalance_IgnoresIncomplete(t *testing.T) {
	ctx := context.Background()
	store := servicetest.New()
	svc := NewDonationService(store, store.Donations(), nil)
	identity := seedUser(t, store, "u1")

	donation, err := svc.Create(ctx, identity, validInput())
	require.NoError(t, err)
	donation.Status = domain.DonationStatusProcessed
	donation.ActualPoints = intPtr(450)
	store.SetDonation(*donation)

	user, _ := store.User("u1")
	reconciled, err := svc.ReconcileBalance(ctx, &user)
	require.NoError(t, err)
	assert.Zero(t, reconciled.Points)
	assert.Zero(t, store.Writes)
}

func TestDonationService_Advance(t *testing.T) {
	ctx := context.Background()
	store := servicetest.New()
	rec := &countingRecorder{}
	svc := NewDonationService(store, store.Donations(), rec)
	identity := seedUser(t, store, "u1")

	donation, err := svc.Create(ctx, identity, validInput())
	require.NoError(t, err)

	for _, next := range []domain.DonationStatus{
		domain.DonationStatusConfirmed,
		domain.DonationStatusCollected,
		domain.DonationStatusProcessed,
	} {
		updated, err := svc.Advance(ctx, donation.ID, next, nil)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = svc.Advance(ctx, donation.ID, domain.DonationStatusCompleted, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "actualPoints", verr.Field)

	completed, err := svc.Advance(ctx, donation.ID, domain.DonationStatusCompleted, intPtr(300))
	require.NoError(t, err)
	require.NotNil(t, completed.ActualPoints)
	assert.Equal(t, 300, *completed.ActualPoints)

	user, _ := store.User("u1")
	assert.Equal(t, 300, user.Points)

	_, err = svc.Advance(ctx, donation.ID, domain.DonationStatusRejected, nil)
	assert.ErrorIs(t, err, domain.ErrConflict, "completed is terminal")

	assert.Len(t, rec.transitions, 4)
}

func TestDonationService_Advance_Rules(t *testing.T) {
	ctx := context.Background()
	store := servicetest.New()
	svc := NewDonationService(store, store.Donations(), nil)
	identity := seedUser(t, store, "u1")

	t.Run("skipping a step conflicts", func(t *testing.T) {
		donation, err := svc.Create(ctx, identity, validInput())
		require.NoError(t, err)
		_, err = svc.Advance(ctx, donation.ID, domain.DonationStatusCollected, nil)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("reject from pending", func(t *testing.T) {
		donation, err := svc.Create(ctx, identity, validInput())
		require.NoError(t, err)
		rejected, err := svc.Advance(ctx, donation.ID, domain.DonationStatusRejected, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DonationStatusRejected, rejected.Status)

		_, err = svc.Advance(ctx, donation.ID, domain.DonationStatusConfirmed, nil)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("points recorded before completion are kept", func(t *testing.T) {
		store := servicetest.New()
		svc := NewDonationService(store, store.Donations(), nil)
		identity := seedUser(t, store, "u2")
		donation, err := svc.Create(ctx, identity, validInput())
		require.NoError(t, err)

		confirmed, err := svc.Advance(ctx, donation.ID, domain.DonationStatusConfirmed, intPtr(120))
		require.NoError(t, err)
		require.NotNil(t, confirmed.ActualPoints)
		assert.Equal(t, 120, *confirmed.ActualPoints)

		user, _ := store.User("u2")
		assert.Zero(t, user.Points, "only completed donations count")

		_, err = svc.Advance(ctx, donation.ID, domain.DonationStatusCollected, intPtr(999))
		assert.ErrorIs(t, err, domain.ErrConflict)

		for _, next := range []domain.DonationStatus{
			domain.DonationStatusCollected,
			domain.DonationStatusProcessed,
		} {
			_, err = svc.Advance(ctx, donation.ID, next, intPtr(120))
			require.NoError(t, err)
		}

		completed, err := svc.Advance(ctx, donation.ID, domain.DonationStatusCompleted, nil)
		require.NoError(t, err)
		assert.Equal(t, 120, *completed.ActualPoints)

		user, _ = store.User("u2")
		assert.Equal(t, 120, user.Points)
	})

	t.Run("rejection cannot award points", func(t *testing.T) {
		donation, err := svc.Create(ctx, identity, validInput())
		require.NoError(t, err)

		_, err = svc.Advance(ctx, donation.ID, domain.DonationStatusRejected, intPtr(50))
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "actualPoints", verr.Field)

		list, err := svc.List(ctx, identity)
		require.NoError(t, err)
		for _, d := range list {
			if d.ID == donation.ID {
				assert.Equal(t, domain.DonationStatusPending, d.Status)
				assert.Nil(t, d.ActualPoints)
			}
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.Advance(ctx, "any", "SHIPPED", nil)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("negative points", func(t *testing.T) {
		_, err := svc.Advance(ctx, "any", domain.DonationStatusCompleted, intPtr(-5))
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("missing donation", func(t *testing.T) {
		_, err := svc.Advance(ctx, "missing", domain.DonationStatusConfirmed, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
