package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abjin/reward-closet/internal/domain"
)

const (
	lockDonationQuery   = `(?s)SELECT id, user_id, .+ FROM donations WHERE id = \$1 FOR UPDATE`
	updateDonationQuery = `(?s)UPDATE donations SET status = \$2, actual_points = \$3, updated_at = NOW\(\)\s+WHERE id = \$1\s+RETURNING id, user_id`
	reconcileQuery      = `(?s)UPDATE users SET points = \(\s+SELECT COALESCE\(SUM\(actual_points\), 0\) FROM donations\s+WHERE user_id = \$1 AND status = \$2\s+\), updated_at = NOW\(\)\s+WHERE id = \$1`
)

func newMockRepository(t *testing.T) (*DonationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDonationRepository(sqlx.NewDb(db, "pgx")), mock
}

func donationRows(status domain.DonationStatus, actualPoints any) *sqlmock.Rows {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "user_id", "image_url", "item_type", "condition", "estimated_points", "actual_points",
		"pickup_method", "address", "notes", "status", "created_at", "updated_at",
	}).AddRow(
		"d1", "u1", "https://cdn.example.com/a.jpg", "자켓", "GOOD", 300, actualPoints,
		"PICKUP", "Seoul", "", string(status), now, now,
	)
}

func TestDonationRepository_Transition(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockDonationQuery).
		WithArgs("d1").
		WillReturnRows(donationRows(domain.DonationStatusProcessed, nil))
	mock.ExpectQuery(updateDonationQuery).
		WithArgs("d1", "COMPLETED", 300).
		WillReturnRows(donationRows(domain.DonationStatusCompleted, 300))
	mock.ExpectExec(reconcileQuery).
		WithArgs("u1", "COMPLETED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen domain.Donation
	updated, err := repo.Transition(context.Background(), "d1", func(current domain.Donation) (domain.Donation, error) {
		seen = current
		points := 300
		current.Status = domain.DonationStatusCompleted
		current.ActualPoints = &points
		return current, nil
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DonationStatusProcessed, seen.Status)
	assert.Equal(t, domain.ConditionGood, seen.Condition)
	assert.Nil(t, seen.ActualPoints)

	assert.Equal(t, domain.DonationStatusCompleted, updated.Status)
	require.NotNil(t, updated.ActualPoints)
	assert.Equal(t, 300, *updated.ActualPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_Transition_RollsBack(t *testing.T) {
	t.Run("apply error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockDonationQuery).
			WithArgs("d1").
			WillReturnRows(donationRows(domain.DonationStatusCompleted, 300))
		mock.ExpectRollback()

		_, err := repo.Transition(context.Background(), "d1", func(domain.Donation) (domain.Donation, error) {
			return domain.Donation{}, domain.ErrConflict
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing donation", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockDonationQuery).WithArgs("missing").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		called := false
		_, err := repo.Transition(context.Background(), "missing", func(d domain.Donation) (domain.Donation, error) {
			called = true
			return d, nil
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reconcile error", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockDonationQuery).
			WithArgs("d1").
			WillReturnRows(donationRows(domain.DonationStatusPending, nil))
		mock.ExpectQuery(updateDonationQuery).
			WithArgs("d1", "CONFIRMED", nil).
			WillReturnRows(donationRows(domain.DonationStatusConfirmed, nil))
		mock.ExpectExec(reconcileQuery).
			WithArgs("u1", "COMPLETED").
			WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		_, err := repo.Transition(context.Background(), "d1", func(d domain.Donation) (domain.Donation, error) {
			d.Status = domain.DonationStatusConfirmed
			return d, nil
		})
		assert.ErrorContains(t, err, "reconcile balance for user u1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDonationRepository_SumCompletedPoints(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(actual_points\), 0\) FROM donations\s+WHERE user_id = \$1 AND status = \$2`).
		WithArgs("u1", "COMPLETED").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(450))

	total, err := repo.SumCompletedPoints(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 450, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_CountByUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) AS total,\s+COUNT\(\*\) FILTER \(WHERE status = \$2\) AS completed\s+FROM donations WHERE user_id = \$1`).
		WithArgs("u1", "COMPLETED").
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(5, 2))

	counts, err := repo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationCounts{Total: 5, Completed: 2}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
