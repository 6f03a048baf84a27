package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/abjin/reward-closet/internal/domain"
)

const donationColumns = `id, user_id, image_url, item_type, condition, estimated_points, actual_points,
	pickup_method, address, notes, status, created_at, updated_at`

// DonationRepository handles donation data access operations.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository creates a new DonationRepository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a new donation and returns the stored row.
func (r *DonationRepository) Create(ctx context.Context, d domain.Donation) (*domain.Donation, error) {
	var result domain.Donation
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO donations (id, user_id, image_url, item_type, condition, estimated_points,
		                        actual_points, pickup_method, address, notes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+donationColumns,
		d.ID, d.UserID, d.ImageURL, d.ItemType, d.Condition, d.EstimatedPoints,
		d.ActualPoints, d.PickupMethod, d.Address, d.Notes, d.Status,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return &result, nil
}

// FindByID retrieves a donation by its ID.
func (r *DonationRepository) FindByID(ctx context.Context, id string) (*domain.Donation, error) {
	var d domain.Donation
	err := r.db.GetContext(ctx, &d, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find donation %s: %w", id, err)
	}
	return &d, nil
}

// ListByUser returns the user's donations, newest first.
func (r *DonationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Donation, error) {
	donations := []domain.Donation{}
	err := r.db.SelectContext(ctx, &donations,
		`SELECT `+donationColumns+` FROM donations
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list donations for user %s: %w", userID, err)
	}
	return donations, nil
}

// SumCompletedPoints totals actual_points over the user's completed donations.
func (r *DonationRepository) SumCompletedPoints(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(actual_points), 0) FROM donations
		 WHERE user_id = $1 AND status = $2`, userID, domain.DonationStatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("sum completed points for user %s: %w", userID, err)
	}
	return total, nil
}

// CountByUser returns total and completed donation counts for the user.
func (r *DonationRepository) CountByUser(ctx context.Context, userID string) (domain.DonationCounts, error) {
	var counts domain.DonationCounts
	err := r.db.GetContext(ctx, &counts,
		`SELECT COUNT(*) AS total,
		        COUNT(*) FILTER (WHERE status = $2) AS completed
		 FROM donations WHERE user_id = $1`, userID, domain.DonationStatusCompleted)
	if err != nil {
		return domain.DonationCounts{}, fmt.Errorf("count donations for user %s: %w", userID, err)
	}
	return counts, nil
}

// Transition locks the donation, lets apply compute its next state, persists
// it, and recomputes the owner's balance, all in one transaction.
func (r *DonationRepository) Transition(
	ctx context.Context,
	id string,
	apply func(current domain.Donation) (domain.Donation, error),
) (*domain.Donation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current domain.Donation
	err = tx.GetContext(ctx, &current,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock donation %s: %w", id, err)
	}

	next, err := apply(current)
	if err != nil {
		return nil, err
	}

	var updated domain.Donation
	err = tx.QueryRowxContext(ctx,
		`UPDATE donations SET status = $2, actual_points = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+donationColumns,
		id, next.Status, next.ActualPoints,
	).StructScan(&updated)
	if err != nil {
		return nil, fmt.Errorf("update donation %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET points = (
		     SELECT COALESCE(SUM(actual_points), 0) FROM donations
		     WHERE user_id = $1 AND status = $2
		 ), updated_at = NOW()
		 WHERE id = $1`, updated.UserID, domain.DonationStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("reconcile balance for user %s: %w", updated.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return &updated, nil
}
