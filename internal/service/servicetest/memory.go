// Package servicetest provides an in-memory implementation of the service
// stores for tests.
package servicetest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/abjin/reward-closet/internal/domain"
)

// Store keeps users and donations in memory. It satisfies both
// service.UserStore and service.DonationStore.
type Store struct {
	mu        sync.Mutex
	users     map[string]domain.User
	donations map[string]domain.Donation
	clock     time.Time

	// Writes counts UpdatePoints calls.
	Writes int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:     map[string]domain.User{},
		donations: map[string]domain.Donation{},
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp. Callers hold mu.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.findUser(func(u domain.User) bool { return u.Email == email })
}

func (s *Store) FindByProviderID(_ context.Context, providerID string) (*domain.User, error) {
	return s.findUser(func(u domain.User) bool { return u.ProviderID != nil && *u.ProviderID == providerID })
}

func (s *Store) findUser(match func(domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) Create(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == user.ID || u.Email == user.Email {
			return nil, fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}
	}
	now := s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	return &user, nil
}

func (s *Store) UpdateNickname(_ context.Context, id, nickname string) (*domain.User, error) {
	return s.updateUser(id, func(u *domain.User) { u.Nickname = nickname })
}

func (s *Store) UpdatePoints(_ context.Context, id string, points int) (*domain.User, error) {
	s.mu.Lock()
	s.Writes++
	s.mu.Unlock()
	return s.updateUser(id, func(u *domain.User) { u.Points = points })
}

func (s *Store) updateUser(id string, mutate func(*domain.User)) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mutate(&u)
	u.UpdatedAt = s.tick()
	s.users[id] = u
	return &u, nil
}

// CreateDonation inserts a donation. Donations exposes it as
// service.DonationStore.Create.
func (s *Store) CreateDonation(_ context.Context, d domain.Donation) (*domain.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[d.UserID]; !ok {
		return nil, fmt.Errorf("create donation: owner %s does not exist", d.UserID)
	}
	now := s.tick()
	d.CreatedAt, d.UpdatedAt = now, now
	s.donations[d.ID] = d
	return &d, nil
}

// Donations returns a view of the store satisfying service.DonationStore.
func (s *Store) Donations() *Donations {
	return &Donations{s: s}
}

// Donations adapts Store to service.DonationStore.
type Donations struct {
	s *Store
}

func (d *Donations) Create(ctx context.Context, donation domain.Donation) (*domain.Donation, error) {
	return d.s.CreateDonation(ctx, donation)
}

func (d *Donations) FindByID(_ context.Context, id string) (*domain.Donation, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	donation, ok := d.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &donation, nil
}

func (d *Donations) ListByUser(_ context.Context, userID string) ([]domain.Donation, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	out := []domain.Donation{}
	for _, donation := range d.s.donations {
		if donation.UserID == userID {
			out = append(out, donation)
		}
	}
	slices.SortFunc(out, func(a, b domain.Donation) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (d *Donations) SumCompletedPoints(_ context.Context, userID string) (int, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.s.sumCompleted(userID), nil
}

func (s *Store) sumCompleted(userID string) int {
	total := 0
	for _, donation := range s.donations {
		if donation.UserID == userID && donation.Status == domain.DonationStatusCompleted && donation.ActualPoints != nil {
			total += *donation.ActualPoints
		}
	}
	return total
}

func (d *Donations) CountByUser(_ context.Context, userID string) (domain.DonationCounts, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var counts domain.DonationCounts
	for _, donation := range d.s.donations {
		if donation.UserID != userID {
			continue
		}
		counts.Total++
		if donation.Status == domain.DonationStatusCompleted {
			counts.Completed++
		}
	}
	return counts, nil
}

func (d *Donations) Transition(_ context.Context, id string, apply func(domain.Donation) (domain.Donation, error)) (*domain.Donation, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	current, ok := d.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next, err := apply(current)
	if err != nil {
		return nil, err
	}
	current.Status = next.Status
	current.ActualPoints = next.ActualPoints
	current.UpdatedAt = d.s.tick()
	d.s.donations[id] = current

	if owner, ok := d.s.users[current.UserID]; ok {
		owner.Points = d.s.sumCompleted(current.UserID)
		d.s.users[current.UserID] = owner
	}
	return &current, nil
}

// SetDonation overwrites a stored donation, bypassing the lifecycle. Tests
// use it to simulate drift between balances and completed donations.
func (s *Store) SetDonation(d domain.Donation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.ID] = d
}

// User returns the stored user with id.
func (s *Store) User(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// DonationCount returns the number of stored donations.
func (s *Store) DonationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.donations)
}
