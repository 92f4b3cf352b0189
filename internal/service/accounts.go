package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"colourwars/internal/domain"
	"colourwars/internal/logger"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountsUnavailable = errors.New("accounts database unavailable")
)

// AccountStore is the accounts database as the game server sees it.
type AccountStore interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetDisplayName(ctx context.Context, userID int64) (string, error)
	GetRatings(ctx context.Context, userIDs []int64) (map[int64]int, error)
	ApplyRatingDelta(ctx context.Context, userID int64, delta int) (int, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// AccountService wraps the store with the fallbacks the game needs: guests, missing names,
// missing ratings. A nil store means the server runs in guest mode.
type AccountService struct {
	store   AccountStore
	timeout time.Duration
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store, timeout: 5 * time.Second}
}

// Available reports whether an accounts database is attached.
func (s *AccountService) Available() bool {
	return s != nil && s.store != nil
}

// DisplayName never fails: unknown users and lookup errors become "Guest".
func (s *AccountService) DisplayName(ctx context.Context, userID int64) string {
	if !s.Available() || userID <= 0 {
		return domain.GuestName
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name, err := s.store.GetDisplayName(ctx, userID)
	if err != nil || name == "" {
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			logger.Warn("display name lookup failed", "user_id", userID, "error", err)
		}
		return domain.GuestName
	}
	return name
}

// Ratings returns a rating for every requested user; users without one get the default.
func (s *AccountService) Ratings(ctx context.Context, userIDs []int64) (map[int64]int, error) {
	if !s.Available() {
		return nil, ErrAccountsUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.store.GetRatings(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get ratings: %w", err)
	}
	out := make(map[int64]int, len(userIDs))
	for _, id := range userIDs {
		if r, ok := stored[id]; ok {
			out[id] = r
		} else {
			out[id] = domain.DefaultRating
		}
	}
	return out, nil
}

// ApplyDelta persists one rating change and returns the stored rating.
func (s *AccountService) ApplyDelta(ctx context.Context, userID int64, delta int) (int, error) {
	if !s.Available() {
		return 0, ErrAccountsUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.ApplyRatingDelta(ctx, userID, delta)
}

func (s *AccountService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if !s.Available() {
		return nil, ErrAccountsUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.GetLeaderboard(ctx, limit)
}

// Profile returns the stored account; ErrUserNotFound when it does not exist.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	if !s.Available() {
		return nil, ErrAccountsUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.store.GetUser(ctx, userID)
}
