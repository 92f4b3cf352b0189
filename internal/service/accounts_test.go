package service

import (
	"context"
	"errors"
	"testing"

	"colourwars/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	names     map[int64]string
	ratings   map[int64]int
	nameErr   error
	ratingErr error
	applied   map[int64]int
}

func (s *stubStore) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	name, ok := s.names[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &domain.User{ID: userID, Username: name, Rating: s.ratings[userID]}, nil
}

func (s *stubStore) GetDisplayName(_ context.Context, userID int64) (string, error) {
	if s.nameErr != nil {
		return "", s.nameErr
	}
	name, ok := s.names[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return name, nil
}

func (s *stubStore) GetRatings(_ context.Context, userIDs []int64) (map[int64]int, error) {
	if s.ratingErr != nil {
		return nil, s.ratingErr
	}
	out := map[int64]int{}
	for _, id := range userIDs {
		if r, ok := s.ratings[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (s *stubStore) ApplyRatingDelta(_ context.Context, userID int64, delta int) (int, error) {
	if s.applied == nil {
		s.applied = map[int64]int{}
	}
	s.applied[userID] += delta
	return max(0, s.ratings[userID]+delta), nil
}

func (s *stubStore) GetLeaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return []domain.LeaderboardEntry{{Rank: 1, UserID: 1, Username: "alice", Rating: 900}}, nil
}

func TestDisplayNameFallsBackToGuest(t *testing.T) {
	svc := NewAccountService(&stubStore{names: map[int64]string{1: "alice"}})

	assert.Equal(t, "alice", svc.DisplayName(context.Background(), 1))
	assert.Equal(t, domain.GuestName, svc.DisplayName(context.Background(), 2))
	assert.Equal(t, domain.GuestName, svc.DisplayName(context.Background(), 0))
}

func TestDisplayNameOnStoreError(t *testing.T) {
	svc := NewAccountService(&stubStore{nameErr: errors.New("connection refused")})

	assert.Equal(t, domain.GuestName, svc.DisplayName(context.Background(), 1))
}

func TestRatingsDefaultForMissingUsers(t *testing.T) {
	svc := NewAccountService(&stubStore{ratings: map[int64]int{1: 1000}})

	got, err := svc.Ratings(context.Background(), []int64{1, 2})

	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 1000, 2: domain.DefaultRating}, got)
}

func TestRatingsPropagatesStoreError(t *testing.T) {
	svc := NewAccountService(&stubStore{ratingErr: errors.New("timeout")})

	_, err := svc.Ratings(context.Background(), []int64{1})

	assert.Error(t, err)
}

func TestGuestModeService(t *testing.T) {
	svc := NewAccountService(nil)

	assert.False(t, svc.Available())
	assert.Equal(t, domain.GuestName, svc.DisplayName(context.Background(), 7))

	_, err := svc.Ratings(context.Background(), []int64{7})
	assert.ErrorIs(t, err, ErrAccountsUnavailable)

	_, err = svc.ApplyDelta(context.Background(), 7, 5)
	assert.ErrorIs(t, err, ErrAccountsUnavailable)

	_, err = svc.Leaderboard(context.Background(), 10)
	assert.ErrorIs(t, err, ErrAccountsUnavailable)
}

func TestApplyDeltaDelegates(t *testing.T) {
	store := &stubStore{ratings: map[int64]int{1: 3}}
	svc := NewAccountService(store)

	got, err := svc.ApplyDelta(context.Background(), 1, -10)

	require.NoError(t, err)
	assert.Equal(t, 0, got)
	assert.Equal(t, -10, store.applied[1])
}

func TestProfile(t *testing.T) {
	svc := NewAccountService(&stubStore{names: map[int64]string{1: "alice"}, ratings: map[int64]int{1: 950}})

	user, err := svc.Profile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 950, user.Rating)

	_, err = svc.Profile(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
