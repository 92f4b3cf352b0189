package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"colourwars/internal/domain"
	"colourwars/internal/http/middleware"
	"colourwars/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users    map[int64]*domain.User
	boardErr error
	limits   []int
}

func (s *fakeStore) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeStore) GetDisplayName(_ context.Context, id int64) (string, error) {
	return "", service.ErrUserNotFound
}

func (s *fakeStore) GetRatings(context.Context, []int64) (map[int64]int, error) {
	return map[int64]int{}, nil
}

func (s *fakeStore) ApplyRatingDelta(context.Context, int64, int) (int, error) {
	return 0, nil
}

func (s *fakeStore) GetLeaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.limits = append(s.limits, limit)
	if s.boardErr != nil {
		return nil, s.boardErr
	}
	return []domain.LeaderboardEntry{{Rank: 1, UserID: 1, Username: "alice", Rating: 950}}, nil
}

type fixedRooms int64

func (f fixedRooms) LiveRooms() int64 { return int64(f) }

func newRouter(accounts *service.AccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(accounts, fixedRooms(3), "test")
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.GET("/api/leaderboard", h.GetLeaderboard)
	r.GET("/api/me", middleware.JWTAuth(), h.MyProfile)
	return r
}

func get(r *gin.Engine, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLeaderboardLimits(t *testing.T) {
	store := &fakeStore{}
	r := newRouter(service.NewAccountService(store))

	for _, path := range []string{"/api/leaderboard", "/api/leaderboard?limit=20", "/api/leaderboard?limit=9000", "/api/leaderboard?limit=-1", "/api/leaderboard?limit=abc"} {
		w := get(r, path)
		require.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.Equal(t, []int{100, 20, 500, 100, 100}, store.limits)

	var body struct {
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(get(r, "/api/leaderboard").Body.Bytes(), &body))
	assert.Equal(t, "alice", body.Leaderboard[0].Username)
}

func TestLeaderboardGuestMode(t *testing.T) {
	r := newRouter(service.NewAccountService(nil))

	w := get(r, "/api/leaderboard")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLeaderboardStoreFailure(t *testing.T) {
	r := newRouter(service.NewAccountService(&fakeStore{boardErr: errors.New("boom")}))

	w := get(r, "/api/leaderboard")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	r := newRouter(service.NewAccountService(nil))

	w := get(r, "/healthz")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["rooms"])
	assert.Equal(t, true, body["guest_mode"])
}

func TestMyProfile(t *testing.T) {
	service.InitJWT("handler-secret")
	store := &fakeStore{users: map[int64]*domain.User{4: {ID: 4, Username: "dana", Rating: 812}}}
	r := newRouter(service.NewAccountService(store))

	token := func(id int64) string {
		claims := service.Claims{UserID: id, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("handler-secret"))
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "Authorization", "Bearer junk").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/me", "Authorization", "Bearer "+token(5)).Code)

	w := get(r, "/api/me", "Authorization", "Bearer "+token(4))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		User struct {
			Username string `json:"username"`
			Rating   int    `json:"rating"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "dana", body.User.Username)
	assert.Equal(t, 812, body.User.Rating)
}
