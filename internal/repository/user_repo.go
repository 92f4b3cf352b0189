package repository

import (
	"context"
	"errors"

	"colourwars/internal/domain"
	"colourwars/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository reads names and ratings from the accounts database and applies rating deltas.
// The schema belongs to the accounts service.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, COALESCE(rating, $2), profile_picture_url, created_at
		 FROM users
		 WHERE id = $1`,
		id, domain.DefaultRating,
	).Scan(&u.ID, &u.Username, &u.Rating, &u.ProfilePictureURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetDisplayName(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", service.ErrUserNotFound
	}
	return name, err
}

// GetRatings returns stored ratings; users that do not exist are absent from the map.
func (r *UserRepository) GetRatings(ctx context.Context, ids []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(rating, $2) FROM users WHERE id = ANY($1)`,
		ids, domain.DefaultRating,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var rating int
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, err
		}
		out[id] = rating
	}
	return out, rows.Err()
}

// ApplyRatingDelta adds delta to the stored rating, never going below zero.
func (r *UserRepository) ApplyRatingDelta(ctx context.Context, id int64, delta int) (int, error) {
	var rating int
	err := r.db.QueryRow(ctx,
		`UPDATE users
		 SET rating = GREATEST(0, COALESCE(rating, $3) + $2)
		 WHERE id = $1
		 RETURNING rating`,
		id, delta, domain.DefaultRating,
	).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, service.ErrUserNotFound
	}
	return rating, err
}

func (r *UserRepository) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, username, COALESCE(rating, $2), profile_picture_url
		 FROM users
		 ORDER BY rating DESC NULLS LAST, id
		 LIMIT $1`,
		limit, domain.DefaultRating,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Rating, &e.ProfilePictureURL); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
