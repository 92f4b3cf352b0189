package domain

import "time"

// User is the account record owned by the accounts database. The game server only reads it.
type User struct {
	ID                int64     `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	Rating            int       `db:"rating" json:"rating"`
	ProfilePictureURL *string   `db:"profile_picture_url" json:"profile_picture_url"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type LeaderboardEntry struct {
	Rank              int     `json:"rank"`
	UserID            int64   `json:"id"`
	Username          string  `json:"username"`
	Rating            int     `json:"rating"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// RatingChange is one logged-in seat's line of a settlement.
type RatingChange struct {
	Player    int8   `json:"player"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	OldRating int    `json:"old_rating"`
	NewRating int    `json:"new_rating"`
	Delta     int    `json:"delta"`
	// Persisted is false when the write to the accounts database failed.
	Persisted bool `json:"persisted"`
}

const (
	// GuestName is shown for seats without an account or whose name lookup failed.
	GuestName = "Guest"
	// DefaultRating is assumed for accounts without a stored rating.
	DefaultRating = 800
)
