package domain

import "time"

// User represents a registered account.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Registration holds the single password hash stored per user.
type Registration struct {
	UserID       string
	PasswordHash []byte
	CreatedAt    time.Time
}

// ProfileSample is one stored keystroke feature vector for a user.
// Samples accumulate per user and are never updated in place.
type ProfileSample struct {
	ID        int64
	UserID    string
	Features  []float64
	CreatedAt time.Time
}
