package domain

import "time"

// Login session outcomes.
const (
	SessionGranted = "granted"
	SessionDenied  = "denied"
)

// Decision methods recorded on a login session.
const (
	MethodPassword = "password"
	MethodModel    = "model"
	MethodZScore   = "zscore"
	MethodEnroll   = "enroll"
)

// LoginSession records a single authentication attempt.
type LoginSession struct {
	ID        int64
	UserID    string
	UserName  string
	Status    string
	Method    string
	Score     float64
	CreatedAt time.Time
}
