package domain

import "time"

// UserActivity is a per-user dashboard row. Enrolling marks users whose
// profile is still below the statistical comparison cutoff.
type UserActivity struct {
	UserID      string
	Name        string
	SampleCount int
	Enrolling   bool
	LastLogin   *time.Time
}

// UserStats aggregates the registration side of the dashboard.
type UserStats struct {
	TotalUsers    int
	TotalSamples  int
	ModelCoverage int
	Users         []UserActivity
}

// SessionStats aggregates the login session side of the dashboard.
type SessionStats struct {
	Total    int
	ByStatus map[string]int
	ByMethod map[string]int
	Last24h  int
	Recent   []LoginSession
}
