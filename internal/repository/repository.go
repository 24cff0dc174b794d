package repository

import (
	"context"

	"github.com/pavithraa18/typeidmain1/internal/domain"
)

// UserRepository persists users and their registration records.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User, reg *domain.Registration) error
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
	GetRegistration(ctx context.Context, userID string) (*domain.Registration, error)
}

// ProfileRepository stores keystroke feature vector samples.
type ProfileRepository interface {
	AddProfileSample(ctx context.Context, sample *domain.ProfileSample) error
	ListProfileSamples(ctx context.Context, userID string) ([]domain.ProfileSample, error)
	CountProfileSamples(ctx context.Context, userID string) (int, error)
}

// SessionRepository records authentication attempts.
type SessionRepository interface {
	RecordSession(ctx context.Context, session *domain.LoginSession) error
	ListRecentSessions(ctx context.Context, limit int) ([]domain.LoginSession, error)
}

// DashboardRepository serves the aggregate read endpoints.
type DashboardRepository interface {
	UserStats(ctx context.Context) (*domain.UserStats, error)
	SessionStats(ctx context.Context, recentLimit int) (*domain.SessionStats, error)
}
