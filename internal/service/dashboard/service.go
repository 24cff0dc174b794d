package dashboard

import (
	"context"

	"log/slog"

	"github.com/pavithraa18/typeidmain1/internal/domain"
	"github.com/pavithraa18/typeidmain1/internal/keystroke"
	"github.com/pavithraa18/typeidmain1/internal/repository"
)

const (
	defaultRecentSessions = 20
	maxRecentSessions     = 200
)

// Service serves the dashboard read endpoints.
type Service struct {
	repo   repository.DashboardRepository
	engine *keystroke.Engine
	logger *slog.Logger
}

// New constructs a dashboard service.
func New(repo repository.DashboardRepository, engine *keystroke.Engine, logger *slog.Logger) Service {
	return Service{repo: repo, engine: engine, logger: logger}
}

// UserStats returns registration aggregates with model coverage filled in.
func (s Service) UserStats(ctx context.Context) (*domain.UserStats, error) {
	stats, err := s.repo.UserStats(ctx)
	if err != nil {
		return nil, err
	}
	if s.engine != nil {
		stats.ModelCoverage = s.engine.ModelUserCount()
		for i := range stats.Users {
			stats.Users[i].Enrolling = stats.Users[i].SampleCount < s.engine.MinSamples()
		}
	}
	return stats, nil
}

// SessionStats returns login session aggregates. The recent-session limit
// is clamped to a sane range.
func (s Service) SessionStats(ctx context.Context, recentLimit int) (*domain.SessionStats, error) {
	if recentLimit <= 0 {
		recentLimit = defaultRecentSessions
	}
	if recentLimit > maxRecentSessions {
		recentLimit = maxRecentSessions
	}
	return s.repo.SessionStats(ctx, recentLimit)
}
