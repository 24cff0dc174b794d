package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pavithraa18/typeidmain1/internal/domain"
	"github.com/pavithraa18/typeidmain1/internal/keystroke"
)

type dashboardRepoStub struct {
	userStats    *domain.UserStats
	sessionStats *domain.SessionStats
	lastLimit    int
}

func (s *dashboardRepoStub) UserStats(_ context.Context) (*domain.UserStats, error) {
	return s.userStats, nil
}

func (s *dashboardRepoStub) SessionStats(_ context.Context, recentLimit int) (*domain.SessionStats, error) {
	s.lastLimit = recentLimit
	return s.sessionStats, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserStatsFillsModelCoverage(t *testing.T) {
	repo := &dashboardRepoStub{userStats: &domain.UserStats{
		TotalUsers:   4,
		TotalSamples: 12,
		Users: []domain.UserActivity{
			{UserID: "user-1", Name: "alice", SampleCount: 5},
			{UserID: "user-2", Name: "bob", SampleCount: 2},
		},
	}}
	engine := keystroke.NewEngine(keystroke.NewAllowlist("alice", "bob"), nil, keystroke.ZScoreScorer{Threshold: 1.5}, 3)
	svc := New(repo, engine, newLogger())

	stats, err := svc.UserStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ModelCoverage != 2 {
		t.Fatalf("expected model coverage 2, got %d", stats.ModelCoverage)
	}
	if stats.TotalUsers != 4 || stats.TotalSamples != 12 {
		t.Fatalf("aggregates not passed through: %+v", stats)
	}
	if stats.Users[0].Enrolling {
		t.Fatalf("user with 5 samples should not be enrolling")
	}
	if !stats.Users[1].Enrolling {
		t.Fatalf("user with 2 samples should still be enrolling")
	}
}

func TestSessionStatsClampsLimit(t *testing.T) {
	repo := &dashboardRepoStub{sessionStats: &domain.SessionStats{}}
	svc := New(repo, nil, newLogger())

	if _, err := svc.SessionStats(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != defaultRecentSessions {
		t.Fatalf("expected default limit, got %d", repo.lastLimit)
	}

	if _, err := svc.SessionStats(context.Background(), 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != maxRecentSessions {
		t.Fatalf("expected clamped limit, got %d", repo.lastLimit)
	}
}
