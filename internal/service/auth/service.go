package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/pavithraa18/typeidmain1/internal/crypto"
	"github.com/pavithraa18/typeidmain1/internal/domain"
	"github.com/pavithraa18/typeidmain1/internal/keystroke"
	"github.com/pavithraa18/typeidmain1/internal/repository"
	"github.com/pavithraa18/typeidmain1/internal/ws"
)

var (
	// ErrInvalidInput signals a malformed registration request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserExists signals a registration for an already-taken name.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials covers unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessDenied signals a failed keystroke comparison.
	ErrAccessDenied = errors.New("keystroke verification failed")
)

// Service handles registration and hybrid login workflows.
type Service struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	sessions   repository.SessionRepository
	engine     *keystroke.Engine
	hub        *ws.Hub
	logger     *slog.Logger
	maxSamples int
}

// New constructs a Service.
func New(users repository.UserRepository, profiles repository.ProfileRepository, sessions repository.SessionRepository, engine *keystroke.Engine, hub *ws.Hub, logger *slog.Logger, maxSamples int) Service {
	return Service{
		users:      users,
		profiles:   profiles,
		sessions:   sessions,
		engine:     engine,
		hub:        hub,
		logger:     logger,
		maxSamples: maxSamples,
	}
}

// Result describes a granted login.
type Result struct {
	User   *domain.User
	Method string
	Score  float64
}

// Register creates a user with its password hash and an optional first
// keystroke sample.
func (s Service) Register(ctx context.Context, name, password string, features []float64) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
	}
	reg := &domain.Registration{
		UserID:       user.ID,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	if len(features) > 0 {
		sample := &domain.ProfileSample{UserID: user.ID, Features: features, CreatedAt: now}
		if err := s.profiles.AddProfileSample(ctx, sample); err != nil {
			return nil, fmt.Errorf("store initial sample: %w", err)
		}
	}
	s.logger.Info("user registered", "user_id", user.ID, "name", user.Name, "initial_sample", len(features) > 0)
	return user, nil
}

// Login verifies the password, runs the hybrid keystroke decision and
// records the session. Every attempt against a known user leaves a
// login_sessions row.
func (s Service) Login(ctx context.Context, name, password string, features []float64) (*Result, error) {
	user, err := s.users.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	reg, err := s.users.GetRegistration(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := crypto.ComparePassword(reg.PasswordHash, password); err != nil {
		if recErr := s.recordSession(ctx, user, domain.SessionDenied, domain.MethodPassword, 0); recErr != nil {
			return nil, recErr
		}
		s.logger.Warn("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	// Model-scored users never need their stored vectors, only the count
	// for the enrollment cap.
	var (
		stored      []domain.ProfileSample
		sampleCount int
	)
	if s.engine.UsesModel(user.Name) {
		sampleCount, err = s.profiles.CountProfileSamples(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	} else {
		stored, err = s.profiles.ListProfileSamples(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		sampleCount = len(stored)
	}
	samples := make([][]float64, len(stored))
	for i, sample := range stored {
		samples[i] = sample.Features
	}

	decision, err := s.engine.Evaluate(user.Name, features, samples)
	if err != nil {
		if recErr := s.recordSession(ctx, user, domain.SessionDenied, decision.Method, 0); recErr != nil {
			return nil, recErr
		}
		s.logger.Warn("keystroke evaluation failed", "user_id", user.ID, "method", decision.Method, "error", err)
		return nil, err
	}
	if !decision.Granted {
		if recErr := s.recordSession(ctx, user, domain.SessionDenied, decision.Method, decision.Score); recErr != nil {
			return nil, recErr
		}
		s.logger.Warn("access denied", "user_id", user.ID, "method", decision.Method, "score", decision.Score)
		return nil, ErrAccessDenied
	}

	if len(features) > 0 && sampleCount < s.maxSamples {
		sample := &domain.ProfileSample{UserID: user.ID, Features: features, CreatedAt: time.Now().UTC()}
		if err := s.profiles.AddProfileSample(ctx, sample); err != nil {
			return nil, fmt.Errorf("store sample: %w", err)
		}
	}
	if err := s.recordSession(ctx, user, domain.SessionGranted, decision.Method, decision.Score); err != nil {
		return nil, err
	}
	s.logger.Info("access granted", "user_id", user.ID, "method", decision.Method, "score", decision.Score)
	return &Result{User: user, Method: decision.Method, Score: decision.Score}, nil
}

func (s Service) recordSession(ctx context.Context, user *domain.User, status, method string, score float64) error {
	session := &domain.LoginSession{
		UserID:    user.ID,
		UserName:  user.Name,
		Status:    status,
		Method:    method,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.RecordSession(ctx, session); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	s.broadcast(session)
	return nil
}

func (s Service) broadcast(session *domain.LoginSession) {
	if s.hub == nil {
		return
	}
	data, err := MarshalSessionEvent(session)
	if err != nil {
		s.logger.Warn("failed to marshal session event", "error", err)
		return
	}
	s.hub.Broadcast(ws.TopicAll, data)
	if session.UserName != "" {
		s.hub.Broadcast(strings.ToLower(session.UserName), data)
	}
}

// MarshalSessionEvent formats a login session for streaming payloads.
func MarshalSessionEvent(session *domain.LoginSession) ([]byte, error) {
	payload := map[string]any{
		"id":         session.ID,
		"user_id":    session.UserID,
		"name":       session.UserName,
		"status":     session.Status,
		"method":     session.Method,
		"score":      session.Score,
		"created_at": session.CreatedAt.Format(time.RFC3339Nano),
	}
	return json.Marshal(payload)
}
