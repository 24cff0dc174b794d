package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pavithraa18/typeidmain1/internal/domain"
	"github.com/pavithraa18/typeidmain1/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

// Repository implements persistence interfaces on a single SQLite file.
type Repository struct {
	db          *sql.DB
	busyRetries int
	busyBackoff time.Duration
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository      = (*Repository)(nil)
	_ repository.ProfileRepository   = (*Repository)(nil)
	_ repository.SessionRepository   = (*Repository)(nil)
	_ repository.DashboardRepository = (*Repository)(nil)
)

// Open connects to the database file in WAL journal mode.
func Open(path string, busyRetries int, busyBackoff time.Duration) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db, busyRetries, busyBackoff), nil
}

// New wraps an existing database handle.
func New(db *sql.DB, busyRetries int, busyBackoff time.Duration) *Repository {
	if busyRetries <= 0 {
		busyRetries = 5
	}
	if busyBackoff <= 0 {
		busyBackoff = 10 * time.Millisecond
	}
	return &Repository{db: db, busyRetries: busyRetries, busyBackoff: busyBackoff}
}

// EnsureSchema applies the embedded table definitions.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}

// Ping verifies the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateUser inserts a user together with its registration record.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User, reg *domain.Registration) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		const userQuery = `INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, userQuery, user.ID, user.Name, user.CreatedAt); err != nil {
			if isConstraint(err) {
				return repository.ErrDuplicate
			}
			return err
		}
		const regQuery = `INSERT INTO user_registrations (user_id, password_hash, created_at) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, regQuery, reg.UserID, reg.PasswordHash, reg.CreatedAt); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetUserByName fetches a user by account name.
func (r *Repository) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	const query = `SELECT id, name, created_at FROM users WHERE name = ?`
	var u domain.User
	err := r.withRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, name).Scan(&u.ID, &u.Name, &u.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetRegistration returns the stored password hash for a user.
func (r *Repository) GetRegistration(ctx context.Context, userID string) (*domain.Registration, error) {
	const query = `SELECT user_id, password_hash, created_at FROM user_registrations WHERE user_id = ?`
	var reg domain.Registration
	err := r.withRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, userID).Scan(&reg.UserID, &reg.PasswordHash, &reg.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// AddProfileSample stores a keystroke feature vector as a JSON array.
func (r *Repository) AddProfileSample(ctx context.Context, sample *domain.ProfileSample) error {
	features, err := json.Marshal(sample.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	const query = `INSERT INTO biometric_profiles (user_id, features, created_at) VALUES (?, ?, ?)`
	return r.withRetry(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, query, sample.UserID, string(features), sample.CreatedAt)
		if err != nil {
			return err
		}
		sample.ID, _ = res.LastInsertId()
		return nil
	})
}

// ListProfileSamples returns all stored samples for a user, oldest first.
func (r *Repository) ListProfileSamples(ctx context.Context, userID string) ([]domain.ProfileSample, error) {
	const query = `SELECT id, user_id, features, created_at FROM biometric_profiles WHERE user_id = ? ORDER BY id`
	var samples []domain.ProfileSample
	err := r.withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		samples = samples[:0]
		for rows.Next() {
			var s domain.ProfileSample
			var features string
			if err := rows.Scan(&s.ID, &s.UserID, &features, &s.CreatedAt); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(features), &s.Features); err != nil {
				return fmt.Errorf("decode features for sample %d: %w", s.ID, err)
			}
			samples = append(samples, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// CountProfileSamples counts stored samples for a user.
func (r *Repository) CountProfileSamples(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(1) FROM biometric_profiles WHERE user_id = ?`
	var count int
	err := r.withRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RecordSession appends a login session row.
func (r *Repository) RecordSession(ctx context.Context, session *domain.LoginSession) error {
	const query = `INSERT INTO login_sessions (user_id, status, method, score, created_at) VALUES (?, ?, ?, ?, ?)`
	return r.withRetry(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, query, session.UserID, session.Status, session.Method, session.Score, session.CreatedAt)
		if err != nil {
			return err
		}
		session.ID, _ = res.LastInsertId()
		return nil
	})
}

// ListRecentSessions returns the newest sessions with account names resolved.
func (r *Repository) ListRecentSessions(ctx context.Context, limit int) ([]domain.LoginSession, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ls.id, ls.user_id, COALESCE(u.name, ''), ls.status, ls.method, ls.score, ls.created_at
		FROM login_sessions ls
		LEFT JOIN users u ON u.id = ls.user_id
		ORDER BY ls.id DESC
		LIMIT ?`
	var sessions []domain.LoginSession
	err := r.withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			var s domain.LoginSession
			if err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.Status, &s.Method, &s.Score, &s.CreatedAt); err != nil {
				return err
			}
			sessions = append(sessions, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// UserStats aggregates registration counts and per-user activity.
func (r *Repository) UserStats(ctx context.Context) (*domain.UserStats, error) {
	stats := &domain.UserStats{}
	err := r.withRetry(ctx, func(ctx context.Context) error {
		const totals = `SELECT
			(SELECT COUNT(1) FROM users),
			(SELECT COUNT(1) FROM biometric_profiles)`
		if err := r.db.QueryRowContext(ctx, totals).Scan(&stats.TotalUsers, &stats.TotalSamples); err != nil {
			return err
		}

		const perUser = `SELECT u.id, u.name, COUNT(bp.id)
			FROM users u
			LEFT JOIN biometric_profiles bp ON bp.user_id = u.id
			GROUP BY u.id, u.name
			ORDER BY u.name`
		rows, err := r.db.QueryContext(ctx, perUser)
		if err != nil {
			return err
		}
		defer rows.Close()

		stats.Users = stats.Users[:0]
		index := make(map[string]int)
		for rows.Next() {
			var activity domain.UserActivity
			if err := rows.Scan(&activity.UserID, &activity.Name, &activity.SampleCount); err != nil {
				return err
			}
			index[activity.UserID] = len(stats.Users)
			stats.Users = append(stats.Users, activity)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		const lastLogins = `SELECT user_id, MAX(id), created_at
			FROM login_sessions
			WHERE status = ?
			GROUP BY user_id`
		loginRows, err := r.db.QueryContext(ctx, lastLogins, domain.SessionGranted)
		if err != nil {
			return err
		}
		defer loginRows.Close()

		for loginRows.Next() {
			var userID string
			var sessionID int64
			var createdAt time.Time
			if err := loginRows.Scan(&userID, &sessionID, &createdAt); err != nil {
				return err
			}
			if i, ok := index[userID]; ok {
				ts := createdAt
				stats.Users[i].LastLogin = &ts
			}
		}
		return loginRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SessionStats aggregates login sessions by status, method and recency.
func (r *Repository) SessionStats(ctx context.Context, recentLimit int) (*domain.SessionStats, error) {
	stats := &domain.SessionStats{
		ByStatus: make(map[string]int),
		ByMethod: make(map[string]int),
	}
	err := r.withRetry(ctx, func(ctx context.Context) error {
		const byStatus = `SELECT status, COUNT(1) FROM login_sessions GROUP BY status`
		if err := r.scanGroupCounts(ctx, byStatus, stats.ByStatus); err != nil {
			return err
		}
		const byMethod = `SELECT method, COUNT(1) FROM login_sessions GROUP BY method`
		if err := r.scanGroupCounts(ctx, byMethod, stats.ByMethod); err != nil {
			return err
		}
		stats.Total = 0
		for _, count := range stats.ByStatus {
			stats.Total += count
		}

		const last24h = `SELECT COUNT(1) FROM login_sessions WHERE created_at >= ?`
		cutoff := time.Now().UTC().Add(-24 * time.Hour)
		return r.db.QueryRowContext(ctx, last24h, cutoff).Scan(&stats.Last24h)
	})
	if err != nil {
		return nil, err
	}
	recent, err := r.ListRecentSessions(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	stats.Recent = recent
	return stats, nil
}

func (r *Repository) scanGroupCounts(ctx context.Context, query string, dest map[string]int) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	clear(dest)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}
