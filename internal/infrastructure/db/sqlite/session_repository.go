package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

const sessionColumns = "id, user_id, session_token, ip_address, user_agent, created_date, last_activity, expires_at, is_active"

// SessionRepository persists issued session tokens in user_sessions.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_sessions (user_id, session_token, ip_address, user_agent, created_date, last_activity, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID, session.Token, session.IPAddress, session.UserAgent,
		fmtTime(session.CreatedDate), fmtTime(session.LastActivity), fmtTime(session.ExpiresAt),
		boolToInt(session.IsActive))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert session id: %w", err)
	}

	created := *session
	created.ID = id
	return &created, nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM user_sessions WHERE session_token = ?", token)

	var (
		s            domain.Session
		ip           sql.NullString
		ua           sql.NullString
		createdDate  string
		lastActivity string
		expiresAt    string
		isActive     int
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &ip, &ua, &createdDate, &lastActivity, &expiresAt, &isActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.IPAddress = ip.String
	s.UserAgent = ua.String
	s.IsActive = isActive != 0

	if s.CreatedDate, err = parseTime(createdDate); err != nil {
		return nil, err
	}
	if s.LastActivity, err = parseTime(lastActivity); err != nil {
		return nil, err
	}
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *SessionRepository) TouchActivity(ctx context.Context, token string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user_sessions SET last_activity = ? WHERE session_token = ?", fmtTime(at), token)
	if err != nil {
		return fmt.Errorf("touch session activity: %w", err)
	}
	return nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user_sessions SET is_active = 0 WHERE session_token = ?", token)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_sessions WHERE expires_at < ?", fmtTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
