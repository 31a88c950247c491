package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

const userColumns = "id, username, password_hash, email, role, full_name, is_active, created_date, last_login, login_attempts, locked_until"

// UserRepository persists operator accounts in the users table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindActiveByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? AND is_active = 1", username)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, email, role, full_name, is_active, created_date, login_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		user.Username, user.PasswordHash, user.Email, string(user.Role), user.FullName,
		boolToInt(user.IsActive), fmtTime(user.CreatedDate))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user id: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Update rewrites the editable profile fields. Lockout counters and
// last_login are owned by the auth flows and left alone here.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		   SET email = ?, role = ?, full_name = ?, is_active = ?, password_hash = ?
		 WHERE id = ?`,
		user.Email, string(user.Role), user.FullName, boolToInt(user.IsActive), user.PasswordHash, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *UserRepository) ResetLoginState(ctx context.Context, id int64, lastLogin time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET login_attempts = 0, locked_until = NULL, last_login = ? WHERE id = ?",
		fmtTime(lastLogin), id)
	if err != nil {
		return fmt.Errorf("reset login state: %w", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

// RecordLoginFailure increments the attempt counter and applies the lockout
// in one statement, so concurrent failures cannot lose increments.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id int64, threshold int, lockedUntil time.Time) (int, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		   SET login_attempts = login_attempts + 1,
		       locked_until   = CASE WHEN login_attempts + 1 >= ? THEN ? ELSE locked_until END
		 WHERE id = ?`,
		threshold, fmtTime(lockedUntil), id)
	if err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}

	var attempts int
	if err := r.db.QueryRowContext(ctx,
		"SELECT login_attempts FROM users WHERE id = ?", id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("read login attempts: %w", err)
	}
	return attempts, nil
}

func (r *UserRepository) Unlock(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET login_attempts = 0, locked_until = NULL WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("unlock user: %w", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u           domain.User
		role        string
		fullName    sql.NullString
		isActive    int
		createdDate string
		lastLogin   sql.NullString
		lockedUntil sql.NullString
	)

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &role, &fullName,
		&isActive, &createdDate, &lastLogin, &u.LoginAttempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = domain.Role(role)
	u.FullName = fullName.String
	u.IsActive = isActive != 0

	if u.CreatedDate, err = parseTime(createdDate); err != nil {
		return nil, err
	}
	if u.LastLogin, err = parseTimePtr(lastLogin); err != nil {
		return nil, err
	}
	if u.LockedUntil, err = parseTimePtr(lockedUntil); err != nil {
		return nil, err
	}

	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRow converts a zero-row UPDATE into notFound.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
