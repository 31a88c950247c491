package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

// ActivityRepository appends to and reads the user_activity audit table.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, entry *domain.ActivityEntry) error {
	var userID any
	if entry.UserID != nil {
		userID = *entry.UserID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, action, details, ip_address, user_agent, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, entry.Action, entry.Details, entry.IPAddress, entry.UserAgent, fmtTime(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, limit, offset int) ([]*domain.ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, details, ip_address, user_agent, timestamp
		  FROM user_activity
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityEntry
	for rows.Next() {
		var (
			e       domain.ActivityEntry
			userID  sql.NullInt64
			details sql.NullString
			ip      sql.NullString
			ua      sql.NullString
			ts      string
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &details, &ip, &ua, &ts); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		e.Details = details.String
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
