package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/session"
)

// timeLayout is RFC 3339 with fixed-width nanoseconds. RFC3339Nano trims
// trailing fraction zeros, which breaks lexicographic ordering within a
// second ("...00.5Z" sorts after "...00.52Z"); padding keeps ORDER BY and
// the started_at cursor comparison chronological. Stored times are always
// UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SessionRepository provides CRUD operations for workout sessions. It
// implements session.Repository.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// SaveSession inserts a session record and its per-set rows in one
// transaction.
func (r *SessionRepository) SaveSession(rec *session.Record) error {
	topIssues, err := json.Marshal(rec.TopIssues)
	if err != nil {
		return fmt.Errorf("marshal top issues: %w", err)
	}
	distribution, err := json.Marshal(rec.Distribution)
	if err != nil {
		return fmt.Errorf("marshal distribution: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, user_id, exercise_type, started_at, ended_at, duration_ms,
		                       total_reps, total_sets, average_score, top_issues, distribution)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(rec.ExerciseType),
		rec.StartedAt.UTC().Format(timeLayout), rec.EndedAt.UTC().Format(timeLayout),
		rec.DurationMs, rec.TotalReps, rec.TotalSets, rec.AverageScore,
		string(topIssues), string(distribution),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO session_sets (session_id, set_number, rep_count, average_score, common_issues, start_ms, end_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, set := range rec.Sets {
		commonIssues, err := json.Marshal(set.CommonIssues)
		if err != nil {
			return fmt.Errorf("marshal common issues: %w", err)
		}
		if _, err := stmt.Exec(rec.ID, set.SetNumber, set.RepCount, set.AverageScore,
			string(commonIssues), set.StartMs, set.EndMs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSession retrieves a session record with its sets by ID.
func (r *SessionRepository) GetSession(id string) (*session.Record, error) {
	rec, err := r.scanSession(r.db.QueryRow(
		`SELECT id, user_id, exercise_type, started_at, ended_at, duration_ms,
		        total_reps, total_sets, average_score, top_issues, distribution
		 FROM sessions WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT set_number, rep_count, average_score, common_issues, start_ms, end_ms
		 FROM session_sets WHERE session_id = ? ORDER BY set_number`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var set exercise.SetSummary
		var commonIssues string
		if err := rows.Scan(&set.SetNumber, &set.RepCount, &set.AverageScore,
			&commonIssues, &set.StartMs, &set.EndMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(commonIssues), &set.CommonIssues); err != nil {
			return nil, fmt.Errorf("unmarshal common issues: %w", err)
		}
		rec.Sets = append(rec.Sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rec, nil
}

// GetUserSessions retrieves a user's sessions newest first. Cursor is the
// started_at of the last row of the previous page (empty for the first
// page); the returned cursor is empty when no more pages remain. Set detail
// is not loaded for listings.
func (r *SessionRepository) GetUserSessions(userID string, limit int, cursor string) ([]*session.Record, string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, user_id, exercise_type, started_at, ended_at, duration_ms,
	                 total_reps, total_sets, average_score, top_issues, distribution
	          FROM sessions WHERE user_id = ?`
	args := []any{userID}

	if cursor != "" {
		before, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
		query += ` AND started_at < ?`
		args = append(args, before.UTC().Format(timeLayout))
	}

	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var records []*session.Record
	for rows.Next() {
		rec, err := r.scanSession(rows)
		if err != nil {
			return nil, "", err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(records) == limit {
		next = records[len(records)-1].StartedAt.UTC().Format(timeLayout)
	}

	return records, next, nil
}

// DeleteSession removes a session and its sets by ID.
func (r *SessionRepository) DeleteSession(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) scanSession(row scanner) (*session.Record, error) {
	rec := &session.Record{}
	var exerciseType, startedAt, endedAt, topIssues, distribution string

	err := row.Scan(&rec.ID, &rec.UserID, &exerciseType, &startedAt, &endedAt,
		&rec.DurationMs, &rec.TotalReps, &rec.TotalSets, &rec.AverageScore,
		&topIssues, &distribution)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.ExerciseType = exercise.Type(exerciseType)

	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return nil, fmt.Errorf("parse ended_at: %w", err)
	}
	if err := json.Unmarshal([]byte(topIssues), &rec.TopIssues); err != nil {
		return nil, fmt.Errorf("unmarshal top issues: %w", err)
	}
	if err := json.Unmarshal([]byte(distribution), &rec.Distribution); err != nil {
		return nil, fmt.Errorf("unmarshal distribution: %w", err)
	}

	return rec, nil
}
