package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const progressColumns = "user_id, content_id, kind, position, is_completed, completed_at, last_updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (*ProgressRecord, error) {
	var (
		rec         ProgressRecord
		kind        string
		completedAt sql.NullTime
	)
	if err := row.Scan(&rec.UserID, &rec.ContentID, &kind, &rec.Position, &rec.IsCompleted, &completedAt, &rec.LastUpdatedAt); err != nil {
		return nil, err
	}
	rec.Kind = ContentKind(kind)
	rec.CompletedAt = nullTimePtr(completedAt)
	return &rec, nil
}

func (s *SQLiteStore) GetProgress(ctx context.Context, userID int64, contentID string) (*ProgressRecord, error) {
	rec, err := scanProgress(s.db.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM content_progress WHERE user_id = ? AND content_id = ?", userID, contentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not started
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return rec, nil
}

// EnsureProgress creates the record at the initial position unless one already
// exists, then returns the stored record. The insert is a single statement so
// two first accesses cannot produce two rows.
func (s *SQLiteStore) EnsureProgress(ctx context.Context, userID int64, contentID string, kind ContentKind, initial float64) (*ProgressRecord, error) {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO content_progress (user_id, content_id, kind, position, is_completed, last_updated_at)
        VALUES (?, ?, ?, ?, FALSE, ?)
        ON CONFLICT (user_id, content_id) DO NOTHING`,
		userID, contentID, string(kind), initial, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to ensure progress: %w", err)
	}
	rec, err := s.GetProgress(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("progress for user %d on %s missing after insert", userID, contentID)
	}
	return rec, nil
}

// SaveProgressPosition upserts the position. Completion flags are untouched.
func (s *SQLiteStore) SaveProgressPosition(ctx context.Context, userID int64, contentID string, kind ContentKind, position float64) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO content_progress (user_id, content_id, kind, position, is_completed, last_updated_at)
        VALUES (?, ?, ?, ?, FALSE, ?)
        ON CONFLICT (user_id, content_id) DO UPDATE SET
            position = excluded.position,
            last_updated_at = excluded.last_updated_at`,
		userID, contentID, string(kind), position, s.now())
	if err != nil {
		return fmt.Errorf("failed to save progress position: %w", err)
	}
	return nil
}

// CompleteProgress marks the record completed. completed_at is only written on
// the first completion; newly reports whether this call made the transition.
// A nil position keeps the stored one.
func (s *SQLiteStore) CompleteProgress(ctx context.Context, userID int64, contentID string, kind ContentKind, position *float64) (rec *ProgressRecord, newly bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin completion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := scanProgress(tx.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM content_progress WHERE user_id = ? AND content_id = ?", userID, contentID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to read progress for completion: %w", err)
	}

	now := s.now()
	next := ProgressRecord{UserID: userID, ContentID: contentID, Kind: kind, IsCompleted: true, LastUpdatedAt: now}
	if existing != nil {
		next.Position = existing.Position
		next.CompletedAt = existing.CompletedAt
	}
	if position != nil {
		next.Position = *position
	}
	if next.CompletedAt == nil {
		next.CompletedAt = &now
		newly = true
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO content_progress (user_id, content_id, kind, position, is_completed, completed_at, last_updated_at)
        VALUES (?, ?, ?, ?, TRUE, ?, ?)
        ON CONFLICT (user_id, content_id) DO UPDATE SET
            position = excluded.position,
            is_completed = TRUE,
            completed_at = COALESCE(content_progress.completed_at, excluded.completed_at),
            last_updated_at = excluded.last_updated_at`,
		userID, contentID, string(kind), next.Position, *next.CompletedAt, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute completion upsert: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return &next, newly, nil
}

func (s *SQLiteStore) CountCompletedLessons(ctx context.Context, userID int64, courseID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*)
        FROM content_progress p
        JOIN lessons l ON l.id = p.content_id
        WHERE p.user_id = ? AND l.course_id = ? AND p.kind = 'lesson' AND p.is_completed = TRUE`,
		userID, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return n, nil
}

// Enrollment methods
func (s *SQLiteStore) GetEnrollment(ctx context.Context, userID int64, courseID string) (*Enrollment, error) {
	var (
		e           Enrollment
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, course_id, completed_count, total_count, percent, completed_at, enrolled_at, updated_at
        FROM enrollments WHERE user_id = ? AND course_id = ?`, userID, courseID).
		Scan(&e.UserID, &e.CourseID, &e.CompletedCount, &e.TotalCount, &e.Percent, &completedAt, &e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	e.CompletedAt = nullTimePtr(completedAt)
	return &e, nil
}

// UpsertEnrollment stores the aggregate. An existing completed_at and
// enrolled_at are never replaced.
func (s *SQLiteStore) UpsertEnrollment(ctx context.Context, e *Enrollment) (*Enrollment, error) {
	now := s.now()
	var completedAt any
	if e.CompletedAt != nil {
		completedAt = *e.CompletedAt
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO enrollments (user_id, course_id, completed_count, total_count, percent, completed_at, enrolled_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, course_id) DO UPDATE SET
            completed_count = excluded.completed_count,
            total_count = excluded.total_count,
            percent = excluded.percent,
            completed_at = COALESCE(enrollments.completed_at, excluded.completed_at),
            updated_at = excluded.updated_at`,
		e.UserID, e.CourseID, e.CompletedCount, e.TotalCount, e.Percent, completedAt, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert enrollment: %w", err)
	}
	stored, err := s.GetEnrollment(ctx, e.UserID, e.CourseID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("enrollment for user %d on %s missing after upsert", e.UserID, e.CourseID)
	}
	return stored, nil
}
