package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Course methods
func (s *SQLiteStore) CreateCourse(ctx context.Context, title, description string) (*Course, error) {
	course := &Course{ID: uuid.NewString(), Title: title, Description: description, CreatedAt: s.now()}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO courses (id, title, description, created_at) VALUES (?, ?, ?, ?)",
		course.ID, course.Title, course.Description, course.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute course insert: %w", err)
	}
	return course, nil
}

func (s *SQLiteStore) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx, "SELECT id, title, description, created_at FROM courses WHERE id = ?", courseID).
		Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, description, created_at FROM courses ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Lesson methods
func (s *SQLiteStore) CreateLesson(ctx context.Context, lesson *Lesson) error {
	lesson.ID = uuid.NewString()
	lesson.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO lessons (id, course_id, title, video_url, duration_seconds, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		lesson.ID, lesson.CourseID, lesson.Title, lesson.VideoURL, lesson.DurationSeconds, lesson.Position, lesson.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute lesson insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLesson(ctx context.Context, lessonID string) (*Lesson, error) {
	var l Lesson
	err := s.db.QueryRowContext(ctx,
		"SELECT id, course_id, title, video_url, duration_seconds, position, created_at FROM lessons WHERE id = ?", lessonID).
		Scan(&l.ID, &l.CourseID, &l.Title, &l.VideoURL, &l.DurationSeconds, &l.Position, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &l, nil
}

func (s *SQLiteStore) ListLessonsByCourse(ctx context.Context, courseID string) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, course_id, title, video_url, duration_seconds, position, created_at FROM lessons WHERE course_id = ? ORDER BY position ASC, created_at ASC", courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.VideoURL, &l.DurationSeconds, &l.Position, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (s *SQLiteStore) CountLessons(ctx context.Context, courseID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lessons WHERE course_id = ?", courseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return n, nil
}

// Ebook methods
func (s *SQLiteStore) CreateEbook(ctx context.Context, ebook *Ebook) error {
	ebook.ID = uuid.NewString()
	ebook.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ebooks (id, title, author, total_pages, created_at) VALUES (?, ?, ?, ?, ?)",
		ebook.ID, ebook.Title, ebook.Author, ebook.TotalPages, ebook.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute ebook insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEbook(ctx context.Context, ebookID string) (*Ebook, error) {
	var e Ebook
	err := s.db.QueryRowContext(ctx, "SELECT id, title, author, total_pages, created_at FROM ebooks WHERE id = ?", ebookID).
		Scan(&e.ID, &e.Title, &e.Author, &e.TotalPages, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ebook: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) ListEbooks(ctx context.Context) ([]Ebook, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, author, total_pages, created_at FROM ebooks ORDER BY title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query ebooks: %w", err)
	}
	defer rows.Close()

	ebooks := []Ebook{}
	for rows.Next() {
		var e Ebook
		if err := rows.Scan(&e.ID, &e.Title, &e.Author, &e.TotalPages, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ebook row: %w", err)
		}
		ebooks = append(ebooks, e)
	}
	return ebooks, rows.Err()
}
