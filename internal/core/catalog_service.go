package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

type CatalogStore interface {
	CreateCourse(ctx context.Context, title, description string) (*store.Course, error)
	GetCourse(ctx context.Context, courseID string) (*store.Course, error)
	ListCourses(ctx context.Context) ([]store.Course, error)
	CreateLesson(ctx context.Context, lesson *store.Lesson) error
	ListLessonsByCourse(ctx context.Context, courseID string) ([]store.Lesson, error)
	CreateEbook(ctx context.Context, ebook *store.Ebook) error
	ListEbooks(ctx context.Context) ([]store.Ebook, error)
}

type CourseDetails struct {
	*store.Course
	Lessons []store.Lesson `json:"lessons"`
}

// CatalogService is the back-office side of the Academy: courses, their
// lessons and e-books.
type CatalogService struct {
	dbStore CatalogStore
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewCatalogService(db CatalogStore, persistTimeout time.Duration, log *logger.Logger, m *metrics.Metrics) *CatalogService {
	return &CatalogService{dbStore: db, timeout: persistTimeout, log: log.With("component", "catalog"), metrics: m}
}

func (s *CatalogService) CreateCourse(ctx context.Context, title, description string) (*store.Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: course title is required", ErrInvalidInput)
	}
	var course *store.Course
	err := withTimeout(ctx, s.timeout, s.metrics, "create_course", func(ctx context.Context) error {
		var err error
		course, err = s.dbStore.CreateCourse(ctx, title, strings.TrimSpace(description))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	s.log.Info("course created", "course_id", course.ID)
	return course, nil
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]store.Course, error) {
	var courses []store.Course
	err := withTimeout(ctx, s.timeout, s.metrics, "list_courses", func(ctx context.Context) error {
		var err error
		courses, err = s.dbStore.ListCourses(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *CatalogService) GetCourse(ctx context.Context, courseID string) (*CourseDetails, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	var lessons []store.Lesson
	err = withTimeout(ctx, s.timeout, s.metrics, "list_lessons", func(ctx context.Context) error {
		var err error
		lessons, err = s.dbStore.ListLessonsByCourse(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return &CourseDetails{Course: course, Lessons: lessons}, nil
}

func (s *CatalogService) AddLesson(ctx context.Context, lesson *store.Lesson) error {
	lesson.Title = strings.TrimSpace(lesson.Title)
	if lesson.Title == "" {
		return fmt.Errorf("%w: lesson title is required", ErrInvalidInput)
	}
	if lesson.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidInput)
	}
	if _, err := s.course(ctx, lesson.CourseID); err != nil {
		return err
	}
	err := withTimeout(ctx, s.timeout, s.metrics, "create_lesson", func(ctx context.Context) error {
		return s.dbStore.CreateLesson(ctx, lesson)
	})
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	s.log.Info("lesson added", "course_id", lesson.CourseID, "lesson_id", lesson.ID)
	return nil
}

func (s *CatalogService) CreateEbook(ctx context.Context, ebook *store.Ebook) error {
	ebook.Title = strings.TrimSpace(ebook.Title)
	if ebook.Title == "" {
		return fmt.Errorf("%w: ebook title is required", ErrInvalidInput)
	}
	if ebook.TotalPages < 1 {
		return fmt.Errorf("%w: an ebook needs at least one page", ErrInvalidInput)
	}
	err := withTimeout(ctx, s.timeout, s.metrics, "create_ebook", func(ctx context.Context) error {
		return s.dbStore.CreateEbook(ctx, ebook)
	})
	if err != nil {
		return fmt.Errorf("failed to create ebook: %w", err)
	}
	return nil
}

func (s *CatalogService) ListEbooks(ctx context.Context) ([]store.Ebook, error) {
	var ebooks []store.Ebook
	err := withTimeout(ctx, s.timeout, s.metrics, "list_ebooks", func(ctx context.Context) error {
		var err error
		ebooks, err = s.dbStore.ListEbooks(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ebooks: %w", err)
	}
	return ebooks, nil
}

func (s *CatalogService) course(ctx context.Context, courseID string) (*store.Course, error) {
	var course *store.Course
	err := withTimeout(ctx, s.timeout, s.metrics, "get_course", func(ctx context.Context) error {
		var err error
		course, err = s.dbStore.GetCourse(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	return course, nil
}
