package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID         string    `json:"id"` // UUID
	UserID     int64     `json:"user_id"`
	Text       string    `json:"text"`
	IsFromUser bool      `json:"is_from_user"`
	CreatedAt  time.Time `json:"created_at"`
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Lesson struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	Title           string    `json:"title"`
	VideoURL        string    `json:"video_url"`
	DurationSeconds int       `json:"duration_seconds"`
	Position        int       `json:"position"` // ordering inside the course
	CreatedAt       time.Time `json:"created_at"`
}

type Ebook struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	TotalPages int       `json:"total_pages"`
	CreatedAt  time.Time `json:"created_at"`
}

type ContentKind string

const (
	KindLesson ContentKind = "lesson"
	KindEbook  ContentKind = "ebook"
)

// ProgressRecord is the consumption state of one user on one lesson or e-book.
// Position holds watched seconds for lessons and the page number for e-books.
type ProgressRecord struct {
	UserID        int64       `json:"user_id"`
	ContentID     string      `json:"content_id"`
	Kind          ContentKind `json:"kind"`
	Position      float64     `json:"position"`
	IsCompleted   bool        `json:"is_completed"`
	CompletedAt   *time.Time  `json:"completed_at"`
	LastUpdatedAt time.Time   `json:"last_updated_at"`
}

type Enrollment struct {
	UserID         int64      `json:"user_id"`
	CourseID       string     `json:"course_id"`
	CompletedCount int        `json:"completed_count"`
	TotalCount     int        `json:"total_count"`
	Percent        int        `json:"percent"`
	CompletedAt    *time.Time `json:"completed_at"`
	EnrolledAt     time.Time  `json:"enrolled_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
