package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

// ThrottleSeconds is the playback distance between two persisted ticks.
const ThrottleSeconds = 10

type ProgressStore interface {
	GetCourse(ctx context.Context, courseID string) (*store.Course, error)
	GetLesson(ctx context.Context, lessonID string) (*store.Lesson, error)
	GetEbook(ctx context.Context, ebookID string) (*store.Ebook, error)
	GetProgress(ctx context.Context, userID int64, contentID string) (*store.ProgressRecord, error)
	EnsureProgress(ctx context.Context, userID int64, contentID string, kind store.ContentKind, initial float64) (*store.ProgressRecord, error)
	SaveProgressPosition(ctx context.Context, userID int64, contentID string, kind store.ContentKind, position float64) error
	CompleteProgress(ctx context.Context, userID int64, contentID string, kind store.ContentKind, position *float64) (*store.ProgressRecord, bool, error)
	CountLessons(ctx context.Context, courseID string) (int, error)
	CountCompletedLessons(ctx context.Context, userID int64, courseID string) (int, error)
	GetEnrollment(ctx context.Context, userID int64, courseID string) (*store.Enrollment, error)
	UpsertEnrollment(ctx context.Context, e *store.Enrollment) (*store.Enrollment, error)
}

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// StateOf derives the lifecycle state of a record. E-book records are created
// on first open at page 1 and count as in progress from then on.
func StateOf(rec *store.ProgressRecord) State {
	switch {
	case rec == nil:
		return StateNotStarted
	case rec.IsCompleted:
		return StateCompleted
	case rec.Kind == store.KindEbook:
		return StateInProgress
	case rec.Position > 0:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

type VideoEvent string

const (
	EventTick  VideoEvent = "tick"
	EventPause VideoEvent = "pause"
	EventEnded VideoEvent = "ended"
)

func (e VideoEvent) Valid() bool {
	switch e {
	case EventTick, EventPause, EventEnded:
		return true
	}
	return false
}

type VideoUpdate struct {
	UserID   int64
	LessonID string
	Position float64
	Event    VideoEvent
}

// PositionResult is what the viewer should show after an update. Persisted is
// false when the write was throttled or failed; a failed write is retried on
// the next update.
type PositionResult struct {
	Position  float64           `json:"position"`
	State     State             `json:"state"`
	Persisted bool              `json:"persisted"`
	Completed bool              `json:"completed"`
	Course    *store.Enrollment `json:"course,omitempty"`
}

type CompletionResult struct {
	Record *store.ProgressRecord `json:"record"`
	Newly  bool                  `json:"newly_completed"`
	Course *store.Enrollment     `json:"course,omitempty"`
}

type sessionKey struct {
	userID    int64
	contentID string
}

// session is the in-memory viewer state for one (user, content) pair.
type session struct {
	mu sync.Mutex

	kind     store.ContentKind
	courseID string
	limit    float64 // duration in seconds or total pages; 0 means unknown

	position            float64
	completed           bool
	lastPersistedSecond int
	pendingWrite        bool
	pendingComplete     bool
	completePosition    float64 // position the pending completion was requested at
	dirty               bool    // position moved since the last successful write
	lastSeen            time.Time
}

type ProgressTracker struct {
	dbStore ProgressStore
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

func NewProgressTracker(db ProgressStore, persistTimeout time.Duration, log *logger.Logger, m *metrics.Metrics) *ProgressTracker {
	return &ProgressTracker{
		dbStore:  db,
		timeout:  persistTimeout,
		log:      log.With("component", "progress"),
		metrics:  m,
		sessions: make(map[sessionKey]*session),
	}
}

// CoursePercent is round(100*completed/total) clamped to [0, 100]; an empty
// course is 0%.
func CoursePercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ClampVideoPosition bounds seconds to [0, duration]. A non-positive duration
// only applies the lower bound.
func ClampVideoPosition(seconds float64, durationSeconds int) float64 {
	if seconds < 0 {
		return 0
	}
	if durationSeconds > 0 && seconds > float64(durationSeconds) {
		return float64(durationSeconds)
	}
	return seconds
}

// ClampPage bounds page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func timed[T any](ctx context.Context, t *ProgressTracker, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := withTimeout(ctx, t.timeout, t.metrics, op, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// OpenLesson returns the viewer's record, creating it at 0 seconds on first
// access, and resets the in-memory throttle state for the lesson.
func (t *ProgressTracker) OpenLesson(ctx context.Context, userID int64, lessonID string) (*store.Lesson, *store.ProgressRecord, error) {
	lesson, err := t.lesson(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	key := sessionKey{userID, lessonID}
	carried := t.flushExisting(ctx, key)

	rec, err := timed(ctx, t, "ensure_progress", func(ctx context.Context) (*store.ProgressRecord, error) {
		return t.dbStore.EnsureProgress(ctx, userID, lessonID, store.KindLesson, 0)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open lesson progress: %w", err)
	}

	sess := &session{
		kind:                store.KindLesson,
		courseID:            lesson.CourseID,
		limit:               float64(lesson.DurationSeconds),
		position:            rec.Position,
		completed:           rec.IsCompleted,
		lastPersistedSecond: -1,
		lastSeen:            time.Now(),
	}
	carried.applyTo(sess)
	t.mu.Lock()
	t.sessions[key] = sess
	t.mu.Unlock()
	return lesson, rec, nil
}

// OpenEbook returns the reader's record, creating it at page 1 on first access.
func (t *ProgressTracker) OpenEbook(ctx context.Context, userID int64, ebookID string) (*store.Ebook, *store.ProgressRecord, error) {
	ebook, err := t.ebook(ctx, ebookID)
	if err != nil {
		return nil, nil, err
	}
	key := sessionKey{userID, ebookID}
	carried := t.flushExisting(ctx, key)

	rec, err := timed(ctx, t, "ensure_progress", func(ctx context.Context) (*store.ProgressRecord, error) {
		return t.dbStore.EnsureProgress(ctx, userID, ebookID, store.KindEbook, 1)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ebook progress: %w", err)
	}

	sess := &session{
		kind:      store.KindEbook,
		limit:     float64(ebook.TotalPages),
		position:  rec.Position,
		completed: rec.IsCompleted,
		lastSeen:  time.Now(),
	}
	carried.applyTo(sess)
	t.mu.Lock()
	t.sessions[key] = sess
	t.mu.Unlock()
	return ebook, rec, nil
}

// RecordVideoPosition applies one playback event. Ticks are persisted only on
// whole multiples of ThrottleSeconds, once per second value; pause and ended
// always write, and ended completes the lesson. Storage failures are logged
// and reported through Persisted=false, never as an error.
func (t *ProgressTracker) RecordVideoPosition(ctx context.Context, u VideoUpdate) (*PositionResult, error) {
	if !u.Event.Valid() {
		return nil, fmt.Errorf("%w: unknown video event %q", ErrInvalidInput, u.Event)
	}
	if math.IsNaN(u.Position) || math.IsInf(u.Position, 0) {
		return nil, fmt.Errorf("%w: position must be a finite number", ErrInvalidInput)
	}

	sess, err := t.lessonSession(ctx, u.UserID, u.LessonID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = time.Now()

	if p := ClampVideoPosition(u.Position, int(sess.limit)); p != sess.position {
		sess.position = p
		sess.dirty = true
	}
	second := int(math.Floor(sess.position))
	res := &PositionResult{Position: sess.position}

	if u.Event == EventEnded || sess.pendingComplete {
		course, err := t.completeSession(ctx, u.UserID, u.LessonID, sess)
		if err == nil {
			res.Persisted = true
			res.Course = course
			sess.lastPersistedSecond = second
		}
		res.Completed = sess.completed
		res.State = sessionState(sess)
		return res, nil
	}

	due := sess.pendingWrite || u.Event == EventPause ||
		(second%ThrottleSeconds == 0 && second != sess.lastPersistedSecond)
	if !due {
		t.metrics.ProgressWritesTotal.WithLabelValues(string(store.KindLesson), metrics.OutcomeSkipped).Inc()
		res.Completed = sess.completed
		res.State = sessionState(sess)
		return res, nil
	}

	if err := t.savePosition(ctx, u.UserID, u.LessonID, sess); err == nil {
		res.Persisted = true
		sess.lastPersistedSecond = second
	}
	res.Completed = sess.completed
	res.State = sessionState(sess)
	return res, nil
}

// TurnPage moves the reader to page, clamped to the book. Every turn is
// persisted immediately.
func (t *ProgressTracker) TurnPage(ctx context.Context, userID int64, ebookID string, page int) (*PositionResult, error) {
	sess, err := t.ebookSession(ctx, userID, ebookID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = time.Now()

	if p := float64(ClampPage(page, int(sess.limit))); p != sess.position {
		sess.position = p
		sess.dirty = true
	}
	res := &PositionResult{Position: sess.position}

	if sess.pendingComplete {
		if _, err := t.completeSession(ctx, userID, ebookID, sess); err == nil {
			res.Persisted = true
		}
	} else if err := t.savePosition(ctx, userID, ebookID, sess); err == nil {
		res.Persisted = true
	}
	res.Completed = sess.completed
	res.State = sessionState(sess)
	return res, nil
}

// CompleteLesson is the explicit "mark complete" action. Completing an
// already completed lesson keeps the first completion time and does not
// recompute the course.
func (t *ProgressTracker) CompleteLesson(ctx context.Context, userID int64, lessonID string) (*CompletionResult, error) {
	lesson, err := t.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	res, err := t.complete(ctx, userID, lessonID, store.KindLesson, lesson.CourseID, nil)
	if err != nil {
		return nil, err
	}
	t.markCompleted(sessionKey{userID, lessonID})
	return res, nil
}

func (t *ProgressTracker) CompleteEbook(ctx context.Context, userID int64, ebookID string) (*CompletionResult, error) {
	if _, err := t.ebook(ctx, ebookID); err != nil {
		return nil, err
	}
	res, err := t.complete(ctx, userID, ebookID, store.KindEbook, "", nil)
	if err != nil {
		return nil, err
	}
	t.markCompleted(sessionKey{userID, ebookID})
	return res, nil
}

// Enroll creates or refreshes the user's aggregate for a course.
func (t *ProgressTracker) Enroll(ctx context.Context, userID int64, courseID string) (*store.Enrollment, error) {
	if _, err := t.course(ctx, courseID); err != nil {
		return nil, err
	}
	return t.recomputeCourse(ctx, userID, courseID)
}

// CourseProgress reads back the aggregate for a course, computed from the
// current lesson records so it is correct even before the first completion.
func (t *ProgressTracker) CourseProgress(ctx context.Context, userID int64, courseID string) (*store.Enrollment, error) {
	if _, err := t.course(ctx, courseID); err != nil {
		return nil, err
	}
	total, completed, err := t.counts(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	agg := &store.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		CompletedCount: completed,
		TotalCount:     total,
		Percent:        CoursePercent(completed, total),
	}
	stored, err := timed(ctx, t, "get_enrollment", func(ctx context.Context) (*store.Enrollment, error) {
		return t.dbStore.GetEnrollment(ctx, userID, courseID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read enrollment: %w", err)
	}
	if stored != nil {
		agg.CompletedAt = stored.CompletedAt
		agg.EnrolledAt = stored.EnrolledAt
		agg.UpdatedAt = stored.UpdatedAt
	}
	return agg, nil
}

// ContentState reports the derived state of the user's record for a lesson or e-book.
func (t *ProgressTracker) ContentState(ctx context.Context, userID int64, contentID string) (State, *store.ProgressRecord, error) {
	rec, err := timed(ctx, t, "get_progress", func(ctx context.Context) (*store.ProgressRecord, error) {
		return t.dbStore.GetProgress(ctx, userID, contentID)
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to read progress: %w", err)
	}
	return StateOf(rec), rec, nil
}

func (t *ProgressTracker) savePosition(ctx context.Context, userID int64, contentID string, sess *session) error {
	_, err := timed(ctx, t, "save_position", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.dbStore.SaveProgressPosition(ctx, userID, contentID, sess.kind, sess.position)
	})
	if err != nil {
		sess.pendingWrite = true
		t.metrics.ProgressWritesTotal.WithLabelValues(string(sess.kind), metrics.OutcomeFailed).Inc()
		t.log.Warn("failed to persist position, will retry on next update",
			"user_id", userID, "content_id", contentID, "position", sess.position, "error", err)
		return err
	}
	sess.pendingWrite = false
	sess.dirty = false
	t.metrics.ProgressWritesTotal.WithLabelValues(string(sess.kind), metrics.OutcomePersisted).Inc()
	return nil
}

// completeSession completes from a viewer event, remembering a failure so the
// next update retries it. A retry stores the furthest of the original and the
// current position.
func (t *ProgressTracker) completeSession(ctx context.Context, userID int64, contentID string, sess *session) (*store.Enrollment, error) {
	pos := sess.position
	if sess.pendingComplete && sess.completePosition > pos {
		pos = sess.completePosition
	}
	res, err := t.complete(ctx, userID, contentID, sess.kind, sess.courseID, &pos)
	if err != nil {
		sess.pendingComplete = true
		sess.completePosition = pos
		t.metrics.ProgressWritesTotal.WithLabelValues(string(sess.kind), metrics.OutcomeFailed).Inc()
		t.log.Warn("failed to persist completion, will retry on next update",
			"user_id", userID, "content_id", contentID, "error", err)
		// The viewer still sees the content as done.
		sess.completed = true
		return nil, err
	}
	sess.pendingComplete = false
	sess.pendingWrite = false
	sess.dirty = false
	sess.completed = true
	t.metrics.ProgressWritesTotal.WithLabelValues(string(sess.kind), metrics.OutcomePersisted).Inc()
	return res.Course, nil
}

func (t *ProgressTracker) complete(ctx context.Context, userID int64, contentID string, kind store.ContentKind, courseID string, position *float64) (*CompletionResult, error) {
	type completion struct {
		rec   *store.ProgressRecord
		newly bool
	}
	c, err := timed(ctx, t, "complete_progress", func(ctx context.Context) (completion, error) {
		rec, newly, err := t.dbStore.CompleteProgress(ctx, userID, contentID, kind, position)
		return completion{rec, newly}, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete %s %s: %w", kind, contentID, err)
	}

	res := &CompletionResult{Record: c.rec, Newly: c.newly}
	if !c.newly {
		return res, nil
	}
	t.metrics.CompletionsTotal.WithLabelValues(string(kind)).Inc()
	t.log.Info("content completed", "user_id", userID, "content_id", contentID, "kind", kind)

	if kind == store.KindLesson && courseID != "" {
		course, err := t.recomputeCourse(ctx, userID, courseID)
		if err != nil {
			// The lesson itself is stored; the aggregate is derived and is
			// recomputed on the next completion or read-back.
			t.log.Warn("failed to recompute course progress", "user_id", userID, "course_id", courseID, "error", err)
			return res, nil
		}
		res.Course = course
	}
	return res, nil
}

func (t *ProgressTracker) recomputeCourse(ctx context.Context, userID int64, courseID string) (*store.Enrollment, error) {
	total, completed, err := t.counts(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	prior, err := timed(ctx, t, "get_enrollment", func(ctx context.Context) (*store.Enrollment, error) {
		return t.dbStore.GetEnrollment(ctx, userID, courseID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read enrollment: %w", err)
	}

	agg := &store.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		CompletedCount: completed,
		TotalCount:     total,
		Percent:        CoursePercent(completed, total),
	}
	if agg.Percent >= 100 {
		now := time.Now().UTC()
		agg.CompletedAt = &now
	}

	stored, err := timed(ctx, t, "upsert_enrollment", func(ctx context.Context) (*store.Enrollment, error) {
		return t.dbStore.UpsertEnrollment(ctx, agg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store enrollment: %w", err)
	}
	if stored.CompletedAt != nil && (prior == nil || prior.CompletedAt == nil) {
		t.metrics.CourseCompletionsTotal.Inc()
		t.log.Info("course completed", "user_id", userID, "course_id", courseID)
	}
	return stored, nil
}

func (t *ProgressTracker) counts(ctx context.Context, userID int64, courseID string) (total, completed int, err error) {
	total, err = timed(ctx, t, "count_lessons", func(ctx context.Context) (int, error) {
		return t.dbStore.CountLessons(ctx, courseID)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	completed, err = timed(ctx, t, "count_completed", func(ctx context.Context) (int, error) {
		return t.dbStore.CountCompletedLessons(ctx, userID, courseID)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return total, completed, nil
}

func (t *ProgressTracker) lessonSession(ctx context.Context, userID int64, lessonID string) (*session, error) {
	key := sessionKey{userID, lessonID}
	if sess := t.existingSession(key); sess != nil {
		return sess, nil
	}
	lesson, err := t.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	sess := &session{
		kind:                store.KindLesson,
		courseID:            lesson.CourseID,
		limit:               float64(lesson.DurationSeconds),
		lastPersistedSecond: -1,
	}
	t.loadRecord(ctx, userID, lessonID, sess)
	return t.storeSession(key, sess), nil
}

func (t *ProgressTracker) ebookSession(ctx context.Context, userID int64, ebookID string) (*session, error) {
	key := sessionKey{userID, ebookID}
	if sess := t.existingSession(key); sess != nil {
		return sess, nil
	}
	ebook, err := t.ebook(ctx, ebookID)
	if err != nil {
		return nil, err
	}
	sess := &session{
		kind:     store.KindEbook,
		limit:    float64(ebook.TotalPages),
		position: 1,
	}
	t.loadRecord(ctx, userID, ebookID, sess)
	return t.storeSession(key, sess), nil
}

// loadRecord seeds a session from storage. A failed read only costs the
// completed flag until the next open, so it is logged and ignored.
func (t *ProgressTracker) loadRecord(ctx context.Context, userID int64, contentID string, sess *session) {
	rec, err := timed(ctx, t, "get_progress", func(ctx context.Context) (*store.ProgressRecord, error) {
		return t.dbStore.GetProgress(ctx, userID, contentID)
	})
	if err != nil {
		t.log.Warn("failed to load progress record", "user_id", userID, "content_id", contentID, "error", err)
		return
	}
	if rec != nil {
		sess.position = rec.Position
		sess.completed = rec.IsCompleted
	}
}

func (t *ProgressTracker) markCompleted(key sessionKey) {
	if sess := t.existingSession(key); sess != nil {
		sess.mu.Lock()
		sess.completed = true
		sess.pendingComplete = false
		sess.mu.Unlock()
	}
}

// Sweep drops sessions idle for longer than maxIdle and returns how many were
// dropped. A session with an unsaved position or completion gets one last
// write attempt first so a viewer that never came back does not lose it.
func (t *ProgressTracker) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	type idle struct {
		key  sessionKey
		sess *session
	}
	var dropped []idle

	t.mu.Lock()
	for key, sess := range t.sessions {
		if !sess.mu.TryLock() {
			continue // in use
		}
		if sess.lastSeen.Before(cutoff) {
			dropped = append(dropped, idle{key, sess})
			delete(t.sessions, key)
		}
		sess.mu.Unlock()
	}
	t.mu.Unlock()

	for _, d := range dropped {
		d.sess.mu.Lock()
		t.flush(ctx, d.key, d.sess)
		d.sess.mu.Unlock()
	}
	return len(dropped)
}

// flush gives an unsaved completion or position one write attempt, including
// a position the tick throttle skipped. sess.mu must be held.
func (t *ProgressTracker) flush(ctx context.Context, key sessionKey, sess *session) {
	switch {
	case sess.pendingComplete:
		_, _ = t.completeSession(ctx, key.userID, key.contentID, sess)
	case sess.pendingWrite || sess.dirty:
		_ = t.savePosition(ctx, key.userID, key.contentID, sess)
	}
}

// pendingCompletion is a completion that survived a flush and must move to
// the replacement session.
type pendingCompletion struct {
	position float64
	ok       bool
}

func (p pendingCompletion) applyTo(sess *session) {
	if !p.ok {
		return
	}
	sess.completed = true
	sess.pendingComplete = true
	sess.completePosition = p.position
}

// flushExisting writes whatever the current session for key has not saved
// before it is replaced by a reopen.
func (t *ProgressTracker) flushExisting(ctx context.Context, key sessionKey) pendingCompletion {
	old := t.existingSession(key)
	if old == nil {
		return pendingCompletion{}
	}
	old.mu.Lock()
	defer old.mu.Unlock()
	t.flush(ctx, key, old)
	return pendingCompletion{position: old.completePosition, ok: old.pendingComplete}
}

func (t *ProgressTracker) existingSession(key sessionKey) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[key]
}

// storeSession keeps the first session stored for key if two requests race.
func (t *ProgressTracker) storeSession(key sessionKey, sess *session) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.sessions[key]; ok {
		return existing
	}
	t.sessions[key] = sess
	return sess
}

func sessionState(sess *session) State {
	switch {
	case sess.completed:
		return StateCompleted
	case sess.kind == store.KindEbook, sess.position > 0:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

func (t *ProgressTracker) lesson(ctx context.Context, lessonID string) (*store.Lesson, error) {
	lesson, err := timed(ctx, t, "get_lesson", func(ctx context.Context) (*store.Lesson, error) {
		return t.dbStore.GetLesson(ctx, lessonID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}
	return lesson, nil
}

func (t *ProgressTracker) ebook(ctx context.Context, ebookID string) (*store.Ebook, error) {
	ebook, err := timed(ctx, t, "get_ebook", func(ctx context.Context) (*store.Ebook, error) {
		return t.dbStore.GetEbook(ctx, ebookID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ebook: %w", err)
	}
	if ebook == nil {
		return nil, fmt.Errorf("ebook %s: %w", ebookID, ErrNotFound)
	}
	return ebook, nil
}

func (t *ProgressTracker) course(ctx context.Context, courseID string) (*store.Course, error) {
	course, err := timed(ctx, t, "get_course", func(ctx context.Context) (*store.Course, error) {
		return t.dbStore.GetCourse(ctx, courseID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	return course, nil
}
