package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perola.app/academy/internal/auth"
	"perola.app/academy/internal/core"
	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

const adminEmail = "ops@perola.app"

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Nop()

	matcher, err := core.NewMatcher(core.DefaultRules(), core.DefaultReplies(), core.WithRandSource(firstRand{}))
	require.NoError(t, err)

	h := NewAPIHandler(Services{
		Users:   core.NewUserService(db, []string{adminEmail}, time.Second, log, m),
		Chat:    core.NewChatService(db, matcher, core.ChatConfig{PersistTimeout: time.Second, Rand: firstRand{}}, log, m),
		Tracker: core.NewProgressTracker(db, time.Second, log, m),
		Catalog: core.NewCatalogService(db, time.Second, log, m),
		Issuer:  auth.NewIssuer("test-secret", time.Hour),
		Health:  db,
	}, log)
	return &testServer{t: t, router: NewRouter(h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/signup", "", SignupRequest{Email: email, Password: "cultivada1"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/login", "", LoginRequest{Email: email, Password: "cultivada1"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decodeBody(s.t, rec, &resp)
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login("ana@perola.app")
	assert.NotEmpty(t, token)

	rec := srv.do(http.MethodPost, "/api/signup", "", SignupRequest{Email: "ana@perola.app", Password: "cultivada1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodPost, "/api/signup", "", SignupRequest{Email: "bad", Password: "cultivada1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = srv.do(http.MethodPost, "/api/login", "", LoginRequest{Email: "ana@perola.app", Password: "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/chat/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodGet, "/api/chat/messages", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login("ana@perola.app")

	rec := srv.do(http.MethodPost, "/api/chat/messages", token, PostMessageRequest{Text: "Olá"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ex core.Exchange
	decodeBody(t, rec, &ex)
	assert.Equal(t, "greeting", ex.Rule)
	assert.Equal(t, core.DefaultRules()[0].Replies[0], ex.Reply.Text)
	assert.True(t, ex.ReplyPersisted)

	rec = srv.do(http.MethodPost, "/api/chat/messages", token, PostMessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodGet, "/api/chat/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Messages []store.ChatMessage `json:"messages"`
	}
	decodeBody(t, rec, &history)
	require.Len(t, history.Messages, 2)
	assert.True(t, history.Messages[0].IsFromUser)
	assert.False(t, history.Messages[1].IsFromUser)

	rec = srv.do(http.MethodGet, "/api/chat/messages?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodDelete, "/api/chat/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login("ana@perola.app")

	rec := srv.do(http.MethodPost, "/api/admin/courses", token, CreateCourseRequest{Title: "Akoya"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLearningFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login(adminEmail)
	user := srv.login("ana@perola.app")

	rec := srv.do(http.MethodPost, "/api/admin/courses", admin, CreateCourseRequest{Title: "Pérolas do Taiti"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course store.Course
	decodeBody(t, rec, &course)

	var lessons []store.Lesson
	for i := 1; i <= 2; i++ {
		rec = srv.do(http.MethodPost, "/api/admin/courses/"+course.ID+"/lessons", admin,
			CreateLessonRequest{Title: "Aula", DurationSeconds: 100, Position: i})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var l store.Lesson
		decodeBody(t, rec, &l)
		lessons = append(lessons, l)
	}

	rec = srv.do(http.MethodPost, "/api/admin/courses/missing/lessons", admin, CreateLessonRequest{Title: "Aula"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodPost, "/api/courses/"+course.ID+"/enroll", user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/lessons/"+lessons[0].ID+"/open", user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var opened struct {
		Progress *store.ProgressRecord `json:"progress"`
		State    core.State            `json:"state"`
	}
	decodeBody(t, rec, &opened)
	assert.Equal(t, core.StateNotStarted, opened.State)

	pos := 150.0
	rec = srv.do(http.MethodPost, "/api/lessons/"+lessons[0].ID+"/position", user,
		VideoPositionRequest{Position: &pos, Event: "ended"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res core.PositionResult
	decodeBody(t, rec, &res)
	assert.Equal(t, 100.0, res.Position, "clamped to the lesson duration")
	assert.True(t, res.Completed)
	require.NotNil(t, res.Course)
	assert.Equal(t, 50, res.Course.Percent)

	rec = srv.do(http.MethodPost, "/api/lessons/"+lessons[0].ID+"/position", user,
		VideoPositionRequest{Position: &pos, Event: "rewind"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, "/api/lessons/"+lessons[1].ID+"/complete", user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodGet, "/api/courses/"+course.ID+"/progress", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var agg store.Enrollment
	decodeBody(t, rec, &agg)
	assert.Equal(t, 100, agg.Percent)
	assert.NotNil(t, agg.CompletedAt)

	rec = srv.do(http.MethodGet, "/api/courses/"+course.ID, user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Lessons  []store.Lesson    `json:"lessons"`
		Progress *store.Enrollment `json:"progress"`
	}
	decodeBody(t, rec, &detail)
	assert.Len(t, detail.Lessons, 2)
	assert.Equal(t, 100, detail.Progress.Percent)

	rec = srv.do(http.MethodPost, "/api/lessons/missing/open", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(http.MethodGet, "/api/courses/missing", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEbookFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login(adminEmail)
	user := srv.login("ana@perola.app")

	rec := srv.do(http.MethodPost, "/api/admin/ebooks", admin, CreateEbookRequest{Title: "Guia de Cuidados", TotalPages: 42})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ebook store.Ebook
	decodeBody(t, rec, &ebook)

	rec = srv.do(http.MethodPost, "/api/admin/ebooks", admin, CreateEbookRequest{Title: "Vazio"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodGet, "/api/ebooks", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ebooks []store.Ebook
	decodeBody(t, rec, &ebooks)
	assert.Len(t, ebooks, 1)

	rec = srv.do(http.MethodPost, "/api/ebooks/"+ebook.ID+"/open", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for page, want := range map[int]float64{0: 1, 17: 17, 99: 42} {
		p := page
		rec = srv.do(http.MethodPost, "/api/ebooks/"+ebook.ID+"/page", user, PageRequest{Page: &p})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res core.PositionResult
		decodeBody(t, rec, &res)
		assert.Equal(t, want, res.Position)
		assert.True(t, res.Persisted)
	}

	rec = srv.do(http.MethodPost, "/api/ebooks/"+ebook.ID+"/complete", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var done core.CompletionResult
	decodeBody(t, rec, &done)
	assert.True(t, done.Newly)
	assert.True(t, done.Record.IsCompleted)
}

func TestMiscEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login("ana@perola.app")

	rec := srv.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/checkout", token, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	srv.do(http.MethodPost, "/api/chat/messages", token, PostMessageRequest{Text: "akoya"})
	rec = srv.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `academy_chat_replies_total{rule="akoya"} 1`)
}
