package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perola.app/academy/internal/core"
	"perola.app/academy/internal/store"
)

type CourseResponse struct {
	*core.CourseDetails
	Progress *store.Enrollment `json:"progress"`
}

type OpenedContentResponse struct {
	Content  any                   `json:"content"`
	Progress *store.ProgressRecord `json:"progress"`
	State    core.State            `json:"state"`
}

func (h *APIHandler) ListCoursesHandler(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list courses")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *APIHandler) GetCourseHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	details, err := h.catalog.GetCourse(r.Context(), courseID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get course")
		return
	}
	progress, err := h.tracker.CourseProgress(r.Context(), userID, courseID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get course progress")
		return
	}
	writeJSON(w, http.StatusOK, CourseResponse{CourseDetails: details, Progress: progress})
}

func (h *APIHandler) EnrollHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	enrollment, err := h.tracker.Enroll(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to enroll")
		return
	}
	writeJSON(w, http.StatusOK, enrollment)
}

func (h *APIHandler) CourseProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	progress, err := h.tracker.CourseProgress(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to get course progress")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *APIHandler) OpenLessonHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	lesson, rec, err := h.tracker.OpenLesson(r.Context(), userID, chi.URLParam(r, "lessonID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to open lesson")
		return
	}
	writeJSON(w, http.StatusOK, OpenedContentResponse{Content: lesson, Progress: rec, State: core.StateOf(rec)})
}

type VideoPositionRequest struct {
	Position *float64 `json:"position" validate:"required"`
	Event    string   `json:"event" validate:"required,oneof=tick pause ended"`
}

func (h *APIHandler) VideoPositionHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req VideoPositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.tracker.RecordVideoPosition(r.Context(), core.VideoUpdate{
		UserID:   userID,
		LessonID: chi.URLParam(r, "lessonID"),
		Position: *req.Position,
		Event:    core.VideoEvent(req.Event),
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to record position")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandler) CompleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	res, err := h.tracker.CompleteLesson(r.Context(), userID, chi.URLParam(r, "lessonID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to complete lesson")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandler) ListEbooksHandler(w http.ResponseWriter, r *http.Request) {
	ebooks, err := h.catalog.ListEbooks(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list ebooks")
		return
	}
	writeJSON(w, http.StatusOK, ebooks)
}

func (h *APIHandler) OpenEbookHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	ebook, rec, err := h.tracker.OpenEbook(r.Context(), userID, chi.URLParam(r, "ebookID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to open ebook")
		return
	}
	writeJSON(w, http.StatusOK, OpenedContentResponse{Content: ebook, Progress: rec, State: core.StateOf(rec)})
}

type PageRequest struct {
	Page *int `json:"page" validate:"required"`
}

func (h *APIHandler) TurnPageHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req PageRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.tracker.TurnPage(r.Context(), userID, chi.URLParam(r, "ebookID"), *req.Page)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to turn page")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandler) CompleteEbookHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	res, err := h.tracker.CompleteEbook(r.Context(), userID, chi.URLParam(r, "ebookID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to complete ebook")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

func (h *APIHandler) CreateCourseHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.catalog.CreateCourse(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create course")
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

type CreateLessonRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
	Position        int    `json:"position" validate:"gte=0"`
}

func (h *APIHandler) CreateLessonHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateLessonRequest
	if !h.decode(w, r, &req) {
		return
	}

	lesson := &store.Lesson{
		CourseID:        chi.URLParam(r, "courseID"),
		Title:           req.Title,
		VideoURL:        req.VideoURL,
		DurationSeconds: req.DurationSeconds,
		Position:        req.Position,
	}
	if err := h.catalog.AddLesson(r.Context(), lesson); err != nil {
		h.writeServiceError(w, r, err, "Failed to create lesson")
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

type CreateEbookRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Author     string `json:"author" validate:"max=200"`
	TotalPages int    `json:"total_pages" validate:"required,gte=1"`
}

func (h *APIHandler) CreateEbookHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateEbookRequest
	if !h.decode(w, r, &req) {
		return
	}

	ebook := &store.Ebook{Title: req.Title, Author: req.Author, TotalPages: req.TotalPages}
	if err := h.catalog.CreateEbook(r.Context(), ebook); err != nil {
		h.writeServiceError(w, r, err, "Failed to create ebook")
		return
	}
	writeJSON(w, http.StatusCreated, ebook)
}
