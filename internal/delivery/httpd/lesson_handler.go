package httpd

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lekcja/lesson-service/internal/service"
)

func (h *Handler) GetLessonByID(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	lessonID := chi.URLParam(r, "id")
	if lessonID == "" {
		writeError(w, http.StatusBadRequest, "Lesson ID is required")
		return
	}

	lesson, err := h.lessonService.GetLessonByID(r.Context(), lessonID)
	if err != nil {
		if errors.Is(err, service.ErrLessonNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get lesson")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !sess.Admin && lesson.StudentID != sess.StudentID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	writeSuccess(w, lesson)
}

// DownloadLessonAudio отдаёт исходную запись урока из архива.
func (h *Handler) DownloadLessonAudio(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}
	if !sess.Admin {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	lessonID := chi.URLParam(r, "id")
	if lessonID == "" {
		writeError(w, http.StatusBadRequest, "Lesson ID is required")
		return
	}

	body, info, err := h.lessonService.DownloadAudio(r.Context(), lessonID)
	if err != nil {
		if errors.Is(err, service.ErrLessonNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to download lesson audio")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to stream lesson audio")
	}
}
