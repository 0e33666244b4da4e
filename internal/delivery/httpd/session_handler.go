package httpd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lekcja/lesson-service/internal/controller"
	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/service"
	"github.com/lekcja/lesson-service/internal/service/integration"
)

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) SelectStudent(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	var req models.SelectStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ctrl.SelectStudent(r.Context(), sess, req.StudentID); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) NewLesson(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	if err := h.ctrl.StartRecording(sess); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) ViewLessonTransition(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	var req models.ViewLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ctrl.ViewLesson(r.Context(), sess, req.LessonID); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	if err := h.ctrl.Back(sess); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) ClearError(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	h.ctrl.ClearError(sess)
	writeSuccess(w, sess.View())
}

func (h *Handler) SaveCredential(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	var req models.SaveCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ctrl.SaveCredential(r.Context(), sess, req.APIKey); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) EditCredential(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	if err := h.ctrl.OpenCredentialUpdate(sess); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

func (h *Handler) CancelCredential(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	if err := h.ctrl.CancelCredentialUpdate(sess); err != nil {
		h.handleTransitionError(w, err)
		return
	}

	writeSuccess(w, sess.View())
}

// Analyze принимает multipart-поле "file" с аудиозаписью урока и
// доводит её до сохранённого урока. Ошибка анализа не меняет экран:
// клиент получает статус вместе с текущим видом сессии и может
// повторить попытку.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")

	lesson, err := h.ctrl.CompleteAnalysis(r.Context(), sess, audio, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAudio):
			writeError(w, http.StatusBadRequest, sess.ErrorMsg)
		case errors.Is(err, controller.ErrForbidden):
			writeError(w, http.StatusForbidden, "Analysis is available to the tutor only")
		case errors.Is(err, integration.ErrMissingCredential):
			writeError(w, http.StatusBadRequest, sess.ErrorMsg)
		default:
			writeError(w, http.StatusBadGateway, sess.ErrorMsg)
		}
		return
	}

	writeSuccess(w, models.AnalyzeResponse{
		Lesson:  lesson,
		Session: sess.View(),
	})
}

func (h *Handler) handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controller.ErrForbidden), errors.Is(err, controller.ErrNotAuthenticated):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, controller.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStudentNotFound), errors.Is(err, service.ErrLessonNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Session transition error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
