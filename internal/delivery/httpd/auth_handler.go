package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lekcja/lesson-service/internal/controller"
	"github.com/lekcja/lesson-service/internal/models"
)

// Login создаёт сессию и проводит вход. Опциональный student_id — это
// параметр публичной ссылки студента: при нём вход ведёт в публичный
// просмотр, без него сверяется админский секрет.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	ctx := r.Context()
	sess := h.sessions.Create()

	if err := h.ctrl.Start(ctx, sess, req.StudentID); err != nil {
		h.sessions.Delete(sess.ID)

		if errors.Is(err, controller.ErrStudentLinkInvalid) {
			writeError(w, http.StatusForbidden, sess.ErrorMsg)
			return
		}

		h.logger.Error().Err(err).Msg("Failed to pre-route session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.ctrl.Login(ctx, sess, req.Password); err != nil {
		h.sessions.Delete(sess.ID)

		if errors.Is(err, controller.ErrWrongPassword) {
			writeError(w, http.StatusUnauthorized, "Неверный пароль")
			return
		}

		h.logger.Error().Err(err).Msg("Login failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeSuccess(w, models.LoginResponse{
		Token:   sess.ID,
		Session: sess.View(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	h.ctrl.Logout(sess)
	h.sessions.Delete(sess.ID)

	writeSuccess(w, map[string]interface{}{
		"message": "Logged out",
	})
}
