package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/service"
)

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}
	if !sess.Admin {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	var req models.CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := h.studentService.CreateStudent(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeSuccess(w, student)
}

func (h *Handler) GetAllStudents(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}
	if !sess.Admin {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	students, err := h.studentService.GetAllStudents(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get students")
		writeError(w, http.StatusInternalServerError, "Failed to get students")
		return
	}

	writeSuccess(w, map[string]interface{}{
		"students": students,
		"total":    len(students),
	})
}

func (h *Handler) GetStudentByID(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	// Студент видит только собственный профиль.
	if !sess.Admin && sess.StudentID != studentID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	student, err := h.studentService.GetStudentByID(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get student")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeSuccess(w, student)
}

// UpdateStudentNotes планирует отложенную запись заметок; немедленного
// подтверждения записи нет (дебаунс).
func (h *Handler) UpdateStudentNotes(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	var req models.UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ctrl.UpdateNotes(sess, studentID, req.Notes); err != nil {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Notes save scheduled",
	})
}

func (h *Handler) GetStudentLessons(w http.ResponseWriter, r *http.Request) {
	sess := h.authenticated(w, r)
	if sess == nil {
		return
	}

	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	if !sess.Admin && sess.StudentID != studentID {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	lessons, err := h.lessonService.GetLessonsByStudent(r.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get lessons")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeSuccess(w, map[string]interface{}{
		"lessons": lessons,
		"total":   len(lessons),
	})
}
