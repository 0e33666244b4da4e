package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/controller"
	"github.com/lekcja/lesson-service/internal/service"
)

const sessionHeader = "X-Session-Token"

type Handler struct {
	ctrl           *controller.Controller
	sessions       *controller.SessionStore
	studentService service.StudentService
	lessonService  service.LessonService
	logger         zerolog.Logger
}

func NewHandler(
	ctrl *controller.Controller,
	sessions *controller.SessionStore,
	studentService service.StudentService,
	lessonService service.LessonService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		ctrl:           ctrl,
		sessions:       sessions,
		studentService: studentService,
		lessonService:  lessonService,
		logger:         logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", h.Login)
		api.Post("/auth/logout", h.Logout)

		api.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/select-student", h.SelectStudent)
			r.Post("/new-lesson", h.NewLesson)
			r.Post("/view-lesson", h.ViewLessonTransition)
			r.Post("/back", h.Back)
			r.Post("/clear-error", h.ClearError)
			r.Post("/analyze", h.Analyze)
			r.Post("/credential", h.SaveCredential)
			r.Post("/credential/edit", h.EditCredential)
			r.Post("/credential/cancel", h.CancelCredential)
		})

		api.Route("/students", func(r chi.Router) {
			r.Get("/", h.GetAllStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{id}", h.GetStudentByID)
			r.Put("/{id}/notes", h.UpdateStudentNotes)
			r.Get("/{id}/lessons", h.GetStudentLessons)
		})

		api.Route("/lessons", func(r chi.Router) {
			r.Get("/{id}", h.GetLessonByID)
			r.Get("/{id}/audio", h.DownloadLessonAudio)
		})
	})
}

// session достаёт сессию по токену из заголовка; nil — отвечено 401.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *controller.Session {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Session token is required")
		return nil
	}

	sess, ok := h.sessions.Get(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Session not found")
		return nil
	}

	return sess
}

// authenticated — как session, но дополнительно требует выполненный
// вход.
func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) *controller.Session {
	sess := h.session(w, r)
	if sess == nil {
		return nil
	}

	if !sess.Authenticated {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return nil
	}

	return sess
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
