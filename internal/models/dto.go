package models

// Data Transfer Objects

type LoginRequest struct {
	Password  string `json:"password"`
	StudentID string `json:"student_id,omitempty"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	Session SessionView `json:"session"`
}

// SessionView — снимок состояния сессии, который видит клиент.
type SessionView struct {
	State      string `json:"state"`
	Admin      bool   `json:"admin"`
	StudentID  string `json:"student_id,omitempty"`
	LessonID   string `json:"lesson_id,omitempty"`
	Error      string `json:"error,omitempty"`
	Processing bool   `json:"processing"`
}

type CreateStudentRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type SaveCredentialRequest struct {
	APIKey string `json:"api_key"`
}

type SelectStudentRequest struct {
	StudentID string `json:"student_id"`
}

type ViewLessonRequest struct {
	LessonID string `json:"lesson_id"`
}

type AnalyzeResponse struct {
	Lesson  *Lesson     `json:"lesson"`
	Session SessionView `json:"session"`
}
