package models

type LessonAnalyzedEvent struct {
	LessonID  string `json:"lesson_id"`
	StudentID string `json:"student_id"`
	Date      int64  `json:"date"`
	Summary   string `json:"summary"`
	Timestamp int64  `json:"timestamp"`
}
