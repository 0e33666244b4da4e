package controller

// State — экран, на котором находится сессия. API_KEY_UPDATE —
// полноценное состояние (оверлей настроек поверх дашборда), а не
// магическая строка.
type State string

const (
	StateAuth              State = "AUTH"
	StateAPIKeySetup       State = "API_KEY_SETUP"
	StateAPIKeyUpdate      State = "API_KEY_UPDATE"
	StateDashboard         State = "DASHBOARD"
	StateStudentProfile    State = "STUDENT_PROFILE"
	StateRecordingFlow     State = "RECORDING_FLOW"
	StateLessonView        State = "LESSON_VIEW"
	StatePublicStudentView State = "PUBLIC_STUDENT_VIEW"
)

func (s State) String() string {
	return string(s)
}
