package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/repository"
	"github.com/lekcja/lesson-service/internal/service"
)

type stubAnalyzer struct {
	data  *models.LessonData
	err   error
	calls int
}

func (s *stubAnalyzer) AnalyzeLesson(_ context.Context, _ []byte, _ string) (*models.LessonData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type testEnv struct {
	ctrl        *Controller
	students    service.StudentService
	lessons     service.LessonService
	credentials repository.CredentialRepository
	analyzer    *stubAnalyzer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zerolog.Nop()
	store := repository.NewMemoryStore()

	studentRepo := repository.NewStudentRepository(store, log)
	lessonRepo := repository.NewLessonRepository(store, log)
	credentialRepo := repository.NewCredentialRepository(store, log)

	analyzer := &stubAnalyzer{data: &models.LessonData{
		Summary:         "Урок прошёл хорошо",
		Vocabulary:      []models.VocabularyItem{},
		Mistakes:        []models.MistakeCorrection{},
		Exercises:       []models.Exercise{},
		NextLessonIdeas: []string{},
	}}

	students := service.NewStudentService(studentRepo, log)
	lessons := service.NewLessonService(lessonRepo, studentRepo, analyzer, nil, nil, log)
	notes := service.NewNotesSaver(students, 10*time.Millisecond, log)

	ctrl := New(students, lessons, notes, credentialRepo, "228228228", log)

	return &testEnv{
		ctrl:        ctrl,
		students:    students,
		lessons:     lessons,
		credentials: credentialRepo,
		analyzer:    analyzer,
	}
}

func newSession() *Session {
	return &Session{ID: "test-session", State: StateAuth, CreatedAt: time.Now()}
}

func (e *testEnv) addStudent(t *testing.T, name, password string) *models.Student {
	t.Helper()
	student, err := e.students.CreateStudent(context.Background(), &models.CreateStudentRequest{
		Name:     name,
		Password: password,
	})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	return student
}

func (e *testEnv) loginAdmin(t *testing.T, sess *Session) {
	t.Helper()
	if err := e.ctrl.Login(context.Background(), sess, "228228228"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestAdminLoginWithoutCredentialGoesToSetup(t *testing.T) {
	env := newTestEnv(t)
	sess := newSession()

	env.loginAdmin(t, sess)

	if sess.State != StateAPIKeySetup {
		t.Fatalf("expected %s, got %s", StateAPIKeySetup, sess.State)
	}
	if !sess.Admin || !sess.Authenticated {
		t.Fatalf("expected authenticated admin session: %+v", sess)
	}
}

func TestAdminLoginWithCredentialGoesToDashboard(t *testing.T) {
	env := newTestEnv(t)
	if err := env.credentials.Set(context.Background(), "gemini-key"); err != nil {
		t.Fatalf("Set credential: %v", err)
	}

	sess := newSession()
	env.loginAdmin(t, sess)

	if sess.State != StateDashboard {
		t.Fatalf("expected %s, got %s", StateDashboard, sess.State)
	}
}

func TestSaveCredentialLeadsToDashboard(t *testing.T) {
	env := newTestEnv(t)
	sess := newSession()
	env.loginAdmin(t, sess)

	if err := env.ctrl.SaveCredential(context.Background(), sess, "gemini-key"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}

	if sess.State != StateDashboard {
		t.Fatalf("expected %s, got %s", StateDashboard, sess.State)
	}

	has, _ := env.credentials.Has(context.Background())
	if !has {
		t.Fatalf("expected credential persisted")
	}
}

func TestSaveCredentialRejectedOutsideSetupScreens(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")

	sess := newSession()
	env.loginAdmin(t, sess)

	err := env.ctrl.SaveCredential(context.Background(), sess, "another-key")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCredentialUpdateFlow(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "old-key")

	sess := newSession()
	env.loginAdmin(t, sess)

	if err := env.ctrl.OpenCredentialUpdate(sess); err != nil {
		t.Fatalf("OpenCredentialUpdate: %v", err)
	}
	if sess.State != StateAPIKeyUpdate {
		t.Fatalf("expected %s, got %s", StateAPIKeyUpdate, sess.State)
	}

	// Отмена возвращает на дашборд без изменения ключа.
	if err := env.ctrl.CancelCredentialUpdate(sess); err != nil {
		t.Fatalf("CancelCredentialUpdate: %v", err)
	}
	if sess.State != StateDashboard {
		t.Fatalf("expected %s, got %s", StateDashboard, sess.State)
	}
	key, _ := env.credentials.Get(context.Background())
	if key != "old-key" {
		t.Fatalf("credential changed on cancel: %q", key)
	}

	env.ctrl.OpenCredentialUpdate(sess)
	if err := env.ctrl.SaveCredential(context.Background(), sess, "new-key"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	key, _ = env.credentials.Get(context.Background())
	if key != "new-key" {
		t.Fatalf("expected new credential, got %q", key)
	}
}

func TestWrongAdminPassword(t *testing.T) {
	env := newTestEnv(t)
	sess := newSession()

	err := env.ctrl.Login(context.Background(), sess, "wrong")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if sess.State != StateAuth {
		t.Fatalf("state changed on failed login: %s", sess.State)
	}
	if sess.Authenticated {
		t.Fatalf("session authenticated after failed login")
	}
	if sess.ErrorMsg != "Неверный пароль" {
		t.Fatalf("unexpected error message: %q", sess.ErrorMsg)
	}

	env.ctrl.ClearError(sess)
	if sess.ErrorMsg != "" {
		t.Fatalf("error not cleared")
	}
}

func TestStudentLinkLogin(t *testing.T) {
	env := newTestEnv(t)
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	if err := env.ctrl.Start(context.Background(), sess, anna.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.StudentID != anna.ID {
		t.Fatalf("student not preselected: %+v", sess)
	}

	// Неверный пароль студента: остаёмся на AUTH с ошибкой.
	err := env.ctrl.Login(context.Background(), sess, "wrong")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if sess.State != StateAuth || sess.Authenticated {
		t.Fatalf("session changed on failed login: %+v", sess)
	}

	if err := env.ctrl.Login(context.Background(), sess, "xyz123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.State != StatePublicStudentView {
		t.Fatalf("expected %s, got %s", StatePublicStudentView, sess.State)
	}
	if sess.Admin {
		t.Fatalf("student session must not be admin")
	}
}

func TestStudentLinkInvalid(t *testing.T) {
	env := newTestEnv(t)
	sess := newSession()

	err := env.ctrl.Start(context.Background(), sess, "no-such-student")
	if !errors.Is(err, ErrStudentLinkInvalid) {
		t.Fatalf("expected ErrStudentLinkInvalid, got %v", err)
	}
	if sess.State != StateAuth {
		t.Fatalf("expected %s, got %s", StateAuth, sess.State)
	}
	if !strings.Contains(sess.ErrorMsg, "Профиль студента не найден") {
		t.Fatalf("unexpected error message: %q", sess.ErrorMsg)
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	env.loginAdmin(t, sess)

	if err := env.ctrl.SelectStudent(context.Background(), sess, anna.ID); err != nil {
		t.Fatalf("SelectStudent: %v", err)
	}
	if sess.State != StateStudentProfile {
		t.Fatalf("expected %s, got %s", StateStudentProfile, sess.State)
	}

	if err := env.ctrl.StartRecording(sess); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if sess.State != StateRecordingFlow {
		t.Fatalf("expected %s, got %s", StateRecordingFlow, sess.State)
	}

	lesson, err := env.ctrl.CompleteAnalysis(context.Background(), sess, []byte("fake-audio"), "audio/webm")
	if err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}

	if sess.State != StateLessonView {
		t.Fatalf("expected %s, got %s", StateLessonView, sess.State)
	}
	if sess.LessonID != lesson.ID {
		t.Fatalf("session lesson id mismatch: %q vs %q", sess.LessonID, lesson.ID)
	}
	if sess.Processing {
		t.Fatalf("processing flag not cleared")
	}

	// Урок сохранён и привязан к правильному студенту.
	stored, err := env.lessons.GetLessonByID(context.Background(), lesson.ID)
	if err != nil {
		t.Fatalf("GetLessonByID: %v", err)
	}
	if stored.StudentID != anna.ID {
		t.Fatalf("lesson bound to wrong student: %q", stored.StudentID)
	}
	if stored.Data.Summary != "Урок прошёл хорошо" {
		t.Fatalf("unexpected summary: %q", stored.Data.Summary)
	}
}

func TestAnalyzeFailureStaysOnRecordingScreen(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	env.loginAdmin(t, sess)
	env.ctrl.SelectStudent(context.Background(), sess, anna.ID)
	env.ctrl.StartRecording(sess)

	env.analyzer.err = errors.New("no response text generated")

	_, err := env.ctrl.CompleteAnalysis(context.Background(), sess, []byte("fake-audio"), "audio/webm")
	if err == nil {
		t.Fatalf("expected analysis error")
	}

	if sess.State != StateRecordingFlow {
		t.Fatalf("expected %s, got %s", StateRecordingFlow, sess.State)
	}
	if sess.Processing {
		t.Fatalf("processing flag not cleared")
	}
	if !strings.Contains(sess.ErrorMsg, "no response text generated") {
		t.Fatalf("unexpected error message: %q", sess.ErrorMsg)
	}

	lessons, _ := env.lessons.GetLessonsByStudent(context.Background(), anna.ID)
	if len(lessons) != 0 {
		t.Fatalf("lesson persisted despite analysis failure")
	}
}

func TestAnalyzeRejectsNonAudioBeforeAnalyzer(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	env.loginAdmin(t, sess)
	env.ctrl.SelectStudent(context.Background(), sess, anna.ID)
	env.ctrl.StartRecording(sess)

	_, err := env.ctrl.CompleteAnalysis(context.Background(), sess, []byte("%PDF-1.4"), "application/pdf")
	if !errors.Is(err, service.ErrNotAudio) {
		t.Fatalf("expected ErrNotAudio, got %v", err)
	}
	if env.analyzer.calls != 0 {
		t.Fatalf("analyzer called for non-audio upload")
	}
	if sess.ErrorMsg != "Пожалуйста, загрузите аудиофайл." {
		t.Fatalf("unexpected error message: %q", sess.ErrorMsg)
	}
}

func TestStudentSeesOnlyOwnLessons(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")
	boris := env.addStudent(t, "Boris", "qwerty")

	// Готовим по уроку для каждого через админский сценарий.
	admin := newSession()
	env.loginAdmin(t, admin)
	env.ctrl.SelectStudent(context.Background(), admin, anna.ID)
	env.ctrl.StartRecording(admin)
	annaLesson, err := env.ctrl.CompleteAnalysis(context.Background(), admin, []byte("a"), "audio/webm")
	if err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}

	sess := newSession()
	env.ctrl.Start(context.Background(), sess, boris.ID)
	if err := env.ctrl.Login(context.Background(), sess, "qwerty"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	err = env.ctrl.ViewLesson(context.Background(), sess, annaLesson.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if sess.State != StatePublicStudentView {
		t.Fatalf("state changed on forbidden view: %s", sess.State)
	}
}

func TestBackNavigation(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	env.loginAdmin(t, sess)
	env.ctrl.SelectStudent(context.Background(), sess, anna.ID)
	env.ctrl.StartRecording(sess)
	if _, err := env.ctrl.CompleteAnalysis(context.Background(), sess, []byte("a"), "audio/webm"); err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}

	// Урок -> профиль -> дашборд, активный студент сбрасывается.
	if err := env.ctrl.Back(sess); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if sess.State != StateStudentProfile || sess.LessonID != "" {
		t.Fatalf("unexpected session after back: %+v", sess)
	}

	if err := env.ctrl.Back(sess); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if sess.State != StateDashboard || sess.StudentID != "" {
		t.Fatalf("unexpected session after back: %+v", sess)
	}

	if err := env.ctrl.Back(sess); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from dashboard, got %v", err)
	}
}

func TestBackFlushesPendingNotes(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	env.loginAdmin(t, sess)
	env.ctrl.SelectStudent(context.Background(), sess, anna.ID)

	if err := env.ctrl.UpdateNotes(sess, anna.ID, "нужно повторить падежи"); err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}

	// Уход со страницы профиля записывает заметки, не дожидаясь таймера.
	if err := env.ctrl.Back(sess); err != nil {
		t.Fatalf("Back: %v", err)
	}

	got, err := env.students.GetStudentByID(context.Background(), anna.ID)
	if err != nil {
		t.Fatalf("GetStudentByID: %v", err)
	}
	if got.Notes != "нужно повторить падежи" {
		t.Fatalf("notes not flushed: %q", got.Notes)
	}
}

func TestLogoutResetsSession(t *testing.T) {
	env := newTestEnv(t)
	env.credentials.Set(context.Background(), "gemini-key")
	anna := env.addStudent(t, "Anna", "xyz123")

	sess := newSession()
	env.loginAdmin(t, sess)
	env.ctrl.SelectStudent(context.Background(), sess, anna.ID)

	env.ctrl.Logout(sess)

	if sess.State != StateAuth {
		t.Fatalf("expected %s, got %s", StateAuth, sess.State)
	}
	if sess.Authenticated || sess.Admin || sess.StudentID != "" || sess.LessonID != "" || sess.ErrorMsg != "" {
		t.Fatalf("session not fully reset: %+v", sess)
	}
}
