package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/repository"
	"github.com/lekcja/lesson-service/internal/service"
)

// Сообщение для битой студенческой ссылки — фиксированное, форма входа
// в этом случае не предлагается.
const studentLinkErrorMsg = "Профиль студента не найден по ссылке. Пожалуйста, свяжитесь с преподавателем."

var (
	ErrWrongPassword      = errors.New("wrong password")
	ErrStudentLinkInvalid = errors.New("student link does not resolve")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("operation not allowed in current session")
	ErrInvalidTransition  = errors.New("transition not allowed from current state")
)

// Controller владеет переходами между экранами и делегирует все
// чтения/записи сервисам. Никакой бизнес-логики в обработчиках HTTP:
// они лишь транслируют события пользователя сюда.
type Controller struct {
	students      service.StudentService
	lessons       service.LessonService
	notes         *service.NotesSaver
	credentials   repository.CredentialRepository
	adminPassword string
	logger        zerolog.Logger
}

func New(
	students service.StudentService,
	lessons service.LessonService,
	notes *service.NotesSaver,
	credentials repository.CredentialRepository,
	adminPassword string,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		students:      students,
		lessons:       lessons,
		notes:         notes,
		credentials:   credentials,
		adminPassword: adminPassword,
		logger:        logger,
	}
}

// Start выполняет предварительную маршрутизацию по ссылке студента.
// Неразрешившийся идентификатор фатален для этого пути: сессия
// остаётся в AUTH с фиксированной ошибкой доступа.
func (c *Controller) Start(ctx context.Context, sess *Session, studentID string) error {
	if studentID == "" {
		return nil
	}

	student, err := c.students.GetStudentByID(ctx, studentID)
	if errors.Is(err, service.ErrStudentNotFound) {
		sess.ErrorMsg = studentLinkErrorMsg
		return ErrStudentLinkInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to resolve student link: %w", err)
	}

	sess.StudentID = student.ID
	return nil
}

// Login сверяет пароль. Предвыбранный студент логинится своим паролем
// в публичный просмотр; без предвыбора пароль сверяется с админским
// секретом, и дальше — дашборд либо настройка ключа, если ключа ещё
// нет.
func (c *Controller) Login(ctx context.Context, sess *Session, password string) error {
	if sess.StudentID != "" {
		student, err := c.students.GetStudentByID(ctx, sess.StudentID)
		if err != nil {
			return fmt.Errorf("failed to load student: %w", err)
		}

		if password != student.Password {
			sess.ErrorMsg = "Неверный пароль"
			return ErrWrongPassword
		}

		sess.Authenticated = true
		sess.Admin = false
		c.transition(sess, StatePublicStudentView)
		return nil
	}

	if password != c.adminPassword {
		sess.ErrorMsg = "Неверный пароль"
		return ErrWrongPassword
	}

	sess.Authenticated = true
	sess.Admin = true

	hasKey, err := c.credentials.Has(ctx)
	if err != nil {
		return fmt.Errorf("failed to check credential: %w", err)
	}

	if hasKey {
		c.transition(sess, StateDashboard)
	} else {
		c.transition(sess, StateAPIKeySetup)
	}

	return nil
}

// ClearError сбрасывает флаг ошибки (следующее нажатие клавиши в поле
// пароля).
func (c *Controller) ClearError(sess *Session) {
	sess.ErrorMsg = ""
}

func (c *Controller) SaveCredential(ctx context.Context, sess *Session, token string) error {
	if !sess.Authenticated || !sess.Admin {
		return ErrForbidden
	}
	if sess.State != StateAPIKeySetup && sess.State != StateAPIKeyUpdate {
		return ErrInvalidTransition
	}
	if token == "" {
		return errors.New("api key is required")
	}

	if err := c.credentials.Set(ctx, token); err != nil {
		return err
	}

	c.transition(sess, StateDashboard)
	return nil
}

func (c *Controller) OpenCredentialUpdate(sess *Session) error {
	if !sess.Admin || sess.State != StateDashboard {
		return ErrInvalidTransition
	}

	c.transition(sess, StateAPIKeyUpdate)
	return nil
}

func (c *Controller) CancelCredentialUpdate(sess *Session) error {
	if sess.State != StateAPIKeyUpdate {
		return ErrInvalidTransition
	}

	c.transition(sess, StateDashboard)
	return nil
}

func (c *Controller) SelectStudent(ctx context.Context, sess *Session, studentID string) error {
	if !sess.Authenticated || !sess.Admin {
		return ErrForbidden
	}

	student, err := c.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return err
	}

	sess.StudentID = student.ID
	c.transition(sess, StateStudentProfile)
	return nil
}

func (c *Controller) StartRecording(sess *Session) error {
	if !sess.Admin || sess.StudentID == "" {
		return ErrForbidden
	}
	if sess.State != StateStudentProfile {
		return ErrInvalidTransition
	}

	c.transition(sess, StateRecordingFlow)
	return nil
}

// CompleteAnalysis — завершение записи или загрузки файла. На время
// анализа выставляется индикатор обработки; при ошибке сессия остаётся
// на текущем экране, текст ошибки показывается, индикатор снимается.
// Повторная отправка тем же экраном не блокируется, отмена не
// реализована — запрос дорабатывает до конца.
func (c *Controller) CompleteAnalysis(ctx context.Context, sess *Session, audio []byte, mimeType string) (*models.Lesson, error) {
	if !sess.Authenticated || !sess.Admin || sess.StudentID == "" {
		return nil, ErrForbidden
	}

	sess.Processing = true
	defer func() { sess.Processing = false }()

	lesson, err := c.lessons.AnalyzeAndCreate(ctx, sess.StudentID, audio, mimeType)
	if err != nil {
		if errors.Is(err, service.ErrNotAudio) {
			sess.ErrorMsg = "Пожалуйста, загрузите аудиофайл."
		} else {
			sess.ErrorMsg = "Ошибка анализа урока. " + err.Error()
		}
		return nil, err
	}

	sess.LessonID = lesson.ID
	c.transition(sess, StateLessonView)
	return lesson, nil
}

func (c *Controller) ViewLesson(ctx context.Context, sess *Session, lessonID string) error {
	if !sess.Authenticated {
		return ErrNotAuthenticated
	}

	lesson, err := c.lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		return err
	}

	// Студент видит только собственные уроки.
	if !sess.Admin && lesson.StudentID != sess.StudentID {
		return ErrForbidden
	}

	sess.LessonID = lesson.ID
	c.transition(sess, StateLessonView)
	return nil
}

// UpdateNotes — автосохранение заметок преподавателя с дебаунсом.
func (c *Controller) UpdateNotes(sess *Session, studentID, notes string) error {
	if !sess.Authenticated || !sess.Admin {
		return ErrForbidden
	}

	c.notes.Schedule(studentID, notes)
	return nil
}

// Back реализует навигацию назад: из просмотра урока — в профиль
// (админ) или публичный просмотр (студент); из записи — в профиль; из
// профиля — на дашборд со сбросом активного студента; отложенные
// заметки при этом дозаписываются.
func (c *Controller) Back(sess *Session) error {
	switch sess.State {
	case StateLessonView:
		sess.LessonID = ""
		if sess.Admin {
			c.transition(sess, StateStudentProfile)
		} else {
			c.transition(sess, StatePublicStudentView)
		}
	case StateRecordingFlow:
		c.transition(sess, StateStudentProfile)
	case StateStudentProfile:
		if sess.StudentID != "" {
			c.notes.Flush(sess.StudentID)
		}
		sess.StudentID = ""
		c.transition(sess, StateDashboard)
	default:
		return ErrInvalidTransition
	}

	return nil
}

// Logout сбрасывает сессию полностью; AUTH — универсальная точка
// возврата.
func (c *Controller) Logout(sess *Session) {
	if sess.Admin && sess.StudentID != "" {
		c.notes.Flush(sess.StudentID)
	}

	sess.Authenticated = false
	sess.Admin = false
	sess.StudentID = ""
	sess.LessonID = ""
	sess.Processing = false
	sess.ErrorMsg = ""
	sess.State = StateAuth
}

// transition меняет экран и гасит устаревшее сообщение об ошибке.
func (c *Controller) transition(sess *Session, next State) {
	c.logger.Debug().
		Str("session_id", sess.ID).
		Str("from", sess.State.String()).
		Str("to", next.String()).
		Msg("Session transition")

	sess.State = next
	sess.ErrorMsg = ""
}
