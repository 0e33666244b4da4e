package controller

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lekcja/lesson-service/internal/models"
)

// Session — явный контейнер состояния: текущий экран, кто вошёл,
// активный студент/урок, сообщение об ошибке. Все переходы — методы
// контроллера над этим контейнером.
type Session struct {
	ID            string
	State         State
	Authenticated bool
	Admin         bool
	StudentID     string // активный или предвыбранный по ссылке студент
	LessonID      string
	ErrorMsg      string
	Processing    bool
	CreatedAt     time.Time
}

func (s *Session) View() models.SessionView {
	return models.SessionView{
		State:      s.State.String(),
		Admin:      s.Admin,
		StudentID:  s.StudentID,
		LessonID:   s.LessonID,
		Error:      s.ErrorMsg,
		Processing: s.Processing,
	}
}

// SessionStore — серверные сессии в памяти процесса. Одиночный
// оператор, один процесс; внешнее хранилище сессий здесь избыточно.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

func (st *SessionStore) Create() *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		State:     StateAuth,
		CreatedAt: time.Now(),
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	return sess
}

func (st *SessionStore) Get(token string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[token]
	return sess, ok
}

func (st *SessionStore) Delete(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}
