package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NotesSaver — отложенное автосохранение заметок: каждое изменение
// перезапускает таймер, запись уходит в репозиторий только после
// паузы в наборе. Flush сбрасывает ожидающую запись немедленно
// (уход со страницы, выход, остановка сервиса).
type NotesSaver struct {
	students StudentService
	delay    time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pendingNote
}

type pendingNote struct {
	timer *time.Timer
	notes string
}

func NewNotesSaver(students StudentService, delay time.Duration, logger zerolog.Logger) *NotesSaver {
	return &NotesSaver{
		students: students,
		delay:    delay,
		logger:   logger,
		pending:  make(map[string]*pendingNote),
	}
}

// Schedule ставит (или переставляет) отложенную запись заметок
// студента.
func (s *NotesSaver) Schedule(studentID, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[studentID]; ok {
		p.timer.Stop()
		p.notes = notes
		p.timer.Reset(s.delay)
		return
	}

	p := &pendingNote{notes: notes}
	p.timer = time.AfterFunc(s.delay, func() {
		s.flushOne(studentID)
	})
	s.pending[studentID] = p
}

func (s *NotesSaver) flushOne(studentID string) {
	s.mu.Lock()
	p, ok := s.pending[studentID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, studentID)
	notes := p.notes
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.students.UpdateNotes(ctx, studentID, notes); err != nil {
		s.logger.Error().Err(err).
			Str("student_id", studentID).
			Msg("Failed to autosave notes")
	}
}

// Flush немедленно записывает отложенные заметки студента, если они
// есть.
func (s *NotesSaver) Flush(studentID string) {
	s.mu.Lock()
	p, ok := s.pending[studentID]
	if ok {
		p.timer.Stop()
	}
	s.mu.Unlock()

	if ok {
		s.flushOne(studentID)
	}
}

// FlushAll сбрасывает всё отложенное; вызывается при остановке
// сервиса.
func (s *NotesSaver) FlushAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.flushOne(id)
	}
}
