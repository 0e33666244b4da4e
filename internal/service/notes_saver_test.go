package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/repository"
)

func newNotesFixture(t *testing.T) (*NotesSaver, StudentService, string) {
	t.Helper()

	log := zerolog.Nop()
	repo := repository.NewStudentRepository(repository.NewMemoryStore(), log)
	students := NewStudentService(repo, log)

	student, err := repo.Add(context.Background(), "Anna", "xyz123")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	saver := NewNotesSaver(students, 30*time.Millisecond, log)
	return saver, students, student.ID
}

func getNotes(t *testing.T, students StudentService, id string) string {
	t.Helper()
	student, err := students.GetStudentByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStudentByID: %v", err)
	}
	return student.Notes
}

func TestScheduleWritesAfterDelay(t *testing.T) {
	saver, students, id := newNotesFixture(t)

	saver.Schedule(id, "первая версия")

	// До истечения паузы запись ещё не ушла.
	if got := getNotes(t, students, id); got != "" {
		t.Fatalf("notes written too early: %q", got)
	}

	time.Sleep(100 * time.Millisecond)

	if got := getNotes(t, students, id); got != "первая версия" {
		t.Fatalf("expected notes after delay, got %q", got)
	}
}

func TestRescheduleKeepsOnlyLastValue(t *testing.T) {
	saver, students, id := newNotesFixture(t)

	saver.Schedule(id, "черновик")
	saver.Schedule(id, "черновик 2")
	saver.Schedule(id, "итоговая версия")

	time.Sleep(120 * time.Millisecond)

	if got := getNotes(t, students, id); got != "итоговая версия" {
		t.Fatalf("expected last scheduled value, got %q", got)
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	saver, students, id := newNotesFixture(t)

	saver.Schedule(id, "срочная заметка")
	saver.Flush(id)

	if got := getNotes(t, students, id); got != "срочная заметка" {
		t.Fatalf("expected immediate write, got %q", got)
	}
}

func TestFlushWithoutPendingIsNoop(t *testing.T) {
	saver, students, id := newNotesFixture(t)

	saver.Flush(id)

	if got := getNotes(t, students, id); got != "" {
		t.Fatalf("unexpected notes: %q", got)
	}
}

func TestFlushAllDrainsEveryStudent(t *testing.T) {
	log := zerolog.Nop()
	repo := repository.NewStudentRepository(repository.NewMemoryStore(), log)
	students := NewStudentService(repo, log)

	anna, _ := repo.Add(context.Background(), "Anna", "xyz123")
	boris, _ := repo.Add(context.Background(), "Boris", "qwerty")

	saver := NewNotesSaver(students, time.Minute, log)
	saver.Schedule(anna.ID, "заметка Анны")
	saver.Schedule(boris.ID, "заметка Бориса")

	saver.FlushAll()

	if got := getNotes(t, students, anna.ID); got != "заметка Анны" {
		t.Fatalf("anna notes not flushed: %q", got)
	}
	if got := getNotes(t, students, boris.ID); got != "заметка Бориса" {
		t.Fatalf("boris notes not flushed: %q", got)
	}
}
