package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/models"
)

type StudentRepository interface {
	GetAll(ctx context.Context) ([]models.Student, error)
	Add(ctx context.Context, name, password string) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	UpdateNotes(ctx context.Context, id, notes string) error
}

type studentRepository struct {
	store  Store
	logger zerolog.Logger
}

func NewStudentRepository(store Store, logger zerolog.Logger) StudentRepository {
	return &studentRepository{
		store:  store,
		logger: logger,
	}
}

func (r *studentRepository) load(ctx context.Context) ([]models.Student, error) {
	raw, err := r.store.Get(ctx, KeyStudents)
	if err == ErrNotFound {
		return []models.Student{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	var students []models.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, fmt.Errorf("failed to unmarshal students: %w", err)
	}

	return students, nil
}

func (r *studentRepository) save(ctx context.Context, students []models.Student) error {
	raw, err := json.Marshal(students)
	if err != nil {
		return fmt.Errorf("failed to marshal students: %w", err)
	}

	return r.store.Set(ctx, KeyStudents, raw)
}

func (r *studentRepository) GetAll(ctx context.Context) ([]models.Student, error) {
	return r.load(ctx)
}

// Add генерирует свежий идентификатор и дописывает запись в конец
// коллекции. Уникальность имени не проверяется; коллизия uuid принята
// как пренебрежимо маловероятная.
func (r *studentRepository) Add(ctx context.Context, name, password string) (*models.Student, error) {
	students, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	student := models.Student{
		ID:        uuid.New().String(),
		Name:      name,
		Password:  password,
		Notes:     "",
		CreatedAt: time.Now().UnixMilli(),
	}

	students = append(students, student)
	if err := r.save(ctx, students); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("student_id", student.ID).
		Str("name", student.Name).
		Msg("Student created")

	return &student, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	students, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range students {
		if students[i].ID == id {
			return &students[i], nil
		}
	}

	return nil, nil
}

// UpdateNotes заменяет поле notes у найденного студента. Если id
// отсутствует — тихий no-op, коллекция не переписывается.
func (r *studentRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	students, err := r.load(ctx)
	if err != nil {
		return err
	}

	for i := range students {
		if students[i].ID == id {
			students[i].Notes = notes
			return r.save(ctx, students)
		}
	}

	return nil
}
