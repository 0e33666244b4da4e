package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/models"
)

type LessonRepository interface {
	GetByStudent(ctx context.Context, studentID string) ([]models.Lesson, error)
	GetByID(ctx context.Context, id string) (*models.Lesson, error)
	Add(ctx context.Context, studentID string, data models.LessonData) (*models.Lesson, error)
}

type lessonRepository struct {
	store  Store
	logger zerolog.Logger
}

func NewLessonRepository(store Store, logger zerolog.Logger) LessonRepository {
	return &lessonRepository{
		store:  store,
		logger: logger,
	}
}

func (r *lessonRepository) load(ctx context.Context) ([]models.Lesson, error) {
	raw, err := r.store.Get(ctx, KeyLessons)
	if err == ErrNotFound {
		return []models.Lesson{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lessons: %w", err)
	}

	var lessons []models.Lesson
	if err := json.Unmarshal(raw, &lessons); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lessons: %w", err)
	}

	return lessons, nil
}

func (r *lessonRepository) save(ctx context.Context, lessons []models.Lesson) error {
	raw, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}

	return r.store.Set(ctx, KeyLessons, raw)
}

// GetByStudent возвращает уроки студента, самые свежие первыми.
// Сортировка стабильная: уроки с одинаковой датой сохраняют порядок
// добавления.
func (r *lessonRepository) GetByStudent(ctx context.Context, studentID string) ([]models.Lesson, error) {
	lessons, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	result := []models.Lesson{}
	for _, lesson := range lessons {
		if lesson.StudentID == studentID {
			result = append(result, lesson)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})

	return result, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	lessons, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range lessons {
		if lessons[i].ID == id {
			return &lessons[i], nil
		}
	}

	return nil, nil
}

func (r *lessonRepository) Add(ctx context.Context, studentID string, data models.LessonData) (*models.Lesson, error) {
	lessons, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	lesson := models.Lesson{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Date:      time.Now().UnixMilli(),
		Data:      data,
	}

	lessons = append(lessons, lesson)
	if err := r.save(ctx, lessons); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("lesson_id", lesson.ID).
		Str("student_id", studentID).
		Msg("Lesson created")

	return &lesson, nil
}
