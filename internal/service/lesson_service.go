package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/repository"
	"github.com/lekcja/lesson-service/internal/service/integration"
	"github.com/lekcja/lesson-service/internal/service/storage"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNotAudio       = errors.New("uploaded file is not an audio recording")
)

type LessonService interface {
	AnalyzeAndCreate(ctx context.Context, studentID string, audio []byte, mimeType string) (*models.Lesson, error)
	GetLessonByID(ctx context.Context, id string) (*models.Lesson, error)
	GetLessonsByStudent(ctx context.Context, studentID string) ([]models.Lesson, error)
	DownloadAudio(ctx context.Context, lessonID string) (io.ReadCloser, *storage.ObjectInfo, error)
}

type lessonService struct {
	lessonRepo   repository.LessonRepository
	studentRepo  repository.StudentRepository
	analyzer     integration.AnalyzerClient
	audioArchive storage.ObjectStorage        // nil: архив отключён
	events       integration.EventPublisher   // nil: события отключены
	logger       zerolog.Logger
}

func NewLessonService(
	lessonRepo repository.LessonRepository,
	studentRepo repository.StudentRepository,
	analyzer integration.AnalyzerClient,
	audioArchive storage.ObjectStorage,
	events integration.EventPublisher,
	logger zerolog.Logger,
) LessonService {
	return &lessonService{
		lessonRepo:   lessonRepo,
		studentRepo:  studentRepo,
		analyzer:     analyzer,
		audioArchive: audioArchive,
		events:       events,
		logger:       logger,
	}
}

func audioObjectKey(lessonID string) string {
	return "lessons/" + lessonID
}

// AnalyzeAndCreate — единственный путь появления урока: успешный
// анализ записи. Файл не-аудио отклоняется до какого-либо сетевого
// вызова. Архивирование аудио и публикация события не фатальны — урок
// к этому моменту уже сохранён.
func (s *lessonService) AnalyzeAndCreate(ctx context.Context, studentID string, audio []byte, mimeType string) (*models.Lesson, error) {
	if !strings.HasPrefix(mimeType, "audio/") {
		return nil, ErrNotAudio
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	data, err := s.analyzer.AnalyzeLesson(ctx, audio, mimeType)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessonRepo.Add(ctx, studentID, *data)
	if err != nil {
		return nil, fmt.Errorf("failed to persist lesson: %w", err)
	}

	if s.audioArchive != nil {
		key := audioObjectKey(lesson.ID)
		err := s.audioArchive.Upload(ctx, key, bytes.NewReader(audio), int64(len(audio)), mimeType)
		if err != nil {
			s.logger.Error().Err(err).
				Str("lesson_id", lesson.ID).
				Msg("Failed to archive lesson audio")
		}
	}

	if s.events != nil {
		event := &models.LessonAnalyzedEvent{
			LessonID:  lesson.ID,
			StudentID: studentID,
			Date:      lesson.Date,
			Summary:   lesson.Data.Summary,
			Timestamp: time.Now().Unix(),
		}
		if err := s.events.PublishLessonAnalyzed(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish lesson analyzed event")
		}
	}

	return lesson, nil
}

func (s *lessonService) GetLessonByID(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	return lesson, nil
}

func (s *lessonService) GetLessonsByStudent(ctx context.Context, studentID string) ([]models.Lesson, error) {
	lessons, err := s.lessonRepo.GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %w", err)
	}

	return lessons, nil
}

func (s *lessonService) DownloadAudio(ctx context.Context, lessonID string) (io.ReadCloser, *storage.ObjectInfo, error) {
	if s.audioArchive == nil {
		return nil, nil, errors.New("audio archive is disabled")
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson == nil {
		return nil, nil, ErrLessonNotFound
	}

	return s.audioArchive.Download(ctx, audioObjectKey(lessonID))
}
