package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/repository"
)

var ErrStudentNotFound = errors.New("student not found")

type StudentService interface {
	CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error)
	GetStudentByID(ctx context.Context, id string) (*models.Student, error)
	GetAllStudents(ctx context.Context) ([]models.Student, error)
	UpdateNotes(ctx context.Context, id, notes string) error
}

type studentService struct {
	studentRepo repository.StudentRepository
	logger      zerolog.Logger
}

func NewStudentService(studentRepo repository.StudentRepository, logger zerolog.Logger) StudentService {
	return &studentService{
		studentRepo: studentRepo,
		logger:      logger,
	}
}

func (s *studentService) CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Password == "" {
		return nil, errors.New("password is required")
	}

	student, err := s.studentRepo.Add(ctx, req.Name, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	return student, nil
}

func (s *studentService) GetStudentByID(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	return student, nil
}

func (s *studentService) GetAllStudents(ctx context.Context) ([]models.Student, error) {
	students, err := s.studentRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all students: %w", err)
	}

	return students, nil
}

func (s *studentService) UpdateNotes(ctx context.Context, id, notes string) error {
	if err := s.studentRepo.UpdateNotes(ctx, id, notes); err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}

	return nil
}
