package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/lekcja/lesson-service/internal/config"
	"github.com/lekcja/lesson-service/internal/controller"
	"github.com/lekcja/lesson-service/internal/database"
	"github.com/lekcja/lesson-service/internal/delivery/httpd"
	"github.com/lekcja/lesson-service/internal/repository"
	"github.com/lekcja/lesson-service/internal/service"
	"github.com/lekcja/lesson-service/internal/service/integration"
	"github.com/lekcja/lesson-service/internal/service/storage"
)

type App struct {
	server     *http.Server
	logger     zerolog.Logger
	config     *config.Config
	closeStore func() error
	events     integration.EventPublisher
	notesSaver *service.NotesSaver
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, closeStore, err := newStore(cfg, log)
	if err != nil {
		return nil, err
	}

	// Репозитории
	studentRepo := repository.NewStudentRepository(store, log)
	lessonRepo := repository.NewLessonRepository(store, log)
	credentialRepo := repository.NewCredentialRepository(store, log)

	// Внешние подсистемы: архив аудио и события опциональны.
	var audioArchive storage.ObjectStorage
	if cfg.AudioArchive.Enabled {
		minioStorage, err := storage.NewMinIOStorage(storage.Config{
			Endpoint:  cfg.AudioArchive.Endpoint,
			AccessKey: cfg.AudioArchive.AccessKey,
			SecretKey: cfg.AudioArchive.SecretKey,
			Bucket:    cfg.AudioArchive.Bucket,
			Region:    cfg.AudioArchive.Region,
			UseSSL:    cfg.AudioArchive.UseSSL,
			Timeout:   cfg.AudioArchive.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init audio archive: %w", err)
		}
		audioArchive = minioStorage
	}

	var events integration.EventPublisher
	if cfg.RabbitMQ.Enabled {
		events, err = integration.NewRabbitMQPublisher(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.RoutingKey,
			cfg.RabbitMQ.QueueName,
			log,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
			// Работаем без событий, это допустимо.
			events = nil
		}
	}

	analyzer := integration.NewGeminiClient(credentialRepo, cfg.Gemini.Model, cfg.Gemini.Timeout, log)

	// Сервисы
	studentService := service.NewStudentService(studentRepo, log)
	lessonService := service.NewLessonService(lessonRepo, studentRepo, analyzer, audioArchive, events, log)
	notesSaver := service.NewNotesSaver(studentService, cfg.Auth.NotesDelay, log)

	// Контроллер и сессии
	sessions := controller.NewSessionStore()
	ctrl := controller.New(studentService, lessonService, notesSaver, credentialRepo, cfg.Auth.AdminPassword, log)

	// Обработчики
	handler := httpd.NewHandler(ctrl, sessions, studentService, lessonService, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:     server,
		logger:     log,
		config:     cfg,
		closeStore: closeStore,
		events:     events,
		notesSaver: notesSaver,
	}, nil
}

func newStore(cfg *config.Config, log zerolog.Logger) (repository.Store, func() error, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		store := repository.NewPostgresStore(db, log)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}

		log.Info().Msg("Database connection established")
		return store, store.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}

		store := repository.NewRedisStore(client, log)
		log.Info().Msg("Redis connection established")
		return store, store.Close, nil

	case "memory":
		log.Warn().Msg("Using in-memory storage, data will not survive restarts")
		return repository.NewMemoryStore(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting lesson service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down lesson service...")

	// Дозаписываем отложенные заметки до закрытия хранилища.
	a.notesSaver.FlushAll()

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close storage")
		}
	}

	return a.server.Shutdown(ctx)
}
