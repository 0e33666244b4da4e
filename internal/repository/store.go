package repository

import (
	"context"
	"errors"
)

// Фиксированные ключи хранилища. Имена унаследованы от исторического
// формата данных, менять их нельзя без миграции записей.
const (
	KeyStudents   = "lekcja_students"
	KeyLessons    = "lekcja_lessons"
	KeyCredential = "lekcja_gemini_api_key"
)

var ErrNotFound = errors.New("key not found")

// Store — минимальный контракт key-value хранилища: три логические
// записи, каждая — JSON-документ целиком. Все мутации коллекций
// выполняются как полный цикл чтение-изменение-запись; транзакционной
// изоляции нет (одиночный оператор, это принятое ограничение).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
