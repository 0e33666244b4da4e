package storage

import (
	"context"
	"io"
)

// ObjectStorage — архив исходных аудиозаписей уроков. Ключ объекта
// выводится из идентификатора урока, поэтому сама запись урока
// остаётся без ссылки на файл.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Timeout   int
}
