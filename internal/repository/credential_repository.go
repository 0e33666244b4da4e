package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// CredentialRepository — единственный слот под API-токен внешнего
// сервиса анализа. Токен перезаписывается при обновлении и не
// протухает.
type CredentialRepository interface {
	Set(ctx context.Context, token string) error
	Get(ctx context.Context) (string, error)
	Has(ctx context.Context) (bool, error)
}

type credentialRepository struct {
	store  Store
	logger zerolog.Logger
}

func NewCredentialRepository(store Store, logger zerolog.Logger) CredentialRepository {
	return &credentialRepository{
		store:  store,
		logger: logger,
	}
}

func (r *credentialRepository) Set(ctx context.Context, token string) error {
	if err := r.store.Set(ctx, KeyCredential, []byte(token)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	r.logger.Info().Msg("API credential updated")
	return nil
}

func (r *credentialRepository) Get(ctx context.Context) (string, error) {
	raw, err := r.store.Get(ctx, KeyCredential)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func (r *credentialRepository) Has(ctx context.Context) (bool, error) {
	_, err := r.store.Get(ctx, KeyCredential)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
