package repository

import (
	"context"

	"github.com/Bessima/bookbind-pay/internal/config/db"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/retry"
)

type UserRepository struct {
	db *db.DB
}

type UserStorageRepositoryI interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

func NewUserRepository(dbObj *db.DB) *UserRepository {
	return &UserRepository{db: dbObj}
}

func (repository *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, name, email, password FROM users WHERE name = $1`
	return retry.DoRetryWithResult(ctx, func() (*models.User, error) {
		row := repository.db.Pool.QueryRow(ctx, query, username)

		elem := models.User{}
		err := row.Scan(&elem.ID, &elem.Username, &elem.Email, &elem.PasswordHash)
		if err != nil {
			return nil, notFound(err)
		}
		return &elem, nil
	})
}

func (repository *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, name, email, password FROM users WHERE id = $1`
	return retry.DoRetryWithResult(ctx, func() (*models.User, error) {
		row := repository.db.Pool.QueryRow(ctx, query, id)

		elem := models.User{}
		err := row.Scan(&elem.ID, &elem.Username, &elem.Email, &elem.PasswordHash)
		if err != nil {
			return nil, notFound(err)
		}
		return &elem, nil
	})
}
