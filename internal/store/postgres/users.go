package postgres

import (
	"context"
	"errors"
	"fmt"

	"shootoutserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

func (s *UsersStore) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `
		SELECT id, email, username, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`

	var (
		u      domain.User
		idUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, email).Scan(&idUUID, &u.Email, &u.Username, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user by email: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	return u, nil
}

// CreateUser inserts a user row for an email seen for the first time.
// A concurrent insert for the same email is folded into the existing
// row rather than reported as an error.
func (s *UsersStore) CreateUser(ctx context.Context, email, username string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, username)
		VALUES ($1, $2)
		ON CONFLICT (lower(email)) DO UPDATE SET email = users.email
		RETURNING id, email, username, created_at
	`

	var (
		u      domain.User
		idUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, email, username).Scan(&idUUID, &u.Email, &u.Username, &u.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	return u, nil
}
