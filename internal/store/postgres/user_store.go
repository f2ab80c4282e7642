package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sensordash/internal/models"
	"github.com/wolfeidau/sensordash/internal/store"
)

// CreateUser inserts a user. A taken username yields store.ErrUserAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, in models.CreateUserInput) (*models.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (username, email)
		VALUES ($1, $2)
		RETURNING id, username, email, created_at
	`

	var user models.User
	err := s.pool.QueryRow(ctx, query, in.Username, in.Email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		err = mapPostgresError(err)
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Debug().
		Int64("id", user.ID).
		Str("username", user.Username).
		Msg("Created user")

	return &user, nil
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		ORDER BY id DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", mapPostgresError(err))
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", mapPostgresError(err))
	}

	return users, nil
}
