package memory

import (
	"context"

	"github.com/wolfeidau/sensordash/internal/models"
	"github.com/wolfeidau/sensordash/internal/store"
)

type userRow struct {
	user models.User
}

// CreateUser stores a user in memory.
func (s *Store) CreateUser(ctx context.Context, in models.CreateUserInput) (*models.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.users {
		if row.user.Username == in.Username {
			return nil, store.ErrUserAlreadyExists
		}
	}

	row := userRow{user: models.User{
		ID:        s.allocateID(),
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: s.now(),
	}}
	s.users = append(s.users, row)

	clone := row.user
	return &clone, nil
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for i := len(s.users) - 1; i >= 0; i-- {
		clone := s.users[i].user
		out = append(out, &clone)
	}
	return out, nil
}
