package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxUsernameLength matches the users.username column width.
const MaxUsernameLength = 64

// User is a dashboard user record.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserInput is the payload accepted by the users form and the users API.
type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Normalize trims surrounding whitespace from all fields.
func (in CreateUserInput) Normalize() CreateUserInput {
	return CreateUserInput{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
	}
}

// Validate checks the user is storable. Call Normalize first.
func (in CreateUserInput) Validate() error {
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Username) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be at most %d characters", ErrInvalidInput, MaxUsernameLength)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: email %q is not a valid address", ErrInvalidInput, in.Email)
	}
	return nil
}
