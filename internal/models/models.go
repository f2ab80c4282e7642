package models

import "errors"

// ErrInvalidInput is wrapped by every validation failure on create inputs.
var ErrInvalidInput = errors.New("invalid input")
