package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateReadingInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateReadingInput
		wantErr bool
	}{
		{name: "valid", input: CreateReadingInput{Temperature: 36.6, HeartRate: 72}},
		{name: "zero values", input: CreateReadingInput{}},
		{name: "negative temperature", input: CreateReadingInput{Temperature: -12.5, HeartRate: 60}},
		{name: "max heart rate", input: CreateReadingInput{Temperature: 37, HeartRate: MaxHeartRate}},
		{name: "NaN temperature", input: CreateReadingInput{Temperature: math.NaN(), HeartRate: 60}, wantErr: true},
		{name: "infinite temperature", input: CreateReadingInput{Temperature: math.Inf(1), HeartRate: 60}, wantErr: true},
		{name: "negative heart rate", input: CreateReadingInput{Temperature: 36, HeartRate: -1}, wantErr: true},
		{name: "heart rate too high", input: CreateReadingInput{Temperature: 36, HeartRate: MaxHeartRate + 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateUserInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateUserInput
		wantErr bool
	}{
		{name: "valid", input: CreateUserInput{Username: "alice", Email: "alice@example.com"}},
		{name: "surrounding whitespace", input: CreateUserInput{Username: "  bob ", Email: " bob@example.com "}},
		{name: "missing username", input: CreateUserInput{Email: "alice@example.com"}, wantErr: true},
		{name: "blank username", input: CreateUserInput{Username: "   ", Email: "alice@example.com"}, wantErr: true},
		{name: "missing email", input: CreateUserInput{Username: "alice"}, wantErr: true},
		{name: "malformed email", input: CreateUserInput{Username: "alice", Email: "not-an-email"}, wantErr: true},
		{name: "display name form", input: CreateUserInput{Username: "alice", Email: "Alice <alice@example.com>"}, wantErr: true},
		{
			name:    "username too long",
			input:   CreateUserInput{Username: string(make([]byte, MaxUsernameLength+1)), Email: "alice@example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Normalize().Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}
