package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sensordash/internal/models"
)

// CreateReading inserts a sensor reading; recorded_at defaults to now() in the database.
func (s *Store) CreateReading(ctx context.Context, in models.CreateReadingInput) (*models.SensorReading, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO sensor_data (temperature, heart_rate)
		VALUES ($1, $2)
		RETURNING id, temperature, heart_rate, recorded_at
	`

	var reading models.SensorReading
	err := s.pool.QueryRow(ctx, query, in.Temperature, in.HeartRate).Scan(
		&reading.ID,
		&reading.Temperature,
		&reading.HeartRate,
		&reading.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sensor reading: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("id", reading.ID).
		Float64("temperature", reading.Temperature).
		Int32("heart_rate", reading.HeartRate).
		Msg("Created sensor reading")

	return &reading, nil
}

// ListRecentReadings returns the newest readings first.
func (s *Store) ListRecentReadings(ctx context.Context, limit int) ([]*models.SensorReading, error) {
	if limit <= 0 {
		return []*models.SensorReading{}, nil
	}

	query := `
		SELECT id, temperature, heart_rate, recorded_at
		FROM sensor_data
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensor readings: %w", mapPostgresError(err))
	}
	defer rows.Close()

	readings := make([]*models.SensorReading, 0, limit)
	for rows.Next() {
		var reading models.SensorReading
		err := rows.Scan(
			&reading.ID,
			&reading.Temperature,
			&reading.HeartRate,
			&reading.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
		}
		readings = append(readings, &reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sensor readings: %w", mapPostgresError(err))
	}

	return readings, nil
}
