package memory

import (
	"context"

	"github.com/wolfeidau/sensordash/internal/models"
)

type sensorRow struct {
	reading models.SensorReading
}

// CreateReading stores a reading in memory.
func (s *Store) CreateReading(ctx context.Context, in models.CreateReadingInput) (*models.SensorReading, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := sensorRow{reading: models.SensorReading{
		ID:          s.allocateID(),
		Temperature: in.Temperature,
		HeartRate:   in.HeartRate,
		RecordedAt:  s.now(),
	}}
	s.readings = append(s.readings, row)

	// Clone to avoid external modifications
	clone := row.reading
	return &clone, nil
}

// ListRecentReadings returns up to limit readings, newest first.
func (s *Store) ListRecentReadings(ctx context.Context, limit int) ([]*models.SensorReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*models.SensorReading{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SensorReading, 0, min(limit, len(s.readings)))
	for i := len(s.readings) - 1; i >= 0 && len(out) < limit; i-- {
		clone := s.readings[i].reading
		out = append(out, &clone)
	}
	return out, nil
}
