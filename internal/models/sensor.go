package models

import (
	"fmt"
	"math"
	"time"
)

// MaxHeartRate bounds the heart rate accepted from forms and the API.
const MaxHeartRate = 300

// SensorReading is a single recorded temperature / heart rate sample.
type SensorReading struct {
	ID          int64     `json:"id"`
	Temperature float64   `json:"temperature"`
	HeartRate   int32     `json:"heart_rate"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// CreateReadingInput is the payload accepted by the dashboard form and the sensors API.
type CreateReadingInput struct {
	Temperature float64 `json:"temperature"`
	HeartRate   int32   `json:"heart_rate"`
}

// Validate checks the reading is storable.
func (in CreateReadingInput) Validate() error {
	if math.IsNaN(in.Temperature) || math.IsInf(in.Temperature, 0) {
		return fmt.Errorf("%w: temperature must be a finite number", ErrInvalidInput)
	}
	if in.HeartRate < 0 || in.HeartRate > MaxHeartRate {
		return fmt.Errorf("%w: heart_rate must be between 0 and %d", ErrInvalidInput, MaxHeartRate)
	}
	return nil
}
