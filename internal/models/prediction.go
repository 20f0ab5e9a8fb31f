/**
 * @description
 * UserPrediction database model.
 * Maps to the 'user_predictions' table: one row per user per DateKey, created
 * exactly once when the user locks in their picks.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 *
 * @notes
 * - predictions is a JSONB map from symbol to "up"/"down".
 * - Rows are write-once in practice; the composite primary key plus merge-upsert
 *   resolves a same-day double submit as last-write-wins.
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Direction is a single up/down call on one symbol
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is one of the two accepted directions
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// PredictionMap maps symbol -> direction, stored as JSONB
type PredictionMap map[string]Direction

// Scan implements the sql.Scanner interface
func (m *PredictionMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("type assertion failed for PredictionMap")
	}
}

// Value implements the driver.Valuer interface
func (m PredictionMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// UserPrediction is a user's locked-in picks and streak for one DateKey
type UserPrediction struct {
	UserID      uuid.UUID     `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	DateKey     string        `gorm:"primaryKey;column:date_key" json:"date_key"`
	Predictions PredictionMap `gorm:"column:predictions;type:jsonb" json:"predictions"`
	Streak      int           `gorm:"column:streak" json:"streak"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by UserPrediction to `user_predictions`
func (UserPrediction) TableName() string {
	return "user_predictions"
}
