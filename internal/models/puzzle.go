/**
 * @description
 * Puzzle database model.
 * Maps to the 'puzzles' table in PostgreSQL, one row per DateKey.
 *
 * @dependencies
 * - gorm.io/gorm
 *
 * @notes
 * - symbols is stored as TEXT[] and its order defines the display order downstream.
 * - A puzzle is playable only when is_ready is true; a missing row means
 *   "not yet available", never an error.
 */

package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StringArray is a helper type to handle string arrays in Postgres (TEXT[])
type StringArray []string

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		// PostgreSQL returns arrays as strings like "{value1,value2,value3}"
		return a.parsePostgresArray(string(v))
	case string:
		return a.parsePostgresArray(v)
	default:
		return errors.New("type assertion failed for StringArray")
	}
}

// parsePostgresArray parses PostgreSQL array format: {value1,value2,value3}
func (a *StringArray) parsePostgresArray(s string) error {
	if s == "{}" || s == "" {
		*a = []string{}
		return nil
	}

	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")

	if s == "" {
		*a = []string{}
		return nil
	}

	// Ticker symbols never contain commas, so a plain split is safe here.
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			part = part[1 : len(part)-1]
		}
		result = append(result, part)
	}
	*a = result
	return nil
}

// Value implements the driver.Valuer interface
// Returns PostgreSQL array format: {value1,value2,value3}
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}

	quoted := make([]string, len(a))
	for i, v := range a {
		if strings.ContainsAny(v, `,"\{} `) {
			escaped := strings.ReplaceAll(v, `\`, `\\`)
			escaped = strings.ReplaceAll(escaped, `"`, `\"`)
			quoted[i] = fmt.Sprintf(`"%s"`, escaped)
		} else {
			quoted[i] = v
		}
	}
	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

// Puzzle represents one day's published set of symbols
// Maps to the 'puzzles' table
type Puzzle struct {
	DateKey   string      `gorm:"primaryKey;column:date_key" json:"date_key"`
	Symbols   StringArray `gorm:"column:symbols;type:text[]" json:"symbols"`
	IsReady   bool        `gorm:"column:is_ready;default:false" json:"is_ready"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Puzzle to `puzzles`
func (Puzzle) TableName() string {
	return "puzzles"
}
