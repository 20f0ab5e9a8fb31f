/**
 * @description
 * DailyCompany database model.
 * Maps to the 'daily_companies' table: one row per symbol, overwritten each day
 * the symbol appears in a puzzle.
 *
 * @dependencies
 * - gorm.io/gorm
 *
 * @notes
 * - Keyed by symbol, NOT by (symbol, date_key). Only the latest snapshot survives;
 *   readers must compare date_key against the puzzle being viewed before trusting it.
 * - Price is a pointer: NULL records a quote fetch that failed for that symbol.
 */

package models

import "time"

// DailyCompany is the per-symbol snapshot backing one day's puzzle display
type DailyCompany struct {
	Symbol    string    `gorm:"primaryKey;column:symbol" json:"symbol"`
	Name      string    `gorm:"column:name" json:"name"`
	DateKey   string    `gorm:"column:date_key;index" json:"date_key"`
	Price     *float64  `gorm:"column:price" json:"price"`
	LogoURL   string    `gorm:"column:logo_url" json:"logo_url"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by DailyCompany to `daily_companies`
func (DailyCompany) TableName() string {
	return "daily_companies"
}
