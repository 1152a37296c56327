package model

import "time"

// LedgerSnapshot is the durable form of the whole contract state: one JSON
// blob per row, with a version counter for compare-and-swap saves. In
// practice the table holds a single row.
type LedgerSnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Data      []byte    `gorm:"not null" json:"-"`
	Version   uint      `gorm:"not null;default:1" json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
