package models

import "time"

type ReservationStatus string

const (
	StatusSubmitted ReservationStatus = "submitted"
	StatusApproved  ReservationStatus = "approved"
	StatusRejected  ReservationStatus = "rejected"
	StatusCancelled ReservationStatus = "cancelled"
)

// IsActive reports whether this status occupies a slot. Rejected and
// cancelled reservations free the slot immediately.
func (s ReservationStatus) IsActive() bool {
	return s == StatusSubmitted || s == StatusApproved
}

type Reservation struct {
	// ID is a random UUID. Together with the contact phone it acts as the
	// lookup credential for the check flow, so it must be unpredictable.
	ID              string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	PlaceID         string            `gorm:"type:varchar(64);not null;index:idx_reservation_slot,priority:1" json:"place_id"`
	ForDate         time.Time         `gorm:"type:date;not null;index:idx_reservation_slot,priority:2" json:"for_date"`
	PeriodID        string            `gorm:"type:varchar(64);not null;index:idx_reservation_slot,priority:3" json:"period_id"`
	PersonName      string            `gorm:"not null" json:"person_name"`
	PersonPhone     string            `gorm:"not null;index" json:"person_phone"`
	ActivityContent string            `gorm:"not null" json:"activity_content"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Place  *Place  `gorm:"foreignKey:PlaceID" json:"place,omitempty"`
	Period *Period `gorm:"foreignKey:PeriodID" json:"period,omitempty"`
}

// DateOnly normalizes t to midnight UTC; ForDate values are calendar dates.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a calendar date the way slot keys and blackout lists do.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
