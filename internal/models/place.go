package models

import "fmt"

type PlaceStatus string

const (
	PlaceActive   PlaceStatus = "active"
	PlaceInactive PlaceStatus = "inactive"
	// PlaceDeleted is a soft delete. Rows are never removed so historical
	// reservations keep a valid place reference.
	PlaceDeleted PlaceStatus = "deleted"
)

type Place struct {
	ID     string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name   string      `gorm:"not null" json:"name"`
	Index  int         `gorm:"not null;default:0" json:"index"`
	Status PlaceStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

func (p *Place) Bookable() bool {
	return p.Status == PlaceActive
}

// Period is one bookable time-slot of a day. PlaceID is empty for periods in
// the global catalog shared by every place.
type Period struct {
	ID          string  `gorm:"type:varchar(64);primaryKey" json:"id"`
	PlaceID     *string `gorm:"type:varchar(64);index" json:"place_id,omitempty"`
	Label       string  `gorm:"not null" json:"label"`
	StartMinute int     `gorm:"not null" json:"start_minute"`
	EndMinute   int     `gorm:"not null" json:"end_minute"`
	Index       int     `gorm:"not null;default:0" json:"index"`
}

// TimeRange renders the period as "HH:MM-HH:MM" for display.
func (p *Period) TimeRange() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		p.StartMinute/60, p.StartMinute%60, p.EndMinute/60, p.EndMinute%60)
}
