package dto

import (
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/service"
)

type ReservationResponse struct {
	ID              string                   `json:"id"`
	PlaceID         string                   `json:"place_id"`
	Date            string                   `json:"date"`
	PeriodID        string                   `json:"period_id"`
	PersonName      string                   `json:"person_name"`
	PersonPhone     string                   `json:"person_phone"`
	ActivityContent string                   `json:"activity_content"`
	Status          models.ReservationStatus `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
}

type SubmitReservationResponse struct {
	OK            bool   `json:"ok"`
	ReservationID string `json:"reservation_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type CheckDateResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type PlaceResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

type PeriodResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	TimeRange string `json:"time_range"`
	Index     int    `json:"index"`
}

type PeriodAvailabilityResponse struct {
	PeriodID  string `json:"period_id"`
	Label     string `json:"label"`
	TimeRange string `json:"time_range"`
	Status    string `json:"status"`
}

type ReservationListResponse struct {
	Items    []ReservationResponse `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		PlaceID:         r.PlaceID,
		Date:            models.DateKey(r.ForDate),
		PeriodID:        r.PeriodID,
		PersonName:      r.PersonName,
		PersonPhone:     r.PersonPhone,
		ActivityContent: r.ActivityContent,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
	}
}

func ToPlaceResponse(p *models.Place) PlaceResponse {
	return PlaceResponse{ID: p.ID, Name: p.Name, Index: p.Index}
}

func ToPeriodResponse(p *models.Period) PeriodResponse {
	return PeriodResponse{ID: p.ID, Label: p.Label, TimeRange: p.TimeRange(), Index: p.Index}
}

func ToAvailabilityResponse(in []service.PeriodAvailability) []PeriodAvailabilityResponse {
	out := make([]PeriodAvailabilityResponse, len(in))
	for i, a := range in {
		out[i] = PeriodAvailabilityResponse{
			PeriodID:  a.Period.ID,
			Label:     a.Period.Label,
			TimeRange: a.Period.TimeRange(),
			Status:    string(a.Status),
		}
	}
	return out
}
