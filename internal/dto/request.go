package dto

type CreateReservationRequest struct {
	PlaceID         string `json:"place_id"`
	Date            string `json:"date"` // YYYY-MM-DD
	PeriodID        string `json:"period_id"`
	PersonName      string `json:"person_name"`
	PersonPhone     string `json:"person_phone"`
	ActivityContent string `json:"activity_content"`
}

type LookupReservationRequest struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
}
