package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/OpenReservation/reservation-service/internal/dto"
	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/OpenReservation/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	captchaTokenHeader = "X-Captcha-Token"
	captchaKindHeader  = "X-Captcha-Kind"
)

type ReservationHandler struct {
	svc     service.ReservationService
	catalog *service.Catalog
	logger  *zap.Logger
}

func NewReservationHandler(svc service.ReservationService, catalog *service.Catalog, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, catalog: catalog, logger: logger}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/places", h.ListPlaces)
	api.GET("/places/:id/periods", h.ListPeriods)
	api.GET("/places/:id/availability", h.GetAvailability)
	api.GET("/availability/check", h.CheckDate)

	api.POST("/reservations", h.CreateReservation)
	api.GET("/reservations", h.ListReservations)
	api.POST("/reservations/lookup", h.LookupReservation)
	api.POST("/reservations/:id/approve", h.ApproveReservation)
	api.POST("/reservations/:id/reject", h.RejectReservation)
	api.POST("/reservations/:id/cancel", h.CancelReservation)
}

func (h *ReservationHandler) ListPlaces(c echo.Context) error {
	places, err := h.catalog.ListActivePlaces(c.Request().Context())
	if err != nil {
		return internalError(err)
	}
	resp := make([]dto.PlaceResponse, len(places))
	for i := range places {
		resp[i] = dto.ToPlaceResponse(&places[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) ListPeriods(c echo.Context) error {
	periods, err := h.catalog.ListPeriods(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError(err)
	}
	resp := make([]dto.PeriodResponse, len(periods))
	for i := range periods {
		resp[i] = dto.ToPeriodResponse(&periods[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) GetAvailability(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	availability, err := h.svc.GetAvailability(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, dto.ToAvailabilityResponse(availability))
}

func (h *ReservationHandler) CheckDate(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	ok, reason := h.svc.CheckDateAvailable(date)
	return c.JSON(http.StatusOK, dto.CheckDateResponse{OK: ok, Reason: reason})
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	reservation, err := h.svc.SubmitReservation(
		c.Request().Context(),
		service.ReservationRequest{
			PlaceID:         req.PlaceID,
			Date:            date,
			PeriodID:        req.PeriodID,
			PersonName:      req.PersonName,
			PersonPhone:     req.PersonPhone,
			ActivityContent: req.ActivityContent,
		},
		c.Request().Header.Get(captchaKindHeader),
		c.Request().Header.Get(captchaTokenHeader),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotTaken):
			return c.JSON(http.StatusConflict, dto.SubmitReservationResponse{OK: false, Reason: "Conflict"})
		case isValidationError(err), errors.Is(err, service.ErrCaptchaRejected):
			return c.JSON(http.StatusBadRequest, dto.SubmitReservationResponse{OK: false, Reason: err.Error()})
		default:
			h.logger.Error("submit reservation failed", zap.Error(err))
			return internalError(err)
		}
	}

	return c.JSON(http.StatusCreated, dto.SubmitReservationResponse{OK: true, ReservationID: reservation.ID})
}

func (h *ReservationHandler) ListReservations(c echo.Context) error {
	var filter repository.ReservationFilter
	if s := c.QueryParam("date"); s != "" {
		date, err := parseDate(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		filter.Date = &date
	}
	filter.Phone = c.QueryParam("phone")
	filter.PlaceID = c.QueryParam("place_id")
	if s := c.QueryParam("status"); s != "" {
		status := models.ReservationStatus(s)
		filter.Status = &status
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	items, total, err := h.svc.List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return internalError(err)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	resp := dto.ReservationListResponse{
		Items:    make([]dto.ReservationResponse, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range items {
		resp.Items[i] = dto.ToReservationResponse(&items[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) LookupReservation(c echo.Context) error {
	var req dto.LookupReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID == "" || req.Phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id and phone are required")
	}

	reservation, err := h.svc.Lookup(c.Request().Context(), req.ID, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return internalError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ApproveReservation(c echo.Context) error {
	return h.applyTransition(c, h.svc.Approve)
}

func (h *ReservationHandler) RejectReservation(c echo.Context) error {
	return h.applyTransition(c, h.svc.Reject)
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	return h.applyTransition(c, h.svc.Cancel)
}

func (h *ReservationHandler) applyTransition(c echo.Context, op func(ctx context.Context, id string) (*models.Reservation, error)) error {
	reservation, err := op(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return internalError(err)
		}
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		service.ErrDateInPast,
		service.ErrSameDayClosed,
		service.ErrBeyondHorizon,
		service.ErrDateBlackedOut,
		service.ErrPlaceNotBookable,
		service.ErrPeriodNotInCatalog,
		service.ErrInvalidPhone,
		service.ErrMissingFields,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func internalError(err error) error {
	// Infrastructure details stay server-side; the caller only learns
	// the request did not commit.
	return echo.NewHTTPError(http.StatusInternalServerError, "please retry")
}
