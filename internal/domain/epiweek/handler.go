package epiweek

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/weeks", h.ListWeeks)
	api.GET("/weeks/current", h.CurrentWeek)
	api.GET("/weeks/:year/:week", h.GetWeek)
}

// weekResponse augments the stored week with its derived positivity rate.
type weekResponse struct {
	*Week
	TasaPositividad float64 `json:"tasa_positividad"`
}

func toResponse(w *Week) weekResponse {
	return weekResponse{Week: w, TasaPositividad: w.PositivityRate()}
}

func (h *Handler) GetWeek(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	number, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid week")
	}
	w, err := h.svc.Get(c.Request().Context(), year, number)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "week not found")
	}
	return c.JSON(http.StatusOK, toResponse(w))
}

func (h *Handler) CurrentWeek(c echo.Context) error {
	w, err := h.svc.Resolve(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toResponse(w))
}

func (h *Handler) ListWeeks(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "year query parameter is required")
	}
	weeks, err := h.svc.ListByYear(c.Request().Context(), year)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]weekResponse, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, toResponse(w))
	}
	return c.JSON(http.StatusOK, out)
}
