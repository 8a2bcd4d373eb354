package surveillance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// Handler exposes the surveillance dashboards, the sample export and the
// reporting measures.
type Handler struct {
	queries *Queries
}

func NewHandler(queries *Queries) *Handler {
	return &Handler{queries: queries}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/surveillance/summary", h.NationalSummary)
	g.GET("/surveillance/regions", h.RegionRanking)
	g.GET("/surveillance/parasites", h.TopParasites)
	g.GET("/surveillance/facilities", h.TopFacilities)
	g.GET("/surveillance/facilities/:id", h.FacilitySummary)
	g.GET("/samples/:id/export", h.ExportSample)
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

func parseDateRange(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		}
		to = t
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, echo.NewHTTPError(http.StatusBadRequest, "to date precedes from date")
	}
	return from, to, nil
}

func (h *Handler) NationalSummary(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return err
	}
	summary, err := h.queries.NationalSummary(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute summary")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) RegionRanking(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return err
	}
	items, err := h.queries.RegionRanking(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rank regions")
	}
	if items == nil {
		items = []*RegionStanding{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) TopParasites(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return err
	}
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		n, err := parseLimit(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	items, err := h.queries.TopParasites(c.Request().Context(), from, to, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count parasites")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) TopFacilities(c echo.Context) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return err
	}
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		n, err := parseLimit(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	items, err := h.queries.TopFacilities(c.Request().Context(), from, to, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rank facilities")
	}
	if items == nil {
		items = []*FacilityActivity{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) FacilitySummary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility ID")
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return err
	}
	summary, err := h.queries.FacilitySummary(c.Request().Context(), id, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute summary")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) ExportSample(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sample ID")
	}
	export, err := h.queries.ExportSample(c.Request().Context(), id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to export sample")
	}
	return c.JSON(http.StatusOK, export)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"measures": PredefinedMeasures,
		"total":    len(PredefinedMeasures),
	})
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	report, err := h.queries.EvaluateMeasure(c.Request().Context(), measure)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to evaluate measure")
	}
	return c.JSON(http.StatusOK, report)
}

func parseLimit(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 100 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return n, nil
}
