package sample

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lnp/vigilancia/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/samples", h.SearchSamples)
	api.GET("/samples/:id", h.GetSample)
	api.POST("/samples", h.CreateSample)
	api.PUT("/samples/:id", h.UpdateSample)
	api.DELETE("/samples/:id", h.DeleteSample)
}

// sampleResponse is the read model: the stored sample plus its ordered
// findings and the legacy-flag discrepancy indicator.
type sampleResponse struct {
	*Sample
	Findings       []Finding `json:"findings"`
	LegacyMismatch bool      `json:"legacy_mismatch"`
}

// writeResponse additionally reports non-fatal alert evaluation failures.
type writeResponse struct {
	sampleResponse
	AlertErrors []string `json:"alert_errors,omitempty"`
}

func toResponse(s *Sample) sampleResponse {
	return sampleResponse{Sample: s, Findings: s.Findings(), LegacyMismatch: s.LegacyMismatch()}
}

func toWriteResponse(s *Sample, alertErrs []error) writeResponse {
	resp := writeResponse{sampleResponse: toResponse(s)}
	for _, err := range alertErrs {
		resp.AlertErrors = append(resp.AlertErrors, err.Error())
	}
	return resp
}

// httpError maps service errors: rejected payloads are the client's
// fault, everything else is ours.
func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "sample not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store sample")
	}
}

func (h *Handler) CreateSample(c echo.Context) error {
	var s Sample
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	alertErrs, err := h.svc.CreateSample(c.Request().Context(), &s)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toWriteResponse(&s, alertErrs))
}

func (h *Handler) UpdateSample(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var s Sample
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.ID = id
	alertErrs, err := h.svc.UpdateSample(c.Request().Context(), &s)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toWriteResponse(&s, alertErrs))
}

func (h *Handler) GetSample(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.GetSample(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sample not found")
	}
	return c.JSON(http.StatusOK, toResponse(s))
}

func (h *Handler) SearchSamples(c echo.Context) error {
	pg := pagination.FromContext(c)
	q := SearchQuery{
		Result: c.QueryParam("result"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}
	if rid := c.QueryParam("record_id"); rid != "" {
		id, err := uuid.Parse(rid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid record_id")
		}
		q.RecordID = id
	}
	if fid := c.QueryParam("facility_id"); fid != "" {
		id, err := uuid.Parse(fid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
		}
		q.FacilityID = id
	}
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		q.From = t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		q.To = t
	}
	items, total, err := h.svc.SearchSamples(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]sampleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toResponse(s))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteSample(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSample(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
