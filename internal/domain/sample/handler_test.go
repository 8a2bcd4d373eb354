package sample

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postJSON(t *testing.T, h echo.HandlerFunc, body string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return h(e.NewContext(req, rec))
}

const validBody = `{
	"numero_examen": "LNP-2024-0002",
	"record_id": "7b0d7fc0-63c8-4b5f-9a3e-2f1f6f8f1a11",
	"facility_id": "9c2a4e44-1111-4222-8333-444455556666",
	"fecha_examen": "2024-06-12T00:00:00Z",
	"consistencia": "FOR",
	"moco": "N",
	"sangre_macroscopica": "NO",
	"parasites": {}
}`

func TestCreateSampleHandler_ValidationIs400(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	body := strings.Replace(validBody, `"FOR"`, `"DUR"`, 1)
	err := postJSON(t, h.CreateSample, body)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid consistency, got %v", err)
	}
}

func TestCreateSampleHandler_StorageFailureIs500(t *testing.T) {
	svc := NewService(newMockRepo(), newMockWeeks(), allowAll{}, allowAll{}, nil,
		passthroughTx{fail: true}, zerolog.Nop())
	h := NewHandler(svc)

	err := postJSON(t, h.CreateSample, validBody)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for transaction failure, got %v", err)
	}
}

func TestUpdateSampleHandler_UnknownIs404(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/samples/"+uuid.NewString(), strings.NewReader(validBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.UpdateSample(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown sample, got %v", err)
	}
}
