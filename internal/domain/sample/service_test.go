package sample

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lnp/vigilancia/internal/domain/epiweek"
)

type mockRepo struct {
	samples map[uuid.UUID]*Sample
}

func newMockRepo() *mockRepo {
	return &mockRepo{samples: make(map[uuid.UUID]*Sample)}
}

func (m *mockRepo) Create(_ context.Context, s *Sample) error {
	s.ID = uuid.New()
	cp := *s
	m.samples[s.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, s *Sample) error {
	if _, ok := m.samples[s.ID]; !ok {
		return fmt.Errorf("sample not found")
	}
	cp := *s
	m.samples[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Sample, error) {
	s, ok := m.samples[id]
	if !ok {
		return nil, fmt.Errorf("sample not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) GetByExamNumber(_ context.Context, examNumber string) (*Sample, error) {
	for _, s := range m.samples {
		if s.ExamNumber == examNumber {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("sample not found")
}

func (m *mockRepo) Search(_ context.Context, q SearchQuery) ([]*Sample, int, error) {
	var out []*Sample
	for _, s := range m.samples {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.samples[id]; !ok {
		return fmt.Errorf("sample not found")
	}
	delete(m.samples, id)
	return nil
}

type mockWeeks struct {
	weeks      map[string]*epiweek.Week
	recomputed []uuid.UUID
	failWeek   *uuid.UUID
}

func newMockWeeks() *mockWeeks {
	return &mockWeeks{weeks: make(map[string]*epiweek.Week)}
}

func (m *mockWeeks) Resolve(_ context.Context, date time.Time) (*epiweek.Week, error) {
	year, number := date.ISOWeek()
	k := fmt.Sprintf("%d-%d", year, number)
	if w, ok := m.weeks[k]; ok {
		return w, nil
	}
	start, end := epiweek.Bounds(date)
	w := &epiweek.Week{ID: uuid.New(), Year: year, Number: number, StartDate: start, EndDate: end}
	m.weeks[k] = w
	return w, nil
}

func (m *mockWeeks) Recompute(_ context.Context, id uuid.UUID) error {
	if m.failWeek != nil && *m.failWeek == id {
		return fmt.Errorf("recompute failed")
	}
	m.recomputed = append(m.recomputed, id)
	return nil
}

type allowAll struct{}

func (allowAll) FacilityExists(context.Context, uuid.UUID) error { return nil }
func (allowAll) RecordExists(context.Context, uuid.UUID) error   { return nil }

type mockDetector struct {
	calls [][]Finding
	errs  []error
}

func (m *mockDetector) OnPositiveSample(_ context.Context, _ *Sample, findings []Finding) []error {
	m.calls = append(m.calls, findings)
	return m.errs
}

// passthroughTx simulates db.TxRunner without a database: fn just runs and
// its error propagates.
type passthroughTx struct {
	fail bool
}

func (p passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.fail {
		return fmt.Errorf("begin failed")
	}
	return fn(ctx)
}

func newTestService() (*Service, *mockRepo, *mockWeeks, *mockDetector) {
	repo := newMockRepo()
	weeks := newMockWeeks()
	detector := &mockDetector{}
	svc := NewService(repo, weeks, allowAll{}, allowAll{}, detector, passthroughTx{}, zerolog.Nop())
	return svc, repo, weeks, detector
}

func validSample() *Sample {
	return &Sample{
		ExamNumber:   "LNP-2024-0001",
		RecordID:     uuid.New(),
		FacilityID:   uuid.New(),
		ExamDate:     time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Consistency:  ConsistencyFormed,
		Mucus:        MucusNone,
		VisibleBlood: BloodAbsent,
		Parasites:    map[string]string{},
	}
}

func TestCreateSample_Negative(t *testing.T) {
	svc, repo, weeks, detector := newTestService()

	s := validSample()
	alertErrs, err := svc.CreateSample(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alertErrs) != 0 {
		t.Errorf("unexpected alert errors: %v", alertErrs)
	}
	if s.Result != ResultNegative {
		t.Errorf("expected NEG, got %s", s.Result)
	}
	if s.WeekNumber != 24 || s.EpiYear != 2024 {
		t.Errorf("expected week 24/2024, got %d/%d", s.WeekNumber, s.EpiYear)
	}
	if len(repo.samples) != 1 {
		t.Errorf("expected 1 stored sample, got %d", len(repo.samples))
	}
	if len(weeks.recomputed) != 1 {
		t.Errorf("expected 1 recompute, got %d", len(weeks.recomputed))
	}
	if len(detector.calls) != 0 {
		t.Error("detector must not run for negative samples")
	}
}

func TestCreateSample_PositiveTriggersDetector(t *testing.T) {
	svc, _, _, detector := newTestService()

	s := validSample()
	s.Parasites = map[string]string{"giardia_intestinalis": "Q", "ascaris_lumbricoides": "H"}
	if _, err := svc.CreateSample(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Result != ResultPositive {
		t.Errorf("expected POS, got %s", s.Result)
	}
	if len(detector.calls) != 1 {
		t.Fatalf("expected 1 detector call, got %d", len(detector.calls))
	}
	findings := detector.calls[0]
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].FieldID != "giardia_intestinalis" {
		t.Errorf("expected catalog order, got %s first", findings[0].FieldID)
	}
}

func TestCreateSample_AlertErrorsDoNotFailWrite(t *testing.T) {
	svc, repo, _, detector := newTestService()
	detector.errs = []error{fmt.Errorf("rule lookup failed")}

	s := validSample()
	s.Parasites = map[string]string{"giardia_intestinalis": "Q"}
	alertErrs, err := svc.CreateSample(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alertErrs) != 1 {
		t.Errorf("expected 1 alert error, got %d", len(alertErrs))
	}
	if len(repo.samples) != 1 {
		t.Error("sample write must survive alert failures")
	}
}

func TestCreateSample_ValidationRejects(t *testing.T) {
	svc, repo, _, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*Sample)
	}{
		{"missing exam number", func(s *Sample) { s.ExamNumber = "" }},
		{"missing date", func(s *Sample) { s.ExamDate = time.Time{} }},
		{"bad consistency", func(s *Sample) { s.Consistency = "DUR" }},
		{"bad mucus", func(s *Sample) { s.Mucus = "X" }},
		{"bad blood", func(s *Sample) { s.VisibleBlood = "YES" }},
		{"bad kato-katz", func(s *Sample) { s.KatoKatz = "X" }},
		{"bad stage code", func(s *Sample) { s.Parasites = map[string]string{"taenia_spp": "L"} }},
		{"unknown field", func(s *Sample) { s.Parasites = map[string]string{"bogus": "H"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(s)
			_, err := svc.CreateSample(context.Background(), s)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(repo.samples) != 0 {
		t.Errorf("no sample should have been written, got %d", len(repo.samples))
	}
}

func TestCreateSample_DuplicateExamNumber(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.CreateSample(context.Background(), validSample()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateSample(context.Background(), validSample()); err == nil {
		t.Error("expected duplicate exam number to be rejected")
	}
}

func TestCreateSample_RecomputeFailureFailsWrite(t *testing.T) {
	svc, _, weeks, _ := newTestService()

	// Pre-resolve the bucket so we can mark it as failing.
	w, _ := weeks.Resolve(context.Background(), validSample().ExamDate)
	weeks.failWeek = &w.ID

	if _, err := svc.CreateSample(context.Background(), validSample()); err == nil {
		t.Error("expected recompute failure to fail the write")
	}
}

func TestUpdateSample_MoveBetweenWeeks(t *testing.T) {
	svc, repo, weeks, _ := newTestService()

	s := validSample()
	if _, err := svc.CreateSample(context.Background(), s); err != nil {
		t.Fatalf("create: %v", err)
	}
	oldWeekID := *s.WeekID
	weeks.recomputed = nil

	upd := *s
	upd.ExamDate = time.Date(2024, 6, 19, 0, 0, 0, 0, time.UTC) // next ISO week
	if _, err := svc.UpdateSample(context.Background(), &upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	if upd.WeekNumber != 25 {
		t.Errorf("expected week 25, got %d", upd.WeekNumber)
	}
	if len(weeks.recomputed) != 2 {
		t.Fatalf("expected both weeks recomputed, got %d", len(weeks.recomputed))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range weeks.recomputed {
		seen[id] = true
	}
	if !seen[oldWeekID] || !seen[*upd.WeekID] {
		t.Error("expected old and new week to be recomputed")
	}

	stored := repo.samples[s.ID]
	if *stored.WeekID == oldWeekID {
		t.Error("expected stored sample to reference the new week")
	}
}

func TestUpdateSample_SameWeekRecomputesOnce(t *testing.T) {
	svc, _, weeks, _ := newTestService()

	s := validSample()
	if _, err := svc.CreateSample(context.Background(), s); err != nil {
		t.Fatalf("create: %v", err)
	}
	weeks.recomputed = nil

	upd := *s
	upd.ExamDate = s.ExamDate.AddDate(0, 0, 1) // same ISO week
	if _, err := svc.UpdateSample(context.Background(), &upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(weeks.recomputed) != 1 {
		t.Errorf("expected a single recompute, got %d", len(weeks.recomputed))
	}
}

func TestUpdateSample_ImmutableFields(t *testing.T) {
	svc, repo, _, _ := newTestService()

	s := validSample()
	if _, err := svc.CreateSample(context.Background(), s); err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := *s
	upd.ExamNumber = "HACKED-01"
	upd.FacilityID = uuid.New()
	if _, err := svc.UpdateSample(context.Background(), &upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored := repo.samples[s.ID]
	if stored.ExamNumber != "LNP-2024-0001" {
		t.Errorf("exam number must be immutable, got %s", stored.ExamNumber)
	}
	if stored.FacilityID != s.FacilityID {
		t.Error("facility must be immutable")
	}
}

func TestDeleteSample_RecomputesWeek(t *testing.T) {
	svc, repo, weeks, _ := newTestService()

	s := validSample()
	if _, err := svc.CreateSample(context.Background(), s); err != nil {
		t.Fatalf("create: %v", err)
	}
	weeks.recomputed = nil

	if err := svc.DeleteSample(context.Background(), s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.samples) != 0 {
		t.Error("expected sample to be deleted")
	}
	if len(weeks.recomputed) != 1 || weeks.recomputed[0] != *s.WeekID {
		t.Error("expected the sample's week to be recomputed after delete")
	}
}

func TestCreateSample_TxFailureAborts(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockWeeks(), allowAll{}, allowAll{}, nil, passthroughTx{fail: true}, zerolog.Nop())

	if _, err := svc.CreateSample(context.Background(), validSample()); err == nil {
		t.Error("expected transaction failure to propagate")
	}
	if len(repo.samples) != 0 {
		t.Error("no sample should be visible after a failed transaction")
	}
}
