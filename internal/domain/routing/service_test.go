package routing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medroute/medroute/internal/domain/practice"
	"github.com/medroute/medroute/internal/domain/zipgeo"
	"github.com/medroute/medroute/internal/platform/geo"
)

type mockZipLookup struct {
	points map[string]geo.Point
}

func (m *mockZipLookup) Lookup(_ context.Context, zip string) (geo.Point, error) {
	pt, ok := m.points[zip]
	if !ok {
		return geo.Point{}, zipgeo.ErrZipNotFound
	}
	return pt, nil
}

type mockDirectory struct {
	practices []*practice.Practice
	err       error
}

func (m *mockDirectory) ListActive(_ context.Context) ([]*practice.Practice, error) {
	return m.practices, m.err
}

type mockDecisionRepo struct {
	decisions map[uuid.UUID]*Decision
}

func newMockDecisionRepo() *mockDecisionRepo {
	return &mockDecisionRepo{decisions: make(map[uuid.UUID]*Decision)}
}

func (m *mockDecisionRepo) Create(_ context.Context, d *Decision) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.decisions[d.ID] = d
	return nil
}

func (m *mockDecisionRepo) GetByID(_ context.Context, id uuid.UUID) (*Decision, error) {
	d, ok := m.decisions[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockDecisionRepo) List(_ context.Context, _ map[string]string, limit, offset int) ([]*Decision, int, error) {
	var result []*Decision
	for _, d := range m.decisions {
		result = append(result, d)
	}
	return result, len(result), nil
}

func TestRoute_AssignsAndRecords(t *testing.T) {
	p := testPractice("Atlanta Clinic", 33.7, -84.3, 10)
	zips := &mockZipLookup{points: map[string]geo.Point{"30305": {Lat: 33.8, Lng: -84.3}}}
	repo := newMockDecisionRepo()
	svc := NewService(zips, &mockDirectory{practices: []*practice.Practice{p}}, repo, testCfg)

	leadID := uuid.New()
	d, err := svc.Route(context.Background(), "30305", &leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Outcome != OutcomeAssigned {
		t.Errorf("expected assigned, got %s", d.Outcome)
	}
	if d.PracticeID == nil || *d.PracticeID != p.ID {
		t.Error("expected assignment to the practice")
	}
	if len(repo.decisions) != 1 {
		t.Error("expected decision to be persisted")
	}
	if d.LeadID == nil || *d.LeadID != leadID {
		t.Error("expected lead id on decision")
	}
}

func TestRoute_ZipNotFoundIsOutcome(t *testing.T) {
	zips := &mockZipLookup{points: map[string]geo.Point{}}
	repo := newMockDecisionRepo()
	svc := NewService(zips, &mockDirectory{}, repo, testCfg)

	d, err := svc.Route(context.Background(), "99999", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Reason != ReasonZipNotFound {
		t.Errorf("expected zip_not_found outcome, got %s", d.Reason)
	}
	if len(repo.decisions) != 1 {
		t.Error("expected zip_not_found decision to be persisted too")
	}
}

func TestRoute_EmptyZipIsError(t *testing.T) {
	svc := NewService(&mockZipLookup{}, &mockDirectory{}, newMockDecisionRepo(), testCfg)

	if _, err := svc.Route(context.Background(), "", nil); err == nil {
		t.Fatal("expected required-field error")
	}
}

func TestRoute_MalformedZipIsError(t *testing.T) {
	svc := NewService(&mockZipLookup{}, &mockDirectory{}, newMockDecisionRepo(), testCfg)

	_, err := svc.Route(context.Background(), "not-a-zip", nil)
	if !errors.Is(err, zipgeo.ErrInvalidZip) {
		t.Fatalf("expected ErrInvalidZip, got %v", err)
	}
}

func TestRoute_DirectoryFailurePropagates(t *testing.T) {
	zips := &mockZipLookup{points: map[string]geo.Point{"30305": {Lat: 33.8, Lng: -84.3}}}
	dir := &mockDirectory{err: fmt.Errorf("db down")}
	svc := NewService(zips, dir, newMockDecisionRepo(), testCfg)

	if _, err := svc.Route(context.Background(), "30305", nil); err == nil {
		t.Fatal("expected directory failure to propagate")
	}
}
