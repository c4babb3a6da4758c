package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medroute/medroute/internal/domain/practice"
	"github.com/medroute/medroute/internal/domain/zipgeo"
	"github.com/medroute/medroute/internal/platform/geo"
)

// ZipLookup resolves a ZIP code to its centroid.
type ZipLookup interface {
	Lookup(ctx context.Context, zip string) (geo.Point, error)
}

// PracticeDirectory lists the practices eligible for routing.
type PracticeDirectory interface {
	ListActive(ctx context.Context) ([]*practice.Practice, error)
}

type Service struct {
	zips      ZipLookup
	practices PracticeDirectory
	decisions Repository
	cfg       Config
}

func NewService(zips ZipLookup, practices PracticeDirectory, decisions Repository, cfg Config) *Service {
	return &Service{zips: zips, practices: practices, decisions: decisions, cfg: cfg}
}

// Route resolves a ZIP code to a routing outcome and records the decision.
// A missing or malformed ZIP is a validation error to the caller; a ZIP with
// no known centroid is the zip_not_found designation outcome.
func (s *Service) Route(ctx context.Context, zip string, leadID *uuid.UUID) (*Decision, error) {
	if zip == "" {
		return nil, fmt.Errorf("zip is required")
	}
	norm, err := zipgeo.Normalize(zip)
	if err != nil {
		return nil, fmt.Errorf("zip %q: %w", zip, err)
	}

	var origin *geo.Point
	pt, err := s.zips.Lookup(ctx, norm)
	switch {
	case err == nil:
		origin = &pt
	case errors.Is(err, zipgeo.ErrZipNotFound):
		// handled by the engine as a designation outcome
	default:
		return nil, fmt.Errorf("geocode zip %s: %w", norm, err)
	}

	practices, err := s.practices.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list practices: %w", err)
	}

	result := Resolve(norm, origin, practices, s.cfg)

	d := &Decision{
		LeadID:     leadID,
		Zip:        norm,
		Outcome:    result.Outcome,
		PracticeID: result.PracticeID,
		Reason:     result.Reason,
		Detail:     result.Detail,
		Snapshot:   result.Snapshot,
	}
	if err := s.decisions.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("record routing decision: %w", err)
	}
	return d, nil
}

func (s *Service) GetDecision(ctx context.Context, id uuid.UUID) (*Decision, error) {
	return s.decisions.GetByID(ctx, id)
}

func (s *Service) ListDecisions(ctx context.Context, params map[string]string, limit, offset int) ([]*Decision, int, error) {
	return s.decisions.List(ctx, params, limit, offset)
}
