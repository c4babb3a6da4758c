package lead

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medroute/medroute/internal/domain/practice"
	"github.com/medroute/medroute/internal/domain/routing"
)

// ErrNotInReview is returned when a manual assignment targets a lead that is
// not waiting in the review queue.
var ErrNotInReview = errors.New("lead is not in review")

// Router turns a ZIP code into a recorded routing decision.
type Router interface {
	Route(ctx context.Context, zip string, leadID *uuid.UUID) (*routing.Decision, error)
}

// PracticeGetter fetches a practice for manual assignment checks.
type PracticeGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*practice.Practice, error)
}

type Service struct {
	leads     Repository
	router    Router
	practices PracticeGetter
}

func NewService(leads Repository, router Router, practices PracticeGetter) *Service {
	return &Service{leads: leads, router: router, practices: practices}
}

// Create stores a new lead and routes it immediately. An assigned outcome
// attaches the practice; any designation outcome parks the lead in review
// with the routing reason attached for the coordinator.
func (s *Service) Create(ctx context.Context, l *Lead) error {
	if l.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if l.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if l.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if l.Zip == "" {
		return fmt.Errorf("zip is required")
	}

	l.ID = uuid.New()
	l.Status = StatusNew
	if err := s.leads.Create(ctx, l); err != nil {
		return err
	}

	d, err := s.router.Route(ctx, l.Zip, &l.ID)
	if err != nil {
		// The lead is saved; routing failed. Park it for a human rather
		// than losing the intake.
		reason := fmt.Sprintf("routing failed: %v", err)
		l.Status = StatusReview
		l.ReviewReason = &reason
		return s.leads.Update(ctx, l)
	}

	l.RoutingDecisionID = &d.ID
	if d.Outcome == routing.OutcomeAssigned {
		l.Status = StatusAssigned
		l.PracticeID = d.PracticeID
	} else {
		l.Status = StatusReview
		detail := d.Detail
		l.ReviewReason = &detail
	}
	return s.leads.Update(ctx, l)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.leads.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Lead, int, error) {
	return s.leads.List(ctx, params, limit, offset)
}

// Assign resolves a review-queue lead to a practice chosen by a coordinator.
func (s *Service) Assign(ctx context.Context, leadID, practiceID uuid.UUID) (*Lead, error) {
	l, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusReview {
		return nil, ErrNotInReview
	}
	if _, err := s.practices.GetByID(ctx, practiceID); err != nil {
		return nil, fmt.Errorf("practice %s: %w", practiceID, err)
	}

	l.Status = StatusAssigned
	l.PracticeID = &practiceID
	l.ReviewReason = nil
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

var validStatuses = map[string]bool{
	StatusNew: true, StatusAssigned: true, StatusReview: true,
	StatusBooked: true, StatusClosed: true,
}

// UpdateStatus moves a lead to a new lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Lead, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid lead status: %s", status)
	}
	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Status = status
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}
