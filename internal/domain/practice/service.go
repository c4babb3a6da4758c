package practice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	practices Repository
}

func NewService(practices Repository) *Service {
	return &Service{practices: practices}
}

var validStatuses = map[string]bool{
	StatusActive: true, StatusPaused: true,
}

func (s *Service) validate(p *Practice) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Zip == "" {
		return fmt.Errorf("zip is required")
	}
	if (p.Lat == nil) != (p.Lng == nil) {
		return fmt.Errorf("lat and lng must be set together")
	}
	if p.Lat != nil && (*p.Lat < -90 || *p.Lat > 90) {
		return fmt.Errorf("lat must be between -90 and 90")
	}
	if p.Lng != nil && (*p.Lng < -180 || *p.Lng > 180) {
		return fmt.Errorf("lng must be between -180 and 180")
	}
	if p.RadiusMiles < 0 {
		return fmt.Errorf("radius_miles must be non-negative")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid practice status: %s", p.Status)
	}
	if p.Timezone == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %s", p.Timezone)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Practice) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.practices.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return s.practices.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Practice) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.practices.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.practices.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Practice, int, error) {
	return s.practices.List(ctx, params, limit, offset)
}

func (s *Service) ListActive(ctx context.Context) ([]*Practice, error) {
	return s.practices.ListActive(ctx)
}
