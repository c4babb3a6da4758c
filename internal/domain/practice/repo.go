package practice

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for practices.
type Repository interface {
	Create(ctx context.Context, p *Practice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practice, error)
	Update(ctx context.Context, p *Practice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Practice, int, error)
	ListActive(ctx context.Context) ([]*Practice, error)
}
