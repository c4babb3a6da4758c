package lead

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for leads.
type Repository interface {
	Create(ctx context.Context, l *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	Update(ctx context.Context, l *Lead) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Lead, int, error)
}
