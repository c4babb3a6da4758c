package routing

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists routing decisions for audit.
type Repository interface {
	Create(ctx context.Context, d *Decision) error
	GetByID(ctx context.Context, id uuid.UUID) (*Decision, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Decision, int, error)
}
