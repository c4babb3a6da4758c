package zipgeo

import "context"

// Repository defines data access for ZIP centroids.
type Repository interface {
	Get(ctx context.Context, zip string) (*ZipGeo, error)
	Upsert(ctx context.Context, z *ZipGeo) error
	UpsertBatch(ctx context.Context, zs []*ZipGeo) (int, error)
	Count(ctx context.Context) (int, error)
}
