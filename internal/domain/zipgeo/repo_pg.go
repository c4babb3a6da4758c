package zipgeo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medroute/medroute/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const zipCols = `zip, lat, lng, city, state, updated_at`

func (r *repoPG) scanZip(row pgx.Row) (*ZipGeo, error) {
	var z ZipGeo
	err := row.Scan(&z.Zip, &z.Lat, &z.Lng, &z.City, &z.State, &z.UpdatedAt)
	return &z, err
}

func (r *repoPG) Get(ctx context.Context, zip string) (*ZipGeo, error) {
	return r.scanZip(r.conn(ctx).QueryRow(ctx, `SELECT `+zipCols+` FROM zip_geo WHERE zip = $1`, zip))
}

func (r *repoPG) Upsert(ctx context.Context, z *ZipGeo) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO zip_geo (zip, lat, lng, city, state)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (zip) DO UPDATE SET
			lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			city = EXCLUDED.city, state = EXCLUDED.state, updated_at = NOW()`,
		z.Zip, z.Lat, z.Lng, z.City, z.State)
	return err
}

func (r *repoPG) UpsertBatch(ctx context.Context, zs []*ZipGeo) (int, error) {
	batch := &pgx.Batch{}
	for _, z := range zs {
		batch.Queue(`
			INSERT INTO zip_geo (zip, lat, lng, city, state)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (zip) DO UPDATE SET
				lat = EXCLUDED.lat, lng = EXCLUDED.lng,
				city = EXCLUDED.city, state = EXCLUDED.state, updated_at = NOW()`,
			z.Zip, z.Lat, z.Lng, z.City, z.State)
	}

	tx := db.TxFromContext(ctx)
	var br pgx.BatchResults
	if tx != nil {
		br = tx.SendBatch(ctx, batch)
	} else {
		br = r.pool.SendBatch(ctx, batch)
	}
	defer br.Close()

	count := 0
	for range zs {
		if _, err := br.Exec(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM zip_geo`).Scan(&total)
	return total, err
}
