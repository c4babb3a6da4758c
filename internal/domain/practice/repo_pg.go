package practice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

const practiceCols = `id, name, zip, lat, lng, radius_miles, timezone, status,
	phone, email, created_at, updated_at`

func (r *repoPG) scanPractice(row pgx.Row) (*Practice, error) {
	var p Practice
	err := row.Scan(&p.ID, &p.Name, &p.Zip, &p.Lat, &p.Lng, &p.RadiusMiles, &p.Timezone, &p.Status,
		&p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Practice) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practice (id, name, zip, lat, lng, radius_miles, timezone, status, phone, email)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Name, p.Zip, p.Lat, p.Lng, p.RadiusMiles, p.Timezone, p.Status, p.Phone, p.Email)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return r.scanPractice(r.conn(ctx).QueryRow(ctx, `SELECT `+practiceCols+` FROM practice WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Practice) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE practice SET name=$2, zip=$3, lat=$4, lng=$5, radius_miles=$6, timezone=$7,
			status=$8, phone=$9, email=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Zip, p.Lat, p.Lng, p.RadiusMiles, p.Timezone,
		p.Status, p.Phone, p.Email)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM practice WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Practice, int, error) {
	query := `SELECT ` + practiceCols + ` FROM practice WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM practice WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["zip"]; ok {
		query += fmt.Sprintf(` AND zip = $%d`, idx)
		countQuery += fmt.Sprintf(` AND zip = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Practice
	for rows.Next() {
		p, err := r.scanPractice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) ListActive(ctx context.Context) ([]*Practice, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+practiceCols+` FROM practice WHERE status = 'active' ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Practice
	for rows.Next() {
		p, err := r.scanPractice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}
