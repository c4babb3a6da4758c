package lead

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

const leadCols = `id, first_name, last_name, phone, email, zip, source, status,
	practice_id, routing_decision_id, review_reason, notes, created_at, updated_at`

func (r *repoPG) scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Phone, &l.Email, &l.Zip, &l.Source, &l.Status,
		&l.PracticeID, &l.RoutingDecisionID, &l.ReviewReason, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, l *Lead) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lead (id, first_name, last_name, phone, email, zip, source, status,
			practice_id, routing_decision_id, review_reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		l.ID, l.FirstName, l.LastName, l.Phone, l.Email, l.Zip, l.Source, l.Status,
		l.PracticeID, l.RoutingDecisionID, l.ReviewReason, l.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return r.scanLead(r.conn(ctx).QueryRow(ctx, `SELECT `+leadCols+` FROM lead WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, l *Lead) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lead SET first_name=$2, last_name=$3, phone=$4, email=$5, zip=$6, source=$7,
			status=$8, practice_id=$9, routing_decision_id=$10, review_reason=$11, notes=$12,
			updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.FirstName, l.LastName, l.Phone, l.Email, l.Zip, l.Source,
		l.Status, l.PracticeID, l.RoutingDecisionID, l.ReviewReason, l.Notes)
	return err
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Lead, int, error) {
	query := `SELECT ` + leadCols + ` FROM lead WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM lead WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["practice"]; ok {
		query += fmt.Sprintf(` AND practice_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND practice_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["zip"]; ok {
		query += fmt.Sprintf(` AND zip = $%d`, idx)
		countQuery += fmt.Sprintf(` AND zip = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["phone"]; ok {
		query += fmt.Sprintf(` AND phone = $%d`, idx)
		countQuery += fmt.Sprintf(` AND phone = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Lead
	for rows.Next() {
		l, err := r.scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, nil
}
