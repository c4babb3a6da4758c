package routing

import (
	"context"
	"encoding/json"
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

const decisionCols = `id, lead_id, zip, outcome, practice_id, reason, detail, snapshot, created_at`

func (r *repoPG) scanDecision(row pgx.Row) (*Decision, error) {
	var d Decision
	var snap []byte
	err := row.Scan(&d.ID, &d.LeadID, &d.Zip, &d.Outcome, &d.PracticeID, &d.Reason, &d.Detail, &snap, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snap, &d.Snapshot); err != nil {
		return nil, fmt.Errorf("decode routing snapshot: %w", err)
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Decision) error {
	d.ID = uuid.New()
	snap, err := json.Marshal(d.Snapshot)
	if err != nil {
		return fmt.Errorf("encode routing snapshot: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO routing_decision (id, lead_id, zip, outcome, practice_id, reason, detail, snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.LeadID, d.Zip, d.Outcome, d.PracticeID, d.Reason, d.Detail, snap)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Decision, error) {
	return r.scanDecision(r.conn(ctx).QueryRow(ctx, `SELECT `+decisionCols+` FROM routing_decision WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Decision, int, error) {
	query := `SELECT ` + decisionCols + ` FROM routing_decision WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM routing_decision WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["outcome"]; ok {
		query += fmt.Sprintf(` AND outcome = $%d`, idx)
		countQuery += fmt.Sprintf(` AND outcome = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["reason"]; ok {
		query += fmt.Sprintf(` AND reason = $%d`, idx)
		countQuery += fmt.Sprintf(` AND reason = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["zip"]; ok {
		query += fmt.Sprintf(` AND zip = $%d`, idx)
		countQuery += fmt.Sprintf(` AND zip = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["lead"]; ok {
		query += fmt.Sprintf(` AND lead_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND lead_id = $%d`, idx)
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
	var items []*Decision
	for rows.Next() {
		d, err := r.scanDecision(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
