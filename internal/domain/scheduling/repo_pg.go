package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medroute/medroute/internal/platform/db"
)

// =========== Block Repository ===========

type blockRepoPG struct{ pool *pgxpool.Pool }

func NewBlockRepoPG(pool *pgxpool.Pool) BlockRepository { return &blockRepoPG{pool: pool} }

func (r *blockRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const blockCols = `id, practice_id, day_of_week, start_minute, end_minute, block_type, created_at, updated_at`

func (r *blockRepoPG) scanBlock(row pgx.Row) (*AvailabilityBlock, error) {
	var b AvailabilityBlock
	err := row.Scan(&b.ID, &b.PracticeID, &b.DayOfWeek, &b.StartMinute, &b.EndMinute, &b.BlockType, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *blockRepoPG) Create(ctx context.Context, b *AvailabilityBlock) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO availability_block (id, practice_id, day_of_week, start_minute, end_minute, block_type)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.PracticeID, b.DayOfWeek, b.StartMinute, b.EndMinute, b.BlockType)
	return err
}

func (r *blockRepoPG) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*AvailabilityBlock, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+blockCols+` FROM availability_block
		WHERE practice_id = $1 ORDER BY day_of_week, start_minute`, practiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *blockRepoPG) ListByPracticeDay(ctx context.Context, practiceID uuid.UUID, dayOfWeek int) ([]*AvailabilityBlock, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+blockCols+` FROM availability_block
		WHERE practice_id = $1 AND day_of_week = $2 ORDER BY start_minute`, practiceID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *blockRepoPG) collect(rows pgx.Rows) ([]*AvailabilityBlock, error) {
	var items []*AvailabilityBlock
	for rows.Next() {
		b, err := r.scanBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *blockRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM availability_block WHERE id = $1`, id)
	return err
}

// =========== Exception Repository ===========

type exceptionRepoPG struct{ pool *pgxpool.Pool }

func NewExceptionRepoPG(pool *pgxpool.Pool) ExceptionRepository { return &exceptionRepoPG{pool: pool} }

func (r *exceptionRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const exceptionCols = `id, practice_id, date, start_minute, end_minute, is_open, note, created_at`

func (r *exceptionRepoPG) Create(ctx context.Context, e *AvailabilityException) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO availability_exception (id, practice_id, date, start_minute, end_minute, is_open, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.PracticeID, e.Date, e.StartMinute, e.EndMinute, e.IsOpen, e.Note)
	return err
}

func (r *exceptionRepoPG) ListByPracticeDate(ctx context.Context, practiceID uuid.UUID, date time.Time) ([]*AvailabilityException, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+exceptionCols+` FROM availability_exception
		WHERE practice_id = $1 AND date = $2 ORDER BY start_minute NULLS FIRST`, practiceID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AvailabilityException
	for rows.Next() {
		var e AvailabilityException
		if err := rows.Scan(&e.ID, &e.PracticeID, &e.Date, &e.StartMinute, &e.EndMinute, &e.IsOpen, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

func (r *exceptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM availability_exception WHERE id = $1`, id)
	return err
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, lead_id, practice_id, start_time, end_time, status, sales_outcome, notes, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.LeadID, &a.PracticeID, &a.StartTime, &a.EndTime,
		&a.Status, &a.SalesOutcome, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, lead_id, practice_id, start_time, end_time, status, sales_outcome, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.LeadID, a.PracticeID, a.StartTime, a.EndTime, a.Status, a.SalesOutcome, a.Notes)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET start_time=$2, end_time=$3, status=$4, sales_outcome=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.StartTime, a.EndTime, a.Status, a.SalesOutcome, a.Notes)
	return err
}

// ListOverlapping returns non-canceled appointments whose [start, end)
// interval intersects the given one.
func (r *appointmentRepoPG) ListOverlapping(ctx context.Context, practiceID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE practice_id = $1 AND status <> 'canceled'
		AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, practiceID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *appointmentRepoPG) ListByPracticeDay(ctx context.Context, practiceID uuid.UUID, dayStart, dayEnd time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE practice_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, practiceID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *appointmentRepoPG) collect(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointment WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["practice"]; ok {
		query += fmt.Sprintf(` AND practice_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND practice_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["lead"]; ok {
		query += fmt.Sprintf(` AND lead_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND lead_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["sales_outcome"]; ok {
		query += fmt.Sprintf(` AND sales_outcome = $%d`, idx)
		countQuery += fmt.Sprintf(` AND sales_outcome = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["date"]; ok {
		query += fmt.Sprintf(` AND start_time::date = $%d`, idx)
		countQuery += fmt.Sprintf(` AND start_time::date = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY start_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// =========== Hold Repository ===========

type holdRepoPG struct{ pool *pgxpool.Pool }

func NewHoldRepoPG(pool *pgxpool.Pool) HoldRepository { return &holdRepoPG{pool: pool} }

func (r *holdRepoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const holdCols = `id, practice_id, lead_id, start_time, end_time, expires_at, created_at`

func (r *holdRepoPG) scanHold(row pgx.Row) (*Hold, error) {
	var h Hold
	err := row.Scan(&h.ID, &h.PracticeID, &h.LeadID, &h.StartTime, &h.EndTime, &h.ExpiresAt, &h.CreatedAt)
	return &h, err
}

func (r *holdRepoPG) Create(ctx context.Context, h *Hold) error {
	h.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hold (id, practice_id, lead_id, start_time, end_time, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		h.ID, h.PracticeID, h.LeadID, h.StartTime, h.EndTime, h.ExpiresAt)
	return err
}

func (r *holdRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hold, error) {
	return r.scanHold(r.conn(ctx).QueryRow(ctx, `SELECT `+holdCols+` FROM hold WHERE id = $1`, id))
}

func (r *holdRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM hold WHERE id = $1`, id)
	return err
}

func (r *holdRepoPG) ListActiveOverlapping(ctx context.Context, practiceID uuid.UUID, start, end time.Time, now time.Time) ([]*Hold, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+holdCols+` FROM hold
		WHERE practice_id = $1 AND expires_at > $4
		AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, practiceID, start, end, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Hold
	for rows.Next() {
		h, err := r.scanHold(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

func (r *holdRepoPG) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hold WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
