package labreport

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careportal/careportal/internal/platform/db"
	"github.com/careportal/careportal/internal/platform/errs"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const labReportCols = `id, patient_id, file_name, object_key, file_size, content_type, uploaded_at`

func (r *repoPG) Create(ctx context.Context, lr *LabReport) error {
	if lr.ID == uuid.Nil {
		lr.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_reports (id, patient_id, file_name, object_key, file_size, content_type)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		lr.ID, lr.PatientID, lr.FileName, lr.ObjectKey, lr.FileSize, lr.ContentType,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	var lr LabReport
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+labReportCols+` FROM lab_reports WHERE id = $1`, id,
	).Scan(&lr.ID, &lr.PatientID, &lr.FileName, &lr.ObjectKey, &lr.FileSize, &lr.ContentType, &lr.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("lab report")
	}
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+labReportCols+` FROM lab_reports
		WHERE patient_id = $1 ORDER BY uploaded_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LabReport
	for rows.Next() {
		var lr LabReport
		if err := rows.Scan(&lr.ID, &lr.PatientID, &lr.FileName, &lr.ObjectKey,
			&lr.FileSize, &lr.ContentType, &lr.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, &lr)
	}
	return out, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("lab report")
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
