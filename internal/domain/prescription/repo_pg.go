package prescription

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

const prescriptionCols = `id, appointment_id, patient_id, doctor_id, diagnosis, notes, filled, issued_at`

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, appointment_id, patient_id, doctor_id, diagnosis, notes, filled)
		VALUES ($1, $2, $3, $4, $5, $6, false)`,
		p.ID, p.AppointmentID, p.PatientID, p.DoctorID, p.Diagnosis, p.Notes,
	)
	if err != nil {
		return err
	}

	for i := range p.Lines {
		line := &p.Lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.PrescriptionID = p.ID
		line.Position = i
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO medication_lines (id, prescription_id, position, medicine_name, dosage, frequency, duration, instructions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			line.ID, line.PrescriptionID, line.Position,
			line.MedicineName, line.Dosage, line.Frequency, line.Duration, line.Instructions,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, []*Prescription{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	return r.list(ctx, `SELECT `+prescriptionCols+` FROM prescriptions
		WHERE patient_id = $1 ORDER BY issued_at DESC`, patientID)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	return r.list(ctx, `SELECT `+prescriptionCols+` FROM prescriptions
		WHERE doctor_id = $1 ORDER BY issued_at DESC`, doctorID)
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	out, err := r.list(ctx, `SELECT `+prescriptionCols+` FROM prescriptions
		ORDER BY issued_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repoPG) SetFilled(ctx context.Context, id uuid.UUID, filled bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescriptions SET filled = $2 WHERE id = $1`, id, filled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("prescription")
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescriptionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoPG) attachLines(ctx context.Context, prescriptions []*Prescription) error {
	if len(prescriptions) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Prescription, len(prescriptions))
	ids := make([]uuid.UUID, 0, len(prescriptions))
	for _, p := range prescriptions {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, position, medicine_name, dosage, frequency, duration, instructions
		FROM medication_lines WHERE prescription_id = ANY($1) ORDER BY position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l MedicationLine
		if err := rows.Scan(&l.ID, &l.PrescriptionID, &l.Position,
			&l.MedicineName, &l.Dosage, &l.Frequency, &l.Duration, &l.Instructions); err != nil {
			return err
		}
		if p, ok := byID[l.PrescriptionID]; ok {
			p.Lines = append(p.Lines, l)
		}
	}
	return rows.Err()
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.PatientID, &p.DoctorID, &p.Diagnosis, &p.Notes, &p.Filled, &p.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("prescription")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPrescriptionRows(rows pgx.Rows) (*Prescription, error) {
	var p Prescription
	if err := rows.Scan(&p.ID, &p.AppointmentID, &p.PatientID, &p.DoctorID, &p.Diagnosis, &p.Notes, &p.Filled, &p.IssuedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
