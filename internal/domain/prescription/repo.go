package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists prescriptions and their medication lines. Create
// inserts the lines with the prescription; readers always return lines in
// position order.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
	SetFilled(ctx context.Context, id uuid.UUID, filled bool) error
}
