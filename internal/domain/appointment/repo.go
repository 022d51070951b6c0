package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists appointments. UpdateStatus is guarded by the
// expected current status; it reports false when the row was not in that
// status, which the service turns into a conflict.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
}
