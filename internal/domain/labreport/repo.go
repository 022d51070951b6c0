package labreport

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists lab report metadata rows.
type Repository interface {
	Create(ctx context.Context, r *LabReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabReport, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
