package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists accounts and profiles. Implementations return
// errs.NotFound for missing rows and errs.Conflictf for duplicate emails.
type Repository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)

	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, accountID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error

	UpsertDoctorProfile(ctx context.Context, d *DoctorProfile) error
	UpsertPatientProfile(ctx context.Context, p *PatientProfile) error

	ListAcceptingDoctors(ctx context.Context) ([]*DoctorListing, error)
}
