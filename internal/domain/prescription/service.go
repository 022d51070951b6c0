package prescription

import (
	"context"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/errs"
)

// Service enforces the authorization matrix over prescription reads and
// fulfillment. Creation happens inside the appointment completion
// transaction, not here.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one prescription. Patients and doctors must own it;
// pharmacists may read any.
func (s *Service) Get(ctx context.Context, caller authz.Principal, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := ownerFor(caller.Role, p)
	if !authz.CanAccess(caller.Role, authz.ResourcePrescription, authz.ActionRead, owner, caller.AccountID) {
		return nil, errs.Authorizationf("cannot read this prescription")
	}
	return p, nil
}

// ListForPatient returns the caller's own prescriptions.
func (s *Service) ListForPatient(ctx context.Context, caller authz.Principal) ([]*Prescription, error) {
	if caller.Role != authz.RolePatient {
		return nil, errs.Authorizationf("cannot list patient prescriptions")
	}
	return s.repo.ListByPatient(ctx, caller.AccountID)
}

// ListForDoctor returns prescriptions the caller issued.
func (s *Service) ListForDoctor(ctx context.Context, caller authz.Principal) ([]*Prescription, error) {
	if caller.Role != authz.RoleDoctor {
		return nil, errs.Authorizationf("cannot list issued prescriptions")
	}
	return s.repo.ListByDoctor(ctx, caller.AccountID)
}

// ListAll is the pharmacist work queue. It is deliberately unscoped:
// pharmacists serve any patient.
func (s *Service) ListAll(ctx context.Context, caller authz.Principal, limit, offset int) ([]*Prescription, int, error) {
	if caller.Role != authz.RolePharmacist {
		return nil, 0, errs.Authorizationf("cannot list all prescriptions")
	}
	return s.repo.ListAll(ctx, limit, offset)
}

// SetFilled marks a prescription filled or unfilled. Pharmacists only.
// Marking an already-filled prescription filled again is a no-op, not an
// error.
func (s *Service) SetFilled(ctx context.Context, caller authz.Principal, id uuid.UUID, filled bool) (*Prescription, error) {
	if !authz.CanAccess(caller.Role, authz.ResourcePrescription, authz.ActionUpdate, uuid.Nil, caller.AccountID) {
		return nil, errs.Authorizationf("cannot update prescriptions")
	}
	if err := s.repo.SetFilled(ctx, id, filled); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ownerFor picks the ownership column the matrix scopes by for the role.
func ownerFor(role string, p *Prescription) uuid.UUID {
	switch role {
	case authz.RolePatient:
		return p.PatientID
	case authz.RoleDoctor:
		return p.DoctorID
	}
	return uuid.Nil
}
