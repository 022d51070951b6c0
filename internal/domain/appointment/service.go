package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/prescription"
	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/db"
	"github.com/careportal/careportal/internal/platform/errs"
)

// RoleChecker resolves the role of an account. Booking uses it to verify
// the target of an appointment really is a doctor.
type RoleChecker interface {
	ResolveRole(ctx context.Context, accountID uuid.UUID) (string, error)
}

// Service owns the appointment state machine. Every status change goes
// through TransitionStatus or CompleteWithPrescription; nothing else
// writes the status column.
type Service struct {
	repo  Repository
	rx    prescription.Repository
	roles RoleChecker
	tx    db.Transactor
}

func NewService(repo Repository, rx prescription.Repository, roles RoleChecker, tx db.Transactor) *Service {
	return &Service{repo: repo, rx: rx, roles: roles, tx: tx}
}

// transitions maps each lifecycle edge to the roles allowed to drive it.
// Completion is absent on purpose: it only happens through
// CompleteWithPrescription so a completed appointment always has its
// prescription.
var transitions = map[string]map[string][]string{
	StatusPending: {
		StatusConfirmed: {authz.RoleDoctor},
		StatusRejected:  {authz.RoleDoctor},
		StatusCancelled: {authz.RolePatient},
	},
	StatusConfirmed: {
		StatusCancelled: {authz.RolePatient, authz.RoleDoctor},
	},
}

// CreateRequest is the booking form a patient submits.
type CreateRequest struct {
	DoctorID    uuid.UUID `json:"doctor_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

// Create books a new appointment in the pending status. Patients book for
// themselves; the target account must be a doctor and the slot must be in
// the future.
func (s *Service) Create(ctx context.Context, caller authz.Principal, req CreateRequest) (*Appointment, error) {
	if !authz.CanAccess(caller.Role, authz.ResourceAppointment, authz.ActionCreate, caller.AccountID, caller.AccountID) {
		return nil, errs.Authorizationf("only patients book appointments")
	}
	if !req.ScheduledAt.After(time.Now()) {
		return nil, errs.Validationf("appointment time must be in the future")
	}

	role, err := s.roles.ResolveRole(ctx, req.DoctorID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Validationf("doctor not found")
		}
		return nil, err
	}
	if role != authz.RoleDoctor {
		return nil, errs.Validationf("appointments can only be booked with a doctor")
	}

	a := &Appointment{
		ID:          uuid.New(),
		PatientID:   caller.AccountID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
		Notes:       req.Notes,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns one appointment the caller participates in.
func (s *Service) Get(ctx context.Context, caller authz.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(caller.Role, authz.ResourceAppointment, authz.ActionRead, ownerFor(caller.Role, a), caller.AccountID) {
		return nil, errs.Authorizationf("cannot read this appointment")
	}
	return a, nil
}

// TransitionStatus drives one edge of the state machine. The target
// completed is always rejected here; completion requires a prescription
// and goes through CompleteWithPrescription.
func (s *Service) TransitionStatus(ctx context.Context, caller authz.Principal, id uuid.UUID, target string) (*Appointment, error) {
	if !ValidStatus(target) {
		return nil, errs.Validationf("unknown status %q", target)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !participant(caller, a) {
		return nil, errs.Authorizationf("cannot modify this appointment")
	}
	if target == StatusCompleted {
		return nil, errs.InvalidTransition(a.Status, target)
	}

	roles, ok := transitions[a.Status][target]
	if !ok {
		return nil, errs.InvalidTransition(a.Status, target)
	}
	if !roleAllowed(roles, caller.Role) {
		return nil, errs.Authorizationf("role %s cannot move an appointment from %s to %s", caller.Role, a.Status, target)
	}

	return s.applyTransition(ctx, id, a.Status, target)
}

// CompletionRequest carries the prescription issued when an appointment
// completes.
type CompletionRequest struct {
	Diagnosis string                        `json:"diagnosis"`
	Notes     string                        `json:"notes"`
	Lines     []prescription.MedicationLine `json:"lines"`
}

// CompleteWithPrescription moves a confirmed appointment to completed and
// issues its prescription in one transaction. If either write fails, both
// roll back; there is no completed appointment without a prescription and
// no prescription for an uncompleted appointment.
func (s *Service) CompleteWithPrescription(ctx context.Context, caller authz.Principal, id uuid.UUID, req CompletionRequest) (*Appointment, *prescription.Prescription, error) {
	if caller.Role != authz.RoleDoctor {
		return nil, nil, errs.Authorizationf("only doctors complete appointments")
	}
	if err := prescription.ValidateLines(req.Lines); err != nil {
		return nil, nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.DoctorID != caller.AccountID {
		return nil, nil, errs.Authorizationf("cannot modify this appointment")
	}
	if a.Status != StatusConfirmed {
		return nil, nil, errs.InvalidTransition(a.Status, StatusCompleted)
	}

	rx := &prescription.Prescription{
		ID:            uuid.New(),
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Diagnosis:     req.Diagnosis,
		Notes:         req.Notes,
		Lines:         req.Lines,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		moved, err := s.repo.UpdateStatus(ctx, id, StatusConfirmed, StatusCompleted)
		if err != nil {
			return err
		}
		if !moved {
			return s.conflictFor(ctx, id, StatusConfirmed, StatusCompleted)
		}
		return s.rx.Create(ctx, rx)
	})
	if err != nil {
		return nil, nil, err
	}

	done, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return done, rx, nil
}

// ListForPatient returns the caller's bookings.
func (s *Service) ListForPatient(ctx context.Context, caller authz.Principal) ([]*Appointment, error) {
	if caller.Role != authz.RolePatient {
		return nil, errs.Authorizationf("cannot list patient appointments")
	}
	return s.repo.ListByPatient(ctx, caller.AccountID)
}

// ListForDoctor returns the caller's schedule.
func (s *Service) ListForDoctor(ctx context.Context, caller authz.Principal) ([]*Appointment, error) {
	if caller.Role != authz.RoleDoctor {
		return nil, errs.Authorizationf("cannot list doctor appointments")
	}
	return s.repo.ListByDoctor(ctx, caller.AccountID)
}

func (s *Service) applyTransition(ctx context.Context, id uuid.UUID, from, to string) (*Appointment, error) {
	moved, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.conflictFor(ctx, id, from, to)
	}
	return s.repo.GetByID(ctx, id)
}

// conflictFor explains a failed guarded update: the row either moved under
// the caller or disappeared.
func (s *Service) conflictFor(ctx context.Context, id uuid.UUID, from, to string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return errs.Conflictf("appointment moved from %s to %s before the %s transition applied", from, current.Status, to)
}

func participant(caller authz.Principal, a *Appointment) bool {
	switch caller.Role {
	case authz.RolePatient:
		return a.PatientID == caller.AccountID
	case authz.RoleDoctor:
		return a.DoctorID == caller.AccountID
	}
	return false
}

func ownerFor(role string, a *Appointment) uuid.UUID {
	switch role {
	case authz.RolePatient:
		return a.PatientID
	case authz.RoleDoctor:
		return a.DoctorID
	}
	return uuid.Nil
}

func roleAllowed(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
