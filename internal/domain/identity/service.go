package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/db"
	"github.com/careportal/careportal/internal/platform/errs"
	"github.com/careportal/careportal/internal/platform/session"
)

// Service owns the account lifecycle and role resolution. It implements
// gate.RoleResolver.
type Service struct {
	repo       Repository
	sessions   session.Store
	tx         db.Transactor
	sessionTTL time.Duration
}

func NewService(repo Repository, sessions session.Store, tx db.Transactor, sessionTTL time.Duration) *Service {
	return &Service{repo: repo, sessions: sessions, tx: tx, sessionTTL: sessionTTL}
}

// SignUpRequest carries everything collected on the registration form. The
// Doctor and Patient blocks are consulted only when Role matches.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`

	Doctor  *DoctorSignUp  `json:"doctor,omitempty"`
	Patient *PatientSignUp `json:"patient,omitempty"`
}

type DoctorSignUp struct {
	Specialization string   `json:"specialization" validate:"required"`
	LicenseNumber  string   `json:"license_number" validate:"required"`
	Qualification  string   `json:"qualification"`
	AvailableDays  []string `json:"available_days"`
	AvailableStart string   `json:"available_start"`
	AvailableEnd   string   `json:"available_end"`
}

type PatientSignUp struct {
	DateOfBirth           *time.Time `json:"date_of_birth"`
	BloodGroup            string     `json:"blood_group"`
	Allergies             string     `json:"allergies"`
	Address               string     `json:"address"`
	EmergencyContactName  string     `json:"emergency_contact_name"`
	EmergencyContactPhone string     `json:"emergency_contact_phone"`
}

// SignUp creates the account, its profile, and the role-specific
// sub-profile in one transaction so a failed sub-profile insert never
// leaves a role-less account behind.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Account, error) {
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if !authz.ValidRole(req.Role) {
		return nil, errs.Validationf("role must be patient, doctor, or pharmacist")
	}
	if req.Role == authz.RoleDoctor && req.Doctor == nil {
		return nil, errs.Validationf("doctor registration requires specialization and license number")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateAccount(ctx, account); err != nil {
			return err
		}
		profile := &Profile{
			AccountID: account.ID,
			Role:      req.Role,
			FullName:  req.FullName,
			Phone:     req.Phone,
		}
		if err := s.repo.CreateProfile(ctx, profile); err != nil {
			return err
		}

		switch req.Role {
		case authz.RoleDoctor:
			return s.repo.UpsertDoctorProfile(ctx, &DoctorProfile{
				AccountID:         account.ID,
				Specialization:    req.Doctor.Specialization,
				LicenseNumber:     req.Doctor.LicenseNumber,
				Qualification:     req.Doctor.Qualification,
				AvailableDays:     req.Doctor.AvailableDays,
				AvailableStart:    req.Doctor.AvailableStart,
				AvailableEnd:      req.Doctor.AvailableEnd,
				AcceptingPatients: true,
			})
		case authz.RolePatient:
			patient := &PatientProfile{AccountID: account.ID}
			if req.Patient != nil {
				patient.DateOfBirth = req.Patient.DateOfBirth
				patient.BloodGroup = req.Patient.BloodGroup
				patient.Allergies = req.Patient.Allergies
				patient.Address = req.Patient.Address
				patient.EmergencyContactName = req.Patient.EmergencyContactName
				patient.EmergencyContactPhone = req.Patient.EmergencyContactPhone
			}
			return s.repo.UpsertPatientProfile(ctx, patient)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SignIn verifies the credentials and opens a session. The returned token
// is the opaque session id; the handler wraps it in a signed cookie. A bad
// email and a bad password produce the same error so the endpoint does not
// reveal which accounts exist.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *authz.Principal, error) {
	account, err := s.repo.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errs.IsNotFound(err) {
			return "", nil, errs.Authorizationf("invalid email or password")
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, errs.Authorizationf("invalid email or password")
	}

	profile, err := s.repo.GetProfile(ctx, account.ID)
	if err != nil {
		if errs.IsNotFound(err) {
			return "", nil, errs.Authorizationf("invalid email or password")
		}
		return "", nil, err
	}

	token, err := s.sessions.Create(ctx, account.ID, s.sessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &authz.Principal{AccountID: account.ID, Role: profile.Role}, nil
}

// SignOut revokes the session token. Revoking an unknown token is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	err := s.sessions.Revoke(ctx, token)
	if err != nil && !errs.IsNotFound(err) {
		return err
	}
	return nil
}

// ResolveRole satisfies gate.RoleResolver.
func (s *Service) ResolveRole(ctx context.Context, accountID uuid.UUID) (string, error) {
	profile, err := s.repo.GetProfile(ctx, accountID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// GetProfile returns the caller's own profile.
func (s *Service) GetProfile(ctx context.Context, caller authz.Principal, accountID uuid.UUID) (*Profile, error) {
	if !authz.CanAccess(caller.Role, authz.ResourceProfile, authz.ActionRead, accountID, caller.AccountID) {
		return nil, errs.Authorizationf("cannot read this profile")
	}
	return s.repo.GetProfile(ctx, accountID)
}

// ProfileUpdate carries the mutable contact fields.
type ProfileUpdate struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
}

func (s *Service) UpdateProfile(ctx context.Context, caller authz.Principal, accountID uuid.UUID, upd ProfileUpdate) (*Profile, error) {
	if !authz.CanAccess(caller.Role, authz.ResourceProfile, authz.ActionUpdate, accountID, caller.AccountID) {
		return nil, errs.Authorizationf("cannot update this profile")
	}
	profile, err := s.repo.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	profile.FullName = upd.FullName
	profile.Phone = upd.Phone
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ScheduleUpdate carries a doctor's availability window and directory flag.
type ScheduleUpdate struct {
	AvailableDays     []string `json:"available_days"`
	AvailableStart    string   `json:"available_start"`
	AvailableEnd      string   `json:"available_end"`
	AcceptingPatients bool     `json:"accepting_patients"`
}

// UpdateSchedule replaces the caller's availability. Doctors only; the
// schedule always belongs to the caller.
func (s *Service) UpdateSchedule(ctx context.Context, caller authz.Principal, upd ScheduleUpdate) (*DoctorProfile, error) {
	if caller.Role != authz.RoleDoctor {
		return nil, errs.Authorizationf("only doctors have a schedule")
	}
	profile, err := s.repo.GetProfile(ctx, caller.AccountID)
	if err != nil {
		return nil, err
	}
	if profile.Doctor == nil {
		return nil, errs.NotFound("doctor profile")
	}

	d := profile.Doctor
	d.AvailableDays = upd.AvailableDays
	d.AvailableStart = upd.AvailableStart
	d.AvailableEnd = upd.AvailableEnd
	d.AcceptingPatients = upd.AcceptingPatients
	if err := s.repo.UpsertDoctorProfile(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListAcceptingDoctors returns the booking directory. Any authenticated
// caller may browse it.
func (s *Service) ListAcceptingDoctors(ctx context.Context) ([]*DoctorListing, error) {
	return s.repo.ListAcceptingDoctors(ctx)
}
