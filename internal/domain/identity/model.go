// Package identity manages portal accounts, role-bearing profiles, and the
// sign-up/sign-in flows. Every account carries exactly one profile whose
// role decides which portal section the owner may use.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Account is the credential record. The password is stored only as a
// bcrypt hash.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the role-bearing record for an account. Exactly one of Doctor
// or Patient is populated according to Role; pharmacists carry neither.
type Profile struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Doctor  *DoctorProfile  `json:"doctor,omitempty"`
	Patient *PatientProfile `json:"patient,omitempty"`
}

// DoctorProfile holds the clinical directory entry and weekly availability
// window for a doctor account.
type DoctorProfile struct {
	AccountID         uuid.UUID `json:"account_id"`
	Specialization    string    `json:"specialization"`
	LicenseNumber     string    `json:"license_number"`
	Qualification     string    `json:"qualification,omitempty"`
	AvailableDays     []string  `json:"available_days,omitempty"`
	AvailableStart    string    `json:"available_start,omitempty"`
	AvailableEnd      string    `json:"available_end,omitempty"`
	AcceptingPatients bool      `json:"accepting_patients"`
}

// PatientProfile holds the medical background fields a patient fills in at
// sign-up.
type PatientProfile struct {
	AccountID             uuid.UUID  `json:"account_id"`
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty"`
	BloodGroup            string     `json:"blood_group,omitempty"`
	Allergies             string     `json:"allergies,omitempty"`
	Address               string     `json:"address,omitempty"`
	EmergencyContactName  string     `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string     `json:"emergency_contact_phone,omitempty"`
}

// DoctorListing is the directory row shown to patients booking an
// appointment.
type DoctorListing struct {
	AccountID      uuid.UUID `json:"account_id"`
	FullName       string    `json:"full_name"`
	Specialization string    `json:"specialization"`
	Qualification  string    `json:"qualification,omitempty"`
	AvailableDays  []string  `json:"available_days,omitempty"`
	AvailableStart string    `json:"available_start,omitempty"`
	AvailableEnd   string    `json:"available_end,omitempty"`
}
