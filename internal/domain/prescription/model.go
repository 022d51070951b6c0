// Package prescription manages prescriptions issued at appointment
// completion and their fulfillment by pharmacists.
package prescription

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/platform/errs"
)

// Prescription is issued by a doctor for a patient when an appointment
// completes. Filled flips exactly once in practice, though the operation
// is idempotent.
type Prescription struct {
	ID            uuid.UUID        `json:"id"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	PatientID     uuid.UUID        `json:"patient_id"`
	DoctorID      uuid.UUID        `json:"doctor_id"`
	Diagnosis     string           `json:"diagnosis,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Filled        bool             `json:"filled"`
	IssuedAt      time.Time        `json:"issued_at"`
	Lines         []MedicationLine `json:"lines"`
}

// MedicationLine is one medication entry on a prescription. Position keeps
// the doctor's ordering stable.
type MedicationLine struct {
	ID             uuid.UUID `json:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Position       int       `json:"position"`
	MedicineName   string    `json:"medicine_name"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency,omitempty"`
	Duration       string    `json:"duration,omitempty"`
	Instructions   string    `json:"instructions,omitempty"`
}

// ValidateLines checks the medication list a doctor submits. A prescription
// needs at least one line, and every line needs a medicine name and dosage.
func ValidateLines(lines []MedicationLine) error {
	if len(lines) == 0 {
		return errs.Validationf("a prescription needs at least one medication line")
	}
	for i, line := range lines {
		if strings.TrimSpace(line.MedicineName) == "" {
			return errs.Validationf("medication line %d is missing a medicine name", i+1)
		}
		if strings.TrimSpace(line.Dosage) == "" {
			return errs.Validationf("medication line %d is missing a dosage", i+1)
		}
	}
	return nil
}
