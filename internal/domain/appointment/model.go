// Package appointment implements the appointment lifecycle between
// patients and doctors: booking, confirmation, rejection, cancellation,
// and completion with a prescription.
package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. The lifecycle is pending -> confirmed -> completed,
// with rejected and cancelled as terminal exits.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ValidStatus reports whether s is one of the five lifecycle statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func Terminal(s string) bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
