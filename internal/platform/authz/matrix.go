// Package authz holds the role-authorization matrix for the portal. Every
// data access must satisfy CanAccess; repositories additionally scope their
// queries by owner id so listings never leak rows the matrix would deny.
package authz

import "github.com/google/uuid"

// Roles use the lowercase convention throughout the system.
const (
	RolePatient    = "patient"
	RoleDoctor     = "doctor"
	RolePharmacist = "pharmacist"
)

// ValidRole reports whether r is one of the three portal roles.
func ValidRole(r string) bool {
	return r == RolePatient || r == RoleDoctor || r == RolePharmacist
}

// Principal identifies the authenticated caller of a request.
type Principal struct {
	AccountID uuid.UUID
	Role      string
}

type Resource string

const (
	ResourceAppointment  Resource = "appointment"
	ResourcePrescription Resource = "prescription"
	ResourceLabReport    Resource = "lab_report"
	ResourceProfile      Resource = "profile"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
	ActionDelete Action = "delete"
)

// CanAccess reports whether a caller with the given role may perform action
// on the resource owned by ownerID. Ownership means the id in the
// role-appropriate column (patient_id for patients, doctor_id for doctors).
//
// Pharmacists intentionally have unscoped read/update on prescriptions:
// they serve any patient, so ownerID is ignored for that cell. Do not
// tighten this without changing the product behavior.
func CanAccess(role string, resource Resource, action Action, ownerID, callerID uuid.UUID) bool {
	own := ownerID == callerID
	switch resource {
	case ResourceAppointment:
		switch role {
		case RolePatient:
			return own && (action == ActionRead || action == ActionCreate || action == ActionCancel)
		case RoleDoctor:
			return own && (action == ActionRead || action == ActionUpdate)
		}
		return false
	case ResourcePrescription:
		switch role {
		case RolePatient:
			return own && action == ActionRead
		case RoleDoctor:
			return own && (action == ActionRead || action == ActionCreate)
		case RolePharmacist:
			return action == ActionRead || action == ActionUpdate
		}
		return false
	case ResourceLabReport:
		if role != RolePatient {
			return false
		}
		return own && (action == ActionRead || action == ActionCreate || action == ActionDelete)
	case ResourceProfile:
		if !ValidRole(role) {
			return false
		}
		return own && (action == ActionRead || action == ActionUpdate)
	}
	return false
}
