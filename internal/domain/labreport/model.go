// Package labreport manages patient-uploaded lab report files. Metadata
// lives in Postgres; file content lives in the blob store under a
// patient-scoped object key.
package labreport

import (
	"time"

	"github.com/google/uuid"
)

type LabReport struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	FileName    string    `json:"file_name"`
	ObjectKey   string    `json:"-"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
