package labreport

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/blobstore"
	"github.com/careportal/careportal/internal/platform/errs"
)

// allowedContentTypes limits uploads to document and image formats.
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// Service stores lab report files. Rows and blobs are linked by a
// patient-scoped object key, so a leaked key never crosses patients.
type Service struct {
	repo   Repository
	blobs  blobstore.Store
	logger zerolog.Logger
}

func NewService(repo Repository, blobs blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// Upload stores the file content and its metadata row. Patients upload
// only to their own record. If the metadata insert fails after the blob
// was written, the blob is removed best-effort.
func (s *Service) Upload(ctx context.Context, caller authz.Principal, fileName, contentType string, size int64, content io.Reader) (*LabReport, error) {
	if !authz.CanAccess(caller.Role, authz.ResourceLabReport, authz.ActionCreate, caller.AccountID, caller.AccountID) {
		return nil, errs.Authorizationf("only patients upload lab reports")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, errs.Validationf("file name is required")
	}
	if !allowedContentTypes[contentType] {
		return nil, errs.Validationf("unsupported file type %q", contentType)
	}
	if size <= 0 {
		return nil, errs.Validationf("file is empty")
	}
	if size > blobstore.MaxFileSize {
		return nil, errs.Validationf("file exceeds the %d byte limit", blobstore.MaxFileSize)
	}

	lr := &LabReport{
		ID:          uuid.New(),
		PatientID:   caller.AccountID,
		FileName:    filepath.Base(fileName),
		FileSize:    size,
		ContentType: contentType,
	}
	lr.ObjectKey = caller.AccountID.String() + "/" + lr.ID.String() + strings.ToLower(filepath.Ext(lr.FileName))

	if err := s.blobs.Put(ctx, lr.ObjectKey, content, size, contentType); err != nil {
		if errors.Is(err, blobstore.ErrFileTooLarge) {
			return nil, errs.Validationf("file exceeds the %d byte limit", blobstore.MaxFileSize)
		}
		return nil, errs.BackendUnavailable("lab report upload", err)
	}
	if err := s.repo.Create(ctx, lr); err != nil {
		if cleanupErr := s.blobs.Delete(ctx, lr.ObjectKey); cleanupErr != nil {
			s.logger.Warn().Err(cleanupErr).Str("key", lr.ObjectKey).Msg("orphaned lab report blob")
		}
		return nil, err
	}
	return lr, nil
}

// Download streams a report back to its owner. The caller must close the
// reader.
func (s *Service) Download(ctx context.Context, caller authz.Principal, id uuid.UUID) (*LabReport, io.ReadCloser, error) {
	lr, err := s.get(ctx, caller, id, authz.ActionRead)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, lr.ObjectKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return nil, nil, errs.NotFound("lab report file")
		}
		return nil, nil, errs.BackendUnavailable("lab report download", err)
	}
	return lr, rc, nil
}

// Delete removes the blob first, tolerating an already-missing blob, then
// the row. A failed blob delete aborts so the row keeps pointing at
// content that still exists.
func (s *Service) Delete(ctx context.Context, caller authz.Principal, id uuid.UUID) error {
	lr, err := s.get(ctx, caller, id, authz.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, lr.ObjectKey); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		return errs.BackendUnavailable("lab report delete", err)
	}
	return s.repo.Delete(ctx, id)
}

// List returns the caller's own reports.
func (s *Service) List(ctx context.Context, caller authz.Principal) ([]*LabReport, error) {
	if caller.Role != authz.RolePatient {
		return nil, errs.Authorizationf("only patients have lab reports")
	}
	return s.repo.ListByPatient(ctx, caller.AccountID)
}

func (s *Service) get(ctx context.Context, caller authz.Principal, id uuid.UUID, action authz.Action) (*LabReport, error) {
	lr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(caller.Role, authz.ResourceLabReport, action, lr.PatientID, caller.AccountID) {
		return nil, errs.Authorizationf("cannot access this lab report")
	}
	return lr, nil
}
