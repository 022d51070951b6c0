package labreport

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/blobstore"
	"github.com/careportal/careportal/internal/platform/errs"
)

type mockRepo struct {
	reports    map[uuid.UUID]*LabReport
	failCreate bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[uuid.UUID]*LabReport)}
}

func (m *mockRepo) Create(_ context.Context, lr *LabReport) error {
	if m.failCreate {
		return errors.New("insert failed")
	}
	cp := *lr
	cp.UploadedAt = time.Now()
	m.reports[lr.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*LabReport, error) {
	lr, ok := m.reports[id]
	if !ok {
		return nil, errs.NotFound("lab report")
	}
	cp := *lr
	return &cp, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*LabReport, error) {
	var out []*LabReport
	for _, lr := range m.reports {
		if lr.PatientID == patientID {
			cp := *lr
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.reports[id]; !ok {
		return errs.NotFound("lab report")
	}
	delete(m.reports, id)
	return nil
}

func newTestService() (*Service, *mockRepo, *blobstore.MemoryStore, authz.Principal) {
	repo := newMockRepo()
	blobs := blobstore.NewMemoryStore()
	svc := NewService(repo, blobs, zerolog.Nop())
	patient := authz.Principal{AccountID: uuid.New(), Role: authz.RolePatient}
	return svc, repo, blobs, patient
}

func upload(t *testing.T, svc *Service, caller authz.Principal) *LabReport {
	t.Helper()
	content := "%PDF-1.4 blood panel"
	lr, err := svc.Upload(context.Background(), caller, "blood-panel.pdf", "application/pdf",
		int64(len(content)), strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return lr
}

func TestUpload_StoresBlobUnderPatientScopedKey(t *testing.T) {
	svc, _, blobs, patient := newTestService()
	lr := upload(t, svc, patient)

	if !strings.HasPrefix(lr.ObjectKey, patient.AccountID.String()+"/") {
		t.Errorf("object key must be scoped to the patient, got %s", lr.ObjectKey)
	}
	if !strings.HasSuffix(lr.ObjectKey, ".pdf") {
		t.Errorf("object key should keep the extension, got %s", lr.ObjectKey)
	}

	rc, err := blobs.Get(context.Background(), lr.ObjectKey)
	if err != nil {
		t.Fatalf("blob missing: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !strings.Contains(string(data), "blood panel") {
		t.Error("blob content mismatch")
	}
}

func TestUpload_OnlyPatients(t *testing.T) {
	svc, _, _, _ := newTestService()
	for _, role := range []string{authz.RoleDoctor, authz.RolePharmacist} {
		caller := authz.Principal{AccountID: uuid.New(), Role: role}
		_, err := svc.Upload(context.Background(), caller, "x.pdf", "application/pdf", 4, strings.NewReader("data"))
		if _, ok := err.(*errs.AuthorizationError); !ok {
			t.Errorf("role %s: expected authorization error, got %v", role, err)
		}
	}
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	svc, _, _, patient := newTestService()
	_, err := svc.Upload(context.Background(), patient, "report.exe", "application/octet-stream", 4, strings.NewReader("data"))
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Errorf("expected validation error, got %v", err)
	}
}

// spyStore records the last key written so tests can probe it after a
// failed upload.
type spyStore struct {
	*blobstore.MemoryStore
	lastKey string
}

func (s *spyStore) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	s.lastKey = key
	return s.MemoryStore.Put(ctx, key, content, size, contentType)
}

func TestUpload_CleansUpBlobWhenRowInsertFails(t *testing.T) {
	repo := newMockRepo()
	repo.failCreate = true
	blobs := &spyStore{MemoryStore: blobstore.NewMemoryStore()}
	svc := NewService(repo, blobs, zerolog.Nop())
	patient := authz.Principal{AccountID: uuid.New(), Role: authz.RolePatient}

	_, err := svc.Upload(context.Background(), patient, "x.pdf", "application/pdf", 4, strings.NewReader("data"))
	if err == nil {
		t.Fatal("expected upload to fail")
	}

	reports, _ := repo.ListByPatient(context.Background(), patient.AccountID)
	if len(reports) != 0 {
		t.Error("no metadata row should exist")
	}
	if _, err := blobs.Get(context.Background(), blobs.lastKey); !errors.Is(err, blobstore.ErrBlobNotFound) {
		t.Errorf("orphaned blob should be cleaned up, got %v", err)
	}
}

func TestDownload_OwnerOnly(t *testing.T) {
	svc, _, _, patient := newTestService()
	lr := upload(t, svc, patient)

	_, rc, err := svc.Download(context.Background(), patient, lr.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	rc.Close()

	other := authz.Principal{AccountID: uuid.New(), Role: authz.RolePatient}
	if _, _, err := svc.Download(context.Background(), other, lr.ID); err == nil {
		t.Error("another patient must not download the report")
	}

	doctor := authz.Principal{AccountID: uuid.New(), Role: authz.RoleDoctor}
	if _, _, err := svc.Download(context.Background(), doctor, lr.ID); err == nil {
		t.Error("doctors have no lab report access")
	}
}

func TestDelete_RemovesRowAndBlob(t *testing.T) {
	svc, repo, blobs, patient := newTestService()
	lr := upload(t, svc, patient)

	if err := svc.Delete(context.Background(), patient, lr.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), lr.ID); !errs.IsNotFound(err) {
		t.Error("row should be gone")
	}
	if _, err := blobs.Get(context.Background(), lr.ObjectKey); !errors.Is(err, blobstore.ErrBlobNotFound) {
		t.Error("blob should be gone")
	}
}

func TestDelete_ToleratesMissingBlob(t *testing.T) {
	svc, _, blobs, patient := newTestService()
	lr := upload(t, svc, patient)
	blobs.Delete(context.Background(), lr.ObjectKey)

	if err := svc.Delete(context.Background(), patient, lr.ID); err != nil {
		t.Errorf("delete should tolerate an already-missing blob, got %v", err)
	}
}

func TestList_ScopedToCaller(t *testing.T) {
	svc, _, _, patient := newTestService()
	upload(t, svc, patient)

	other := authz.Principal{AccountID: uuid.New(), Role: authz.RolePatient}
	upload(t, svc, other)

	out, err := svc.List(context.Background(), patient)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].PatientID != patient.AccountID {
		t.Errorf("expected only the caller's reports, got %d rows", len(out))
	}
}
