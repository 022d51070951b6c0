package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/db"
	"github.com/careportal/careportal/internal/platform/errs"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) CreateAccount(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash)
		VALUES ($1, $2, $3)`,
		a.ID, a.Email, a.PasswordHash,
	)
	if isUniqueViolation(err) {
		return errs.Conflictf("an account with email %s already exists", a.Email)
	}
	return err
}

func (r *repoPG) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts WHERE email = $1`, email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("account")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var a Account
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("account")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) CreateProfile(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO profiles (account_id, role, full_name, phone)
		VALUES ($1, $2, $3, $4)`,
		p.AccountID, p.Role, p.FullName, p.Phone,
	)
	if isUniqueViolation(err) {
		return errs.Conflictf("profile already exists for account %s", p.AccountID)
	}
	return err
}

func (r *repoPG) GetProfile(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT account_id, role, full_name, phone, created_at, updated_at
		FROM profiles WHERE account_id = $1`, accountID,
	).Scan(&p.AccountID, &p.Role, &p.FullName, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("profile")
	}
	if err != nil {
		return nil, err
	}

	switch p.Role {
	case authz.RoleDoctor:
		d, err := r.getDoctorProfile(ctx, accountID)
		if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		p.Doctor = d
	case authz.RolePatient:
		pat, err := r.getPatientProfile(ctx, accountID)
		if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		p.Patient = pat
	}
	return &p, nil
}

func (r *repoPG) UpdateProfile(ctx context.Context, p *Profile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE profiles SET full_name = $2, phone = $3, updated_at = NOW()
		WHERE account_id = $1`,
		p.AccountID, p.FullName, p.Phone,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("profile")
	}
	return nil
}

func (r *repoPG) getDoctorProfile(ctx context.Context, accountID uuid.UUID) (*DoctorProfile, error) {
	var d DoctorProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT account_id, specialization, license_number, qualification,
			available_days, available_start, available_end, accepting_patients
		FROM doctor_profiles WHERE account_id = $1`, accountID,
	).Scan(&d.AccountID, &d.Specialization, &d.LicenseNumber, &d.Qualification,
		&d.AvailableDays, &d.AvailableStart, &d.AvailableEnd, &d.AcceptingPatients)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("doctor profile")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) getPatientProfile(ctx context.Context, accountID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT account_id, date_of_birth, blood_group, allergies, address,
			emergency_contact_name, emergency_contact_phone
		FROM patient_profiles WHERE account_id = $1`, accountID,
	).Scan(&p.AccountID, &p.DateOfBirth, &p.BloodGroup, &p.Allergies, &p.Address,
		&p.EmergencyContactName, &p.EmergencyContactPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("patient profile")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) UpsertDoctorProfile(ctx context.Context, d *DoctorProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profiles (
			account_id, specialization, license_number, qualification,
			available_days, available_start, available_end, accepting_patients
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (account_id) DO UPDATE SET
			specialization = EXCLUDED.specialization,
			license_number = EXCLUDED.license_number,
			qualification = EXCLUDED.qualification,
			available_days = EXCLUDED.available_days,
			available_start = EXCLUDED.available_start,
			available_end = EXCLUDED.available_end,
			accepting_patients = EXCLUDED.accepting_patients`,
		d.AccountID, d.Specialization, d.LicenseNumber, d.Qualification,
		d.AvailableDays, d.AvailableStart, d.AvailableEnd, d.AcceptingPatients,
	)
	return err
}

func (r *repoPG) UpsertPatientProfile(ctx context.Context, p *PatientProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (
			account_id, date_of_birth, blood_group, allergies, address,
			emergency_contact_name, emergency_contact_phone
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (account_id) DO UPDATE SET
			date_of_birth = EXCLUDED.date_of_birth,
			blood_group = EXCLUDED.blood_group,
			allergies = EXCLUDED.allergies,
			address = EXCLUDED.address,
			emergency_contact_name = EXCLUDED.emergency_contact_name,
			emergency_contact_phone = EXCLUDED.emergency_contact_phone`,
		p.AccountID, p.DateOfBirth, p.BloodGroup, p.Allergies, p.Address,
		p.EmergencyContactName, p.EmergencyContactPhone,
	)
	return err
}

func (r *repoPG) ListAcceptingDoctors(ctx context.Context) ([]*DoctorListing, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.account_id, p.full_name, d.specialization, d.qualification,
			d.available_days, d.available_start, d.available_end
		FROM doctor_profiles d
		JOIN profiles p ON p.account_id = d.account_id
		WHERE d.accepting_patients
		ORDER BY p.full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*DoctorListing
	for rows.Next() {
		var l DoctorListing
		if err := rows.Scan(&l.AccountID, &l.FullName, &l.Specialization, &l.Qualification,
			&l.AvailableDays, &l.AvailableStart, &l.AvailableEnd); err != nil {
			return nil, err
		}
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
