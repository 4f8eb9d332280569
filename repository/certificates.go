package repository

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
)

func (s *Store) certificateSelect() *goqu.SelectDataset {
	return s.qb.From(goqu.T("medical_certificates").As("m")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("m.user_id")))).
		LeftJoin(goqu.T("users").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("m.doctor_id")))).
		Select(
			goqu.I("m.id"), goqu.I("m.user_id"), goqu.I("m.doctor_id"), goqu.I("m.appointment_id"),
			goqu.I("m.reason"),
			goqu.L("to_char(m.start_date, 'YYYY-MM-DD')"),
			goqu.L("to_char(m.end_date, 'YYYY-MM-DD')"),
			goqu.I("m.days_requested"), goqu.I("m.status"), goqu.I("m.doctor_notes"),
			goqu.I("m.rejection_reason"), goqu.I("m.document_path"), goqu.I("m.approved_at"),
			goqu.I("m.created_at"), goqu.I("m.updated_at"),
			goqu.I("u.name"), goqu.I("u.email"), goqu.I("u.role"), goqu.I("u.staff_id"),
			goqu.I("d.name"),
		)
}

func scanCertificate(row pgx.Row) (*models.MedicalCertificate, error) {
	m := &models.MedicalCertificate{}
	user := &models.UserSummary{}
	var doctorName *string

	err := row.Scan(
		&m.ID, &m.UserID, &m.DoctorID, &m.AppointmentID,
		&m.Reason, &m.StartDate, &m.EndDate,
		&m.DaysRequested, &m.Status, &m.DoctorNotes,
		&m.RejectionReason, &m.DocumentPath, &m.ApprovedAt,
		&m.CreatedAt, &m.UpdatedAt,
		&user.Name, &user.Email, &user.Role, &user.StaffID,
		&doctorName,
	)
	if err != nil {
		return nil, err
	}

	user.ID = m.UserID
	m.User = user
	if m.DoctorID != nil && doctorName != nil {
		m.Doctor = &models.UserSummary{ID: *m.DoctorID, Name: *doctorName}
	}
	return m, nil
}

// CreateCertificate inserts m
func (s *Store) CreateCertificate(ctx context.Context, m *models.MedicalCertificate) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO medical_certificates
		   (user_id, appointment_id, reason, start_date, end_date, days_requested, status, document_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		m.UserID, m.AppointmentID, m.Reason, m.StartDate, m.EndDate, m.DaysRequested, m.Status, m.DocumentPath,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to create medical certificate", err)
	}
	return nil
}

// GetCertificate loads a certificate with requester and doctor names
func (s *Store) GetCertificate(ctx context.Context, id int64) (*models.MedicalCertificate, error) {
	sql, args, err := s.certificateSelect().Where(goqu.I("m.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	m, err := scanCertificate(s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFoundOr(err, "medical certificate")
	}
	return m, nil
}

// ListCertificates returns certificates matching f, newest first
func (s *Store) ListCertificates(ctx context.Context, f models.CertificateFilter) ([]models.MedicalCertificate, error) {
	ds := s.certificateSelect().Order(goqu.I("m.created_at").Desc())
	if f.Status != "" {
		ds = ds.Where(goqu.I("m.status").Eq(f.Status))
	}
	if f.UserType != "" {
		ds = ds.Where(goqu.I("u.role").Eq(f.UserType))
	}
	if f.CreatedFrom != "" {
		ds = ds.Where(goqu.L("m.created_at::date >= ?::date", f.CreatedFrom))
	}
	if f.CreatedTo != "" {
		ds = ds.Where(goqu.L("m.created_at::date <= ?::date", f.CreatedTo))
	}
	if f.UserID != 0 {
		ds = ds.Where(goqu.I("m.user_id").Eq(f.UserID))
	}
	if f.PendingOrDoctor != 0 {
		ds = ds.Where(goqu.Or(
			goqu.I("m.status").Eq(models.CertificatePending),
			goqu.I("m.doctor_id").Eq(f.PendingOrDoctor),
		))
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.L("m.id::text LIKE ?", like),
			goqu.I("u.name").ILike(like),
			goqu.I("u.staff_id").ILike(like),
		))
	}

	rows, err := s.query(ctx, ds.Prepared(true))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.MedicalCertificate{}
	for rows.Next() {
		m, err := scanCertificate(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medical certificate", err)
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// UpdateCertificateDecision persists a doctor's approval or rejection of m
func (s *Store) UpdateCertificateDecision(ctx context.Context, m *models.MedicalCertificate) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE medical_certificates SET
		   status = $2, doctor_id = $3, doctor_notes = $4, rejection_reason = $5, approved_at = $6, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		m.ID, m.Status, m.DoctorID, m.DoctorNotes, m.RejectionReason, m.ApprovedAt,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "medical certificate")
	}
	return nil
}

// CertificateStats counts certificates per status
func (s *Store) CertificateStats(ctx context.Context) (models.CertificateStats, error) {
	var st models.CertificateStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE status = 'approved'),
		        COUNT(*) FILTER (WHERE status = 'rejected')
		 FROM medical_certificates`,
	).Scan(&st.Total, &st.Pending, &st.Approved, &st.Rejected)
	if err != nil {
		return st, apperrors.NewInternalError("failed to count medical certificates", err)
	}
	return st, nil
}
