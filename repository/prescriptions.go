package repository

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
)

func (s *Store) prescriptionSelect() *goqu.SelectDataset {
	return s.qb.From(goqu.T("prescriptions").As("p")).
		Join(goqu.T("users").As("pt"), goqu.On(goqu.I("pt.id").Eq(goqu.I("p.patient_id")))).
		Join(goqu.T("users").As("dr"), goqu.On(goqu.I("dr.id").Eq(goqu.I("p.doctor_id")))).
		LeftJoin(goqu.T("users").As("ph"), goqu.On(goqu.I("ph.id").Eq(goqu.I("p.dispensed_by")))).
		LeftJoin(goqu.T("appointments").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("p.appointment_id")))).
		Select(
			goqu.I("p.id"), goqu.I("p.appointment_id"), goqu.I("p.patient_id"), goqu.I("p.doctor_id"),
			goqu.I("p.diagnosis"), goqu.I("p.medications"), goqu.I("p.instructions"), goqu.I("p.status"),
			goqu.I("p.dispensed_by"), goqu.I("p.dispensed_at"), goqu.I("p.created_at"), goqu.I("p.updated_at"),
			goqu.I("a.appointment_number"),
			goqu.I("pt.name"), goqu.I("pt.email"), goqu.I("pt.staff_id"),
			goqu.I("dr.name"),
			goqu.I("ph.name"),
		)
}

func scanPrescription(row pgx.Row) (*models.Prescription, error) {
	p := &models.Prescription{}
	patient := &models.UserSummary{}
	doctor := &models.UserSummary{}
	var dispenserName *string

	err := row.Scan(
		&p.ID, &p.AppointmentID, &p.PatientID, &p.DoctorID,
		&p.Diagnosis, &p.Medications, &p.Instructions, &p.Status,
		&p.DispensedBy, &p.DispensedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.AppointmentNumber,
		&patient.Name, &patient.Email, &patient.StaffID,
		&doctor.Name,
		&dispenserName,
	)
	if err != nil {
		return nil, err
	}

	patient.ID = p.PatientID
	doctor.ID = p.DoctorID
	p.Patient = patient
	p.Doctor = doctor
	if p.DispensedBy != nil && dispenserName != nil {
		p.Dispenser = &models.UserSummary{ID: *p.DispensedBy, Name: *dispenserName}
	}
	return p, nil
}

func insertPrescription(ctx context.Context, db execer, p *models.Prescription) error {
	err := db.QueryRow(ctx,
		`INSERT INTO prescriptions (appointment_id, patient_id, doctor_id, diagnosis, medications, instructions, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.AppointmentID, p.PatientID, p.DoctorID, p.Diagnosis, p.Medications, p.Instructions, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to create prescription", err)
	}
	return nil
}

// CreatePrescription inserts p
func (s *Store) CreatePrescription(ctx context.Context, p *models.Prescription) error {
	return insertPrescription(ctx, s.pool, p)
}

// GetPrescription loads a prescription with patient, doctor and pharmacist names
func (s *Store) GetPrescription(ctx context.Context, id int64) (*models.Prescription, error) {
	sql, args, err := s.prescriptionSelect().Where(goqu.I("p.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	p, err := scanPrescription(s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFoundOr(err, "prescription")
	}
	return p, nil
}

// ListPrescriptions returns prescriptions matching f ordered by creation time
func (s *Store) ListPrescriptions(ctx context.Context, f models.PrescriptionFilter) ([]models.Prescription, error) {
	ds := s.prescriptionSelect()
	if f.Status != "" {
		ds = ds.Where(goqu.I("p.status").Eq(f.Status))
	}
	if f.CreatedOn != "" {
		ds = ds.Where(goqu.L("p.created_at::date = ?", f.CreatedOn))
	}
	if f.PatientID != 0 {
		ds = ds.Where(goqu.I("p.patient_id").Eq(f.PatientID))
	}
	if f.DoctorID != 0 {
		ds = ds.Where(goqu.I("p.doctor_id").Eq(f.DoctorID))
	}
	if f.Ascending {
		ds = ds.Order(goqu.I("p.created_at").Asc())
	} else {
		ds = ds.Order(goqu.I("p.created_at").Desc())
	}

	rows, err := s.query(ctx, ds.Prepared(true))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan prescription", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// UpdatePrescriptionStatus persists the status and dispensing columns of p
func (s *Store) UpdatePrescriptionStatus(ctx context.Context, p *models.Prescription) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE prescriptions SET status = $2, dispensed_by = $3, dispensed_at = $4, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.Status, p.DispensedBy, p.DispensedAt,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "prescription")
	}
	return nil
}
