package repository

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
)

// appointmentNumberLock is the advisory lock key serialising number assignment
const appointmentNumberLock = 7241001

func (s *Store) appointmentSelect() *goqu.SelectDataset {
	return s.qb.From(goqu.T("appointments").As("a")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("a.user_id")))).
		Join(goqu.T("users").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("a.created_by")))).
		LeftJoin(goqu.T("users").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("a.completed_by")))).
		Select(
			goqu.I("a.id"), goqu.I("a.appointment_number"), goqu.I("a.user_id"),
			goqu.L("to_char(a.appointment_date, 'YYYY-MM-DD')"),
			goqu.L("to_char(a.appointment_time, 'HH24:MI')"),
			goqu.I("a.reason"), goqu.I("a.status"), goqu.I("a.priority"), goqu.I("a.created_by"),
			goqu.I("a.medical_notes"), goqu.I("a.lab_reports"), goqu.I("a.completed_by"),
			goqu.I("a.checked_in_at"), goqu.I("a.completed_at"), goqu.I("a.created_at"), goqu.I("a.updated_at"),
			goqu.I("u.name"), goqu.I("u.email"), goqu.I("u.role"), goqu.I("u.staff_id"),
			goqu.I("c.name"), goqu.I("c.role"),
			goqu.I("d.name"),
		)
}

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	a := &models.Appointment{}
	user := &models.UserSummary{}
	creator := &models.UserSummary{}
	var completerName *string

	err := row.Scan(
		&a.ID, &a.AppointmentNumber, &a.UserID, &a.AppointmentDate, &a.AppointmentTime,
		&a.Reason, &a.Status, &a.Priority, &a.CreatedBy,
		&a.MedicalNotes, &a.LabReports, &a.CompletedBy,
		&a.CheckedInAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt,
		&user.Name, &user.Email, &user.Role, &user.StaffID,
		&creator.Name, &creator.Role,
		&completerName,
	)
	if err != nil {
		return nil, err
	}

	user.ID = a.UserID
	creator.ID = a.CreatedBy
	a.User = user
	a.Creator = creator
	if a.CompletedBy != nil && completerName != nil {
		a.Completer = &models.UserSummary{ID: *a.CompletedBy, Name: *completerName}
	}
	return a, nil
}

// CreateAppointment inserts a and assigns the next appointment number. The
// advisory lock is held until commit so concurrent creators are serialised.
func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, appointmentNumberLock); err != nil {
			return apperrors.NewInternalError("failed to lock appointment numbers", err)
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO appointments
			   (appointment_number, user_id, appointment_date, appointment_time, reason, status, priority, created_by)
			 VALUES ((SELECT COALESCE(MAX(appointment_number), 0) + 1 FROM appointments), $1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, appointment_number, created_at, updated_at`,
			a.UserID, a.AppointmentDate, a.AppointmentTime, a.Reason, a.Status, a.Priority, a.CreatedBy,
		).Scan(&a.ID, &a.AppointmentNumber, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return apperrors.NewInternalError("failed to create appointment", err)
		}
		return nil
	})
}

// GetAppointment loads an appointment with its patient, creator and completing doctor
func (s *Store) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	sql, args, err := s.appointmentSelect().Where(goqu.I("a.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	a, err := scanAppointment(s.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFoundOr(err, "appointment")
	}
	return a, nil
}

// ListAppointments returns appointments matching f in the requested order
func (s *Store) ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error) {
	ds := s.appointmentSelect()
	if len(f.Statuses) > 0 {
		ds = ds.Where(goqu.I("a.status").In(f.Statuses))
	}
	if f.Date != "" {
		ds = ds.Where(goqu.I("a.appointment_date").Eq(f.Date))
	}
	if f.UserID != 0 {
		ds = ds.Where(goqu.I("a.user_id").Eq(f.UserID))
	}
	if f.WithLabReport {
		ds = ds.Where(goqu.I("a.lab_reports").IsNotNull(), goqu.I("a.lab_reports").Neq(""))
	}
	ds = ds.Order(appointmentOrder(f.Order)...)

	rows, err := s.query(ctx, ds.Prepared(true))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

func appointmentOrder(order string) []exp.OrderedExpression {
	number := goqu.I("a.appointment_number")
	switch order {
	case models.OrderHistory:
		return []exp.OrderedExpression{goqu.I("a.appointment_date").Desc(), goqu.I("a.appointment_time").Desc()}
	case models.OrderQueue:
		return []exp.OrderedExpression{
			goqu.L("CASE WHEN a.priority = 'urgent' THEN 0 ELSE 1 END").Asc(),
			number.Asc(),
		}
	case models.OrderNumberAsc:
		return []exp.OrderedExpression{number.Asc()}
	case models.OrderCompletedDesc:
		return []exp.OrderedExpression{goqu.I("a.completed_at").Desc().NullsLast()}
	default:
		return []exp.OrderedExpression{number.Desc()}
	}
}

// UpdateAppointment persists every mutable column of a
func (s *Store) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	return s.updateAppointment(ctx, s.pool, a)
}

type execer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (s *Store) updateAppointment(ctx context.Context, db execer, a *models.Appointment) error {
	err := db.QueryRow(ctx,
		`UPDATE appointments SET
		   appointment_date = $2, appointment_time = $3, reason = $4, status = $5, priority = $6,
		   medical_notes = $7, lab_reports = $8, completed_by = $9, checked_in_at = $10, completed_at = $11,
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		a.ID, a.AppointmentDate, a.AppointmentTime, a.Reason, a.Status, a.Priority,
		a.MedicalNotes, a.LabReports, a.CompletedBy, a.CheckedInAt, a.CompletedAt,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "appointment")
	}
	return nil
}

// CompleteAppointment saves a and, when rx is not nil, creates the follow-up
// prescription in the same transaction.
func (s *Store) CompleteAppointment(ctx context.Context, a *models.Appointment, rx *models.Prescription) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.updateAppointment(ctx, tx, a); err != nil {
			return err
		}
		if rx == nil {
			return nil
		}
		return insertPrescription(ctx, tx, rx)
	})
}

// DeleteAppointment removes an appointment
func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	return execAffecting(ctx, s, "appointment", `DELETE FROM appointments WHERE id = $1`, id)
}
