package repository

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
)

const userColumns = `id, name, email, password, role, staff_id, phone, is_approved,
	signature, otp_secret, otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.StaffID, &u.Phone, &u.IsApproved,
		&u.Signature, &u.OTPSecret, &u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts u and fills its id and timestamps
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role, staff_id, phone, is_approved)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Password, u.Role, u.StaffID, u.Phone, u.IsApproved,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.NewValidationError("The given data was invalid.", map[string][]string{
			"email": {"The email has already been taken."},
		})
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

// GetUserByID loads a user
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

// GetUserByEmail loads a user by case-insensitive email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

// FindPatientByStaffID loads the student or staff member holding staffID
func (s *Store) FindPatientByStaffID(ctx context.Context, staffID string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE staff_id = $1 AND role IN ('student', 'staff')
		 ORDER BY id LIMIT 1`, staffID))
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

// ListUsers returns users matching f, newest first
func (s *Store) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	ds := s.qb.From("users").Select(goqu.L(userColumns)).Order(goqu.I("created_at").Desc())
	if len(f.Roles) > 0 {
		ds = ds.Where(goqu.C("role").In(f.Roles))
	}
	if len(f.ExcludeRoles) > 0 {
		ds = ds.Where(goqu.C("role").NotIn(f.ExcludeRoles))
	}
	if f.Approved != nil {
		ds = ds.Where(goqu.C("is_approved").Eq(*f.Approved))
	}

	rows, err := s.query(ctx, ds.Prepared(true))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ApproveUser marks a user as approved
func (s *Store) ApproveUser(ctx context.Context, id int64) error {
	return execAffecting(ctx, s, "user",
		`UPDATE users SET is_approved = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

// DeleteUser removes a user and, by cascade, their records
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return execAffecting(ctx, s, "user", `DELETE FROM users WHERE id = $1`, id)
}

// UpdatePassword stores a new password hash
func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return execAffecting(ctx, s, "user",
		`UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

// SetOTP stores or, with nil arguments, clears the pending login code
func (s *Store) SetOTP(ctx context.Context, id int64, secret *string, expiresAt *time.Time) error {
	return execAffecting(ctx, s, "user",
		`UPDATE users SET otp_secret = $2, otp_expires_at = $3, updated_at = NOW() WHERE id = $1`,
		id, secret, expiresAt)
}

// SetSignature stores or, with nil, removes the user's signature image
func (s *Store) SetSignature(ctx context.Context, id int64, signature *string) error {
	return execAffecting(ctx, s, "user",
		`UPDATE users SET signature = $2, updated_at = NOW() WHERE id = $1`, id, signature)
}
