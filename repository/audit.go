package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
)

// InsertAuditEvent stores e in audit_logs
func (s *Store) InsertAuditEvent(ctx context.Context, e models.AuditEvent) error {
	var details *string
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return apperrors.NewInternalError("failed to encode audit details", err)
		}
		str := string(raw)
		details = &str
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_logs (event, user_id, role, ip, details) VALUES ($1, $2, $3, $4, $5::jsonb)`,
		e.Event, e.UserID, e.Role, e.IP, details,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to write audit event", err)
	}
	return nil
}

// ListAuditEvents returns one page of events matching f, newest first, and the total match count
func (s *Store) ListAuditEvents(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, int, error) {
	ds := s.qb.From("audit_logs")
	if f.Event != "" {
		ds = ds.Where(goqu.C("event").Eq(f.Event))
	}
	if f.UserID != 0 {
		ds = ds.Where(goqu.C("user_id").Eq(f.UserID))
	}
	if from, err := time.Parse(models.DateLayout, f.From); err == nil {
		ds = ds.Where(goqu.C("created_at").Gte(from))
	}
	if to, err := time.Parse(models.DateLayout, f.To); err == nil {
		ds = ds.Where(goqu.C("created_at").Lt(to.AddDate(0, 0, 1)))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build query", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count audit events", err)
	}

	page := ds.Select("id", "event", "user_id", "role", "ip", goqu.L("details::text"), "created_at").
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(f.Limit)).
		Offset(uint((f.Page - 1) * f.Limit))

	rows, err := s.query(ctx, page.Prepared(true))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := []models.AuditEvent{}
	for rows.Next() {
		var e models.AuditEvent
		var details *string
		if err := rows.Scan(&e.ID, &e.Event, &e.UserID, &e.Role, &e.IP, &details, &e.CreatedAt); err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan audit event", err)
		}
		if details != nil {
			if err := json.Unmarshal([]byte(*details), &e.Details); err != nil {
				return nil, 0, apperrors.NewInternalError("failed to decode audit details", err)
			}
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
