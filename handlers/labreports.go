package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/documents"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
	"github.com/rs/zerolog/log"
)

// ListLabReports lists the current user's completed appointments that carry lab results
func (h *Handler) ListLabReports(c *fiber.Ctx) error {
	appts, err := h.appointments.ListAppointments(c.UserContext(), models.AppointmentFilter{
		UserID:        middleware.CurrentUserID(c),
		Statuses:      []string{models.AppointmentCompleted},
		WithLabReport: true,
		Order:         models.OrderCompletedDesc,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"lab_reports": appts})
}

// DownloadLabReport renders an appointment's lab results, signed by the completing doctor
func (h *Handler) DownloadLabReport(c *fiber.Ctx) error {
	id, err := paramID(c, "appointmentId")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	appt, err := h.appointments.GetAppointment(ctx, id)
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFoundError("Appointment not found")
	}
	if err != nil {
		return err
	}
	if !appt.HasLabReports() {
		return apperrors.NewNotFoundError("No lab reports found for this appointment")
	}

	role := middleware.CurrentRole(c)
	if appt.UserID != middleware.CurrentUserID(c) && role != models.RoleAdmin && !models.NeedsApproval(role) {
		return apperrors.NewForbiddenError("Unauthorized to download this lab report")
	}

	var signature string
	if appt.CompletedBy != nil {
		doctor, err := h.users.GetUserByID(ctx, *appt.CompletedBy)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if doctor != nil && doctor.HasSignature() {
			signature = *doctor.Signature
			if err := documents.CheckSignature(signature); err != nil {
				log.Warn().Err(err).Int64("doctor_id", doctor.ID).Msg("skipping unrenderable signature")
				signature = ""
			}
		}
	}

	pdf, err := documents.LabReportPDF(appt, signature, h.now())
	if err != nil {
		return apperrors.NewInternalError("failed to render lab report", err)
	}

	staffID := ""
	if appt.User != nil && appt.User.StaffID != nil {
		staffID = *appt.User.StaffID
	}
	return sendFile(c, documents.LabReportFilename(staffID, appt.AppointmentNumber), "application/pdf", pdf)
}
