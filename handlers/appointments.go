package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
)

var activeStatuses = []string{models.AppointmentPending, models.AppointmentCheckedIn, models.AppointmentInProgress}

// ListAppointments lists appointments, newest number first. Patients only see their own.
func (h *Handler) ListAppointments(c *fiber.Ctx) error {
	filter := models.AppointmentFilter{Order: models.OrderNumberDesc}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []string{status}
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	filter.Date = date
	if c.QueryBool("today") {
		filter.Date = h.today()
	}
	if userID := c.Query("user_id"); userID != "" {
		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			return fieldError("user_id", "The user id must be a number.")
		}
		filter.UserID = id
	}
	if models.IsPatientRole(middleware.CurrentRole(c)) {
		filter.UserID = middleware.CurrentUserID(c)
	}

	appts, err := h.appointments.ListAppointments(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"appointments": appts})
}

// SearchPatient finds a student or staff member by their ID number
func (h *Handler) SearchPatient(c *fiber.Ctx) error {
	idNumber := strings.TrimSpace(c.Query("id_number"))
	if idNumber == "" {
		return fieldError("id_number", "The id number field is required.")
	}

	user, err := h.users.FindPatientByStaffID(c.UserContext(), idNumber)
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFoundError("No student or staff found with this ID number")
	}
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"user": newUserResponse(user)})
}

// CreateAppointment books an appointment for a patient
func (h *Handler) CreateAppointment(c *fiber.Ctx) error {
	var req models.CreateAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	if _, err := h.users.GetUserByID(ctx, req.UserID); err != nil {
		if apperrors.IsNotFound(err) {
			return fieldError("user_id", "The selected user id is invalid.")
		}
		return err
	}

	appt, err := h.bookAppointment(c, req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message":     "Appointment created successfully",
		"appointment": appt,
	})
}

func (h *Handler) bookAppointment(c *fiber.Ctx, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	ctx := c.UserContext()
	appt := &models.Appointment{
		UserID:          req.UserID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Reason:          optional(req.Reason),
		Status:          models.AppointmentPending,
		Priority:        req.Priority,
		CreatedBy:       middleware.CurrentUserID(c),
	}
	if err := h.appointments.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}
	return h.appointments.GetAppointment(ctx, appt.ID)
}

func (h *Handler) loadAppointment(c *fiber.Ctx) (*models.Appointment, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	appt, err := h.appointments.GetAppointment(c.UserContext(), id)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewNotFoundError("Appointment not found")
	}
	if err != nil {
		return nil, err
	}
	if models.IsPatientRole(middleware.CurrentRole(c)) && appt.UserID != middleware.CurrentUserID(c) {
		return nil, apperrors.NewForbiddenError("Unauthorized to view this appointment")
	}
	return appt, nil
}

// GetAppointment returns one appointment
func (h *Handler) GetAppointment(c *fiber.Ctx) error {
	appt, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"appointment": appt})
}

// UpdateAppointment changes the fields present in the body
func (h *Handler) UpdateAppointment(c *fiber.Ctx) error {
	var req models.UpdateAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	appt, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if appt.IsTerminal() {
		return apperrors.NewConflictError(fmt.Sprintf("A %s appointment cannot be modified", appt.Status))
	}

	if req.AppointmentDate != nil {
		appt.AppointmentDate = *req.AppointmentDate
	}
	if req.AppointmentTime != nil {
		appt.AppointmentTime = *req.AppointmentTime
	}
	if req.Reason != nil {
		appt.Reason = optional(*req.Reason)
	}
	if req.Priority != nil {
		appt.Priority = *req.Priority
	}
	if req.MedicalNotes != nil {
		appt.MedicalNotes = optional(*req.MedicalNotes)
	}

	if err := h.appointments.UpdateAppointment(c.UserContext(), appt); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message":     "Appointment updated successfully",
		"appointment": appt,
	})
}

func (h *Handler) transition(c *fiber.Ctx, status, message string, apply func(*models.Appointment)) error {
	appt, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if !appt.CanTransition(status) {
		return apperrors.NewConflictError(fmt.Sprintf("Cannot change a %s appointment to %s", appt.Status, status))
	}

	appt.Status = status
	if apply != nil {
		apply(appt)
	}
	if err := h.appointments.UpdateAppointment(c.UserContext(), appt); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": message, "appointment": appt})
}

// CheckIn marks a pending appointment as arrived
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	return h.transition(c, models.AppointmentCheckedIn, "Patient checked in successfully", func(a *models.Appointment) {
		now := h.now()
		a.CheckedInAt = &now
	})
}

// StartAppointment moves an appointment into consultation
func (h *Handler) StartAppointment(c *fiber.Ctx) error {
	return h.transition(c, models.AppointmentInProgress, "Appointment started", nil)
}

// CancelAppointment cancels a non-terminal appointment
func (h *Handler) CancelAppointment(c *fiber.Ctx) error {
	return h.transition(c, models.AppointmentCancelled, "Appointment cancelled successfully", nil)
}

// CompleteAppointment closes the consultation. Medications create a pending prescription.
func (h *Handler) CompleteAppointment(c *fiber.Ctx) error {
	var req models.CompleteAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	appt, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if !appt.CanTransition(models.AppointmentCompleted) {
		return apperrors.NewConflictError(fmt.Sprintf("Cannot complete a %s appointment", appt.Status))
	}

	doctorID := middleware.CurrentUserID(c)
	now := h.now()
	appt.Status = models.AppointmentCompleted
	appt.MedicalNotes = optional(req.MedicalNotes)
	appt.LabReports = optional(req.LabReports)
	appt.CompletedBy = &doctorID
	appt.CompletedAt = &now

	var rx *models.Prescription
	if strings.TrimSpace(req.Medications) != "" {
		diagnosis := strings.TrimSpace(req.Diagnosis)
		if diagnosis == "" {
			diagnosis = req.MedicalNotes
		}
		rx = &models.Prescription{
			AppointmentID: appt.ID,
			PatientID:     appt.UserID,
			DoctorID:      doctorID,
			Diagnosis:     diagnosis,
			Medications:   req.Medications,
			Instructions:  optional(req.Instructions),
			Status:        models.PrescriptionPending,
		}
	}

	if err := h.appointments.CompleteAppointment(c.UserContext(), appt, rx); err != nil {
		return err
	}

	body := fiber.Map{"message": "Appointment completed successfully", "appointment": appt}
	if rx != nil {
		body["prescription"] = rx
	}
	return ok(c, fiber.StatusOK, body)
}

// PatientHistory lists a patient's appointments, latest first
func (h *Handler) PatientHistory(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	if models.IsPatientRole(middleware.CurrentRole(c)) && userID != middleware.CurrentUserID(c) {
		return apperrors.NewForbiddenError("Unauthorized to view this history")
	}

	appts, err := h.appointments.ListAppointments(c.UserContext(), models.AppointmentFilter{
		UserID: userID,
		Order:  models.OrderHistory,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"appointments": appts})
}

// TodayQueue lists today's open appointments, urgent first
func (h *Handler) TodayQueue(c *fiber.Ctx) error {
	appts, err := h.appointments.ListAppointments(c.UserContext(), models.AppointmentFilter{
		Statuses: activeStatuses,
		Date:     h.today(),
		Order:    models.OrderQueue,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"queue": appts, "total": len(appts)})
}

// DailyReport summarises a day's appointments, today by default
func (h *Handler) DailyReport(c *fiber.Ctx) error {
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	if date == "" {
		date = h.today()
	}

	appts, err := h.appointments.ListAppointments(c.UserContext(), models.AppointmentFilter{
		Date:  date,
		Order: models.OrderNumberAsc,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"report": models.NewDailyReport(date, appts)})
}

// DeleteAppointment removes an appointment
func (h *Handler) DeleteAppointment(c *fiber.Ctx) error {
	appt, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if err := h.appointments.DeleteAppointment(c.UserContext(), appt.ID); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Appointment deleted successfully"})
}
